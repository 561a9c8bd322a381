// Package rk supplies reference Stepper implementations and their
// dense-output interpolator: the concrete Runge-Kutta schemes the core
// spec declares external collaborators (§1, §6). All of it is
// instantiated over state.Real — gonum, which backs the numerics, is
// float64-specific.
package rk

import (
	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/state"
)

// HermiteInterpolator is the dense-output object shared by every
// stepper in this package: a cubic Hermite spline built from the
// state and derivative at both ends of an accepted step, restrictable
// to any sub-interval without recomputing the underlying stages.
type HermiteInterpolator struct {
	mapper  *eventode.Mapper[state.Real]
	prev    state.StateAndDerivative[state.Real]
	curr    state.StateAndDerivative[state.Real]
	tA, tB  state.Real
	forward bool
}

func newHermiteInterpolator(mapper *eventode.Mapper[state.Real], prev, curr state.StateAndDerivative[state.Real]) *HermiteInterpolator {
	return &HermiteInterpolator{
		mapper:  mapper,
		prev:    prev,
		curr:    curr,
		tA:      prev.Time(),
		tB:      curr.Time(),
		forward: curr.Time().Real() >= prev.Time().Real(),
	}
}

// Bounds returns the interpolator's current restricted interval.
func (h *HermiteInterpolator) Bounds() (state.Real, state.Real) { return h.tA, h.tB }

// Forward reports the underlying step's direction.
func (h *HermiteInterpolator) Forward() bool { return h.forward }

// Restrict narrows the interval without touching the underlying
// spline; calling Restrict twice with the same bounds is idempotent.
func (h *HermiteInterpolator) Restrict(tA, tB state.Real) eventode.Interpolator[state.Real] {
	return &HermiteInterpolator{mapper: h.mapper, prev: h.prev, curr: h.curr, tA: tA, tB: tB, forward: h.forward}
}

// Evaluate samples the Hermite spline at t, which must lie within the
// original (unrestricted) step.
func (h *HermiteInterpolator) Evaluate(t state.Real) (state.StateAndDerivative[state.Real], error) {
	step := h.curr.Time().Real() - h.prev.Time().Real()
	if step == 0 {
		return h.prev, nil
	}
	s := (t.Real() - h.prev.Time().Real()) / step
	s2, s3 := s*s, s*s*s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	dh00 := (6*s2 - 6*s) / step
	dh10 := 3*s2 - 4*s + 1
	dh01 := (-6*s2 + 6*s) / step
	dh11 := 3*s2 - 2*s

	yA := toFloats(eventode.Flatten(h.mapper, h.prev.State))
	yB := toFloats(eventode.Flatten(h.mapper, h.curr.State))
	dyA := toFloats(eventode.FlattenDerivative(h.mapper, h.prev))
	dyB := toFloats(eventode.FlattenDerivative(h.mapper, h.curr))

	n := h.mapper.Dimension()
	y := make([]float64, n)
	dy := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = h00*yA[i] + h10*step*dyA[i] + h01*yB[i] + h11*step*dyB[i]
		dy[i] = dh00*yA[i] + dh10*dyA[i] + dh01*yB[i] + dh11*dyB[i]
	}
	return h.mapper.MapStateAndDerivative(t, fromFloats(y), fromFloats(dy))
}

var _ eventode.Interpolator[state.Real] = (*HermiteInterpolator)(nil)

func toFloats(v []state.Real) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func fromFloats(v []float64) []state.Real {
	out := make([]state.Real, len(v))
	for i, x := range v {
		out[i] = state.Real(x)
	}
	return out
}

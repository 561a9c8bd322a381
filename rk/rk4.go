package rk

import (
	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/state"
	"gonum.org/v1/gonum/floats"
)

// FixedStep is the classical fourth-order Runge-Kutta scheme (§6),
// adapted from the teacher's RK4Solver: it advances the whole distance
// to tEnd in one Propose call, subdivided into Substeps equal-size
// internal stages. No error estimate; step size is whatever the
// caller requests.
type FixedStep struct {
	// Substeps is the number of equal fixed-size RK4 stages per
	// Propose call. Defaults to 1 if non-positive.
	Substeps int
}

func (r FixedStep) Propose(ode *eventode.ExpandableODE[state.Real], from state.StateAndDerivative[state.Real], tEnd state.Real) (state.StateAndDerivative[state.Real], eventode.Interpolator[state.Real], error) {
	n := r.Substeps
	if n < 1 {
		n = 1
	}
	mapper := ode.Mapper()
	h := (tEnd.Real() - from.Time().Real()) / float64(n)

	y := toFloats(eventode.Flatten(mapper, from.State))
	t := from.Time().Real()

	for step := 0; step < n; step++ {
		k1, err := ode.ComputeDerivatives(state.Real(t), fromFloats(y))
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k1f := toFloats(k1)

		y2 := append([]float64(nil), y...)
		floats.AddScaled(y2, h/2, k1f)
		k2, err := ode.ComputeDerivatives(state.Real(t+h/2), fromFloats(y2))
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k2f := toFloats(k2)

		y3 := append([]float64(nil), y...)
		floats.AddScaled(y3, h/2, k2f)
		k3, err := ode.ComputeDerivatives(state.Real(t+h/2), fromFloats(y3))
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k3f := toFloats(k3)

		y4 := append([]float64(nil), y...)
		floats.AddScaled(y4, h, k3f)
		k4, err := ode.ComputeDerivatives(state.Real(t+h), fromFloats(y4))
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k4f := toFloats(k4)

		next := append([]float64(nil), y...)
		floats.AddScaled(next, h/6, k1f)
		floats.AddScaled(next, h/3, k2f)
		floats.AddScaled(next, h/3, k3f)
		floats.AddScaled(next, h/6, k4f)

		y = next
		t += h
	}
	// Land exactly on tEnd rather than on the accumulated sum of substeps.
	t = tEnd.Real()

	dy, err := ode.ComputeDerivatives(state.Real(t), fromFloats(y))
	if err != nil {
		return state.StateAndDerivative[state.Real]{}, nil, err
	}
	to, err := mapper.MapStateAndDerivative(state.Real(t), fromFloats(y), dy)
	if err != nil {
		return state.StateAndDerivative[state.Real]{}, nil, err
	}
	return to, newHermiteInterpolator(mapper, from, to), nil
}

var _ eventode.Stepper[state.Real] = FixedStep{}

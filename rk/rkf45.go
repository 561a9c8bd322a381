package rk

import (
	"math"

	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/state"
	"gonum.org/v1/gonum/floats"
)

// Embedded is the Runge-Kutta-Fehlberg 4(5) scheme, adapted from the
// teacher's RKF45Solver: an embedded pair gives a local error estimate
// that drives the step size between StepMin and StepMax toward
// AbsTolerance. It remembers the step size it settles on across
// Propose calls, so later steps start from the previous step's
// estimate rather than InitialStep every time.
type Embedded struct {
	AbsTolerance float64
	StepMin      float64
	StepMax      float64
	InitialStep  float64

	lastH float64
}

func (r *Embedded) minStep() float64 {
	if r.StepMin > 0 {
		return r.StepMin
	}
	return 1e-10
}

func (r *Embedded) maxStep(remaining float64) float64 {
	if r.StepMax > 0 {
		return math.Min(r.StepMax, math.Abs(remaining))
	}
	return math.Abs(remaining)
}

// Fehlberg 4(5) Butcher tableau (Table III, Fehlberg 1969).
const (
	rkf45c20, rkf45c21                     = 1. / 4., 1. / 4.
	rkf45c30, rkf45c31, rkf45c32            = 3. / 8., 3. / 32., 9. / 32.
	rkf45c40, rkf45c41, rkf45c42, rkf45c43  = 12. / 13., 1932. / 2197., -7200. / 2197., 7296. / 2197.
	rkf45c50, rkf45c51, rkf45c52, rkf45c53, rkf45c54 = 1., 439. / 216., -8., 3680. / 513., -845. / 4104.
	rkf45c60, rkf45c61, rkf45c62, rkf45c63, rkf45c64, rkf45c65 = .5, -8. / 27., 2., -3544. / 2565., 1859. / 4104., -11. / 40.
	rkf45a1, rkf45a3, rkf45a4, rkf45a5 = 25. / 216., 1408. / 2565., 2197. / 4104., -1. / 5.
	rkf45b1, rkf45b3, rkf45b4, rkf45b5, rkf45b6 = 16. / 135., 6656. / 12825., 28561. / 56430., -9. / 50., 2. / 55.
)

func combine(base []float64, terms ...struct {
	v []float64
	c float64
}) []float64 {
	out := append([]float64(nil), base...)
	for _, term := range terms {
		floats.AddScaled(out, term.c, term.v)
	}
	return out
}

func (r *Embedded) Propose(ode *eventode.ExpandableODE[state.Real], from state.StateAndDerivative[state.Real], tEnd state.Real) (state.StateAndDerivative[state.Real], eventode.Interpolator[state.Real], error) {
	mapper := ode.Mapper()
	t0 := from.Time().Real()
	tf := tEnd.Real()
	remaining := tf - t0
	dir := 1.0
	if remaining < 0 {
		dir = -1.0
	}

	h := r.lastH
	if h == 0 {
		h = r.InitialStep
		if h == 0 {
			h = remaining * 0.1
		}
	}
	h = dir * math.Min(math.Abs(h), r.maxStep(remaining))
	if math.Abs(h) > math.Abs(remaining) {
		h = remaining
	}

	y0 := toFloats(eventode.Flatten(mapper, from.State))
	tol := r.AbsTolerance
	if tol <= 0 {
		tol = 1e-6
	}

	evalAt := func(tt float64, yy []float64) ([]float64, error) {
		dy, err := ode.ComputeDerivatives(state.Real(tt), fromFloats(yy))
		if err != nil {
			return nil, err
		}
		return toFloats(dy), nil
	}

	for {
		k1, err := evalAt(t0, y0)
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k1s := append([]float64(nil), k1...)
		floats.Scale(h, k1s)

		y2 := combine(y0, struct {
			v []float64
			c float64
		}{k1s, rkf45c21})
		k2, err := evalAt(t0+rkf45c20*h, y2)
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k2s := append([]float64(nil), k2...)
		floats.Scale(h, k2s)

		y3 := combine(y0,
			struct {
				v []float64
				c float64
			}{k1s, rkf45c31},
			struct {
				v []float64
				c float64
			}{k2s, rkf45c32})
		k3, err := evalAt(t0+rkf45c30*h, y3)
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k3s := append([]float64(nil), k3...)
		floats.Scale(h, k3s)

		y4 := combine(y0,
			struct {
				v []float64
				c float64
			}{k1s, rkf45c41},
			struct {
				v []float64
				c float64
			}{k2s, rkf45c42},
			struct {
				v []float64
				c float64
			}{k3s, rkf45c43})
		k4, err := evalAt(t0+rkf45c40*h, y4)
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k4s := append([]float64(nil), k4...)
		floats.Scale(h, k4s)

		y5 := combine(y0,
			struct {
				v []float64
				c float64
			}{k1s, rkf45c51},
			struct {
				v []float64
				c float64
			}{k2s, rkf45c52},
			struct {
				v []float64
				c float64
			}{k3s, rkf45c53},
			struct {
				v []float64
				c float64
			}{k4s, rkf45c54})
		k5, err := evalAt(t0+rkf45c50*h, y5)
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k5s := append([]float64(nil), k5...)
		floats.Scale(h, k5s)

		y6 := combine(y0,
			struct {
				v []float64
				c float64
			}{k1s, rkf45c61},
			struct {
				v []float64
				c float64
			}{k2s, rkf45c62},
			struct {
				v []float64
				c float64
			}{k3s, rkf45c63},
			struct {
				v []float64
				c float64
			}{k4s, rkf45c64},
			struct {
				v []float64
				c float64
			}{k5s, rkf45c65})
		k6, err := evalAt(t0+rkf45c60*h, y6)
		if err != nil {
			return state.StateAndDerivative[state.Real]{}, nil, err
		}
		k6s := append([]float64(nil), k6...)
		floats.Scale(h, k6s)

		y5sol := combine(y0,
			struct {
				v []float64
				c float64
			}{k1s, rkf45b1},
			struct {
				v []float64
				c float64
			}{k3s, rkf45b3},
			struct {
				v []float64
				c float64
			}{k4s, rkf45b4},
			struct {
				v []float64
				c float64
			}{k5s, rkf45b5},
			struct {
				v []float64
				c float64
			}{k6s, rkf45b6})
		y4sol := combine(y0,
			struct {
				v []float64
				c float64
			}{k1s, rkf45a1},
			struct {
				v []float64
				c float64
			}{k3s, rkf45a3},
			struct {
				v []float64
				c float64
			}{k4s, rkf45a4},
			struct {
				v []float64
				c float64
			}{k5s, rkf45a5})

		errVec := make([]float64, len(y0))
		floats.SubTo(errVec, y4sol, y5sol)
		for i := range errVec {
			errVec[i] = math.Abs(errVec[i])
		}
		errNorm := 0.0
		if len(errVec) > 0 {
			errNorm = floats.Max(errVec)
		}

		if errNorm <= tol || math.Abs(h) <= r.minStep() {
			tNext := t0 + h
			dy, err := ode.ComputeDerivatives(state.Real(tNext), fromFloats(y5sol))
			if err != nil {
				return state.StateAndDerivative[state.Real]{}, nil, err
			}
			to, err := mapper.MapStateAndDerivative(state.Real(tNext), fromFloats(y5sol), dy)
			if err != nil {
				return state.StateAndDerivative[state.Real]{}, nil, err
			}
			if errNorm > 0 {
				factor := 0.9 * math.Pow(tol/errNorm, 0.2)
				factor = math.Max(0.1, math.Min(factor, 5.0))
				r.lastH = dir * math.Min(math.Abs(h*factor), r.maxStep(tf-tNext))
			} else {
				r.lastH = h
			}
			return to, newHermiteInterpolator(mapper, from, to), nil
		}

		factor := 0.9 * math.Pow(tol/errNorm, 0.25)
		factor = math.Max(0.1, math.Min(factor, 0.9))
		h *= factor
		if math.Abs(h) < r.minStep() {
			h = dir * r.minStep()
		}
	}
}

var _ eventode.Stepper[state.Real] = (*Embedded)(nil)

package rk

import (
	"fmt"

	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/state"
	"gonum.org/v1/exp/linsolve"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Trapezoidal is an implicit second-order stepper: a forward-Euler
// predictor corrected by Newton-Raphson iteration against the
// trapezoidal-rule residual, adapted from the teacher's
// NewtonRaphsonSolver. It uses gonum's numerical Jacobian and
// iterative linear solver rather than a hand-derived Jacobian, which
// is what makes it suited to secondary equations whose RHS the caller
// doesn't want to differentiate by hand.
type Trapezoidal struct {
	Tolerance     float64
	MaxIterations int
}

func (tz Trapezoidal) tolerance() float64 {
	if tz.Tolerance > 0 {
		return tz.Tolerance
	}
	return 1e-8
}

func (tz Trapezoidal) maxIter() int {
	if tz.MaxIterations > 0 {
		return tz.MaxIterations
	}
	return 10
}

type residualPanic struct{ err error }

func (tz Trapezoidal) Propose(ode *eventode.ExpandableODE[state.Real], from state.StateAndDerivative[state.Real], tEnd state.Real) (state.StateAndDerivative[state.Real], eventode.Interpolator[state.Real], error) {
	mapper := ode.Mapper()
	t0 := from.Time().Real()
	tf := tEnd.Real()
	h := tf - t0
	n := mapper.Dimension()

	y0 := toFloats(eventode.Flatten(mapper, from.State))
	f0 := toFloats(eventode.FlattenDerivative(mapper, from))

	residual := func(dst, y []float64) {
		dy, err := ode.ComputeDerivatives(state.Real(tf), fromFloats(y))
		if err != nil {
			panic(residualPanic{err})
		}
		dyf := toFloats(dy)
		for i := range dst {
			dst[i] = y[i] - y0[i] - h/2*(f0[i]+dyf[i])
		}
	}

	guess := append([]float64(nil), y0...)
	floats.AddScaled(guess, h, f0)

	var newtonErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if rp, ok := r.(residualPanic); ok {
					newtonErr = rp.err
					return
				}
				panic(r)
			}
		}()
		Fg := make([]float64, n)
		for iter := 0; iter < tz.maxIter(); iter++ {
			residual(Fg, guess)
			if floats.Norm(Fg, 2) <= tz.tolerance() {
				return
			}
			J := mat.NewDense(n, n, nil)
			fd.Jacobian(J, residual, guess, nil)
			b := mat.NewVecDense(n, append([]float64(nil), Fg...))
			result, err := linsolve.Iterative(J, b, &linsolve.GMRES{}, &linsolve.Settings{MaxIterations: 2 * n})
			if err != nil {
				newtonErr = fmt.Errorf("trapezoidal: newton linear solve: %w", err)
				return
			}
			delta := result.X.RawVector().Data
			for i := range guess {
				guess[i] -= delta[i]
			}
		}
	}()
	if newtonErr != nil {
		return state.StateAndDerivative[state.Real]{}, nil, newtonErr
	}

	dy, err := ode.ComputeDerivatives(state.Real(tf), fromFloats(guess))
	if err != nil {
		return state.StateAndDerivative[state.Real]{}, nil, err
	}
	to, err := mapper.MapStateAndDerivative(state.Real(tf), fromFloats(guess), dy)
	if err != nil {
		return state.StateAndDerivative[state.Real]{}, nil, err
	}
	return to, newHermiteInterpolator(mapper, from, to), nil
}

var _ eventode.Stepper[state.Real] = Trapezoidal{}

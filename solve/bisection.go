package solve

import (
	"fmt"
	"math"

	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/state"
)

// Bisection is the simplest bracketing solver: it halves the interval
// every iteration regardless of f's shape. Slower than Illinois but
// immune to the pathological slopes that make regula-falsi variants
// occasionally stall.
type Bisection[S state.Scalar[S]] struct {
	AbsTolerance float64
}

func (b Bisection[S]) tolerance() float64 {
	if b.AbsTolerance > 0 {
		return b.AbsTolerance
	}
	return 1e-12
}

func (b Bisection[S]) Solve(f func(S) (S, error), lo, hi S, maxIter int) (S, error) {
	var zero S
	flo, err := f(lo)
	if err != nil {
		return zero, err
	}
	fhi, err := f(hi)
	if err != nil {
		return zero, err
	}
	if flo.Real() == 0 {
		return lo, nil
	}
	if fhi.Real() == 0 {
		return hi, nil
	}
	if sign(flo.Real()) == sign(fhi.Real()) {
		return zero, fmt.Errorf("%w: f(lo) and f(hi) have the same sign", eventode.ErrRootNotBracketed)
	}

	tol := b.tolerance()
	for i := 0; i < maxIter; i++ {
		if math.Abs(hi.Real()-lo.Real()) <= tol {
			return lo.FromReal(0.5 * (lo.Real() + hi.Real())), nil
		}
		mid := lo.FromReal(0.5 * (lo.Real() + hi.Real()))
		fm, err := f(mid)
		if err != nil {
			return zero, err
		}
		if fm.Real() == 0 {
			return mid, nil
		}
		if sign(fm.Real()) == sign(flo.Real()) {
			lo, flo = mid, fm
		} else {
			hi, fhi = mid, fm
		}
	}
	return zero, eventode.ErrRootNotBracketed
}

var _ eventode.RootSolver[state.Real] = Bisection[state.Real]{}

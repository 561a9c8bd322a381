// Package solve provides reference bracketing root solvers for
// eventode.EventDetector.Solver — the root-finding primitive the core
// spec declares an external collaborator.
package solve

import (
	"fmt"
	"math"

	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/state"
)

// Illinois is the regula-falsi variant that halves the stale
// endpoint's function value on each step, avoiding the one-sided
// convergence plain regula falsi suffers from when one bracket
// endpoint never moves. It requires f(lo) and f(hi) to have opposite
// sign.
type Illinois[S state.Scalar[S]] struct {
	// AbsTolerance bounds |hi-lo| at convergence. Zero means "use the
	// default", 1e-12.
	AbsTolerance float64
}

func (m Illinois[S]) tolerance() float64 {
	if m.AbsTolerance > 0 {
		return m.AbsTolerance
	}
	return 1e-12
}

// Solve brackets a root of f within [lo, hi] to m's configured
// accuracy, failing with eventode.ErrRootNotBracketed if f(lo) and
// f(hi) share a sign or maxIter is exhausted first.
func (m Illinois[S]) Solve(f func(S) (S, error), lo, hi S, maxIter int) (S, error) {
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

	staleLo, staleHi := 0, 0
	tol := m.tolerance()
	for i := 0; i < maxIter; i++ {
		denom := fhi.Real() - flo.Real()
		frac := flo.Real() / denom
		mid := lo.FromReal(lo.Real() - frac*(hi.Real()-lo.Real()))
		fm, err := f(mid)
		if err != nil {
			return zero, err
		}
		if fm.Real() == 0 || math.Abs(hi.Real()-lo.Real()) <= tol {
			return mid, nil
		}
		if sign(fm.Real()) == sign(flo.Real()) {
			lo, flo = mid, fm
			staleLo++
			staleHi = 0
			if staleLo > 1 {
				fhi = fhi.FromReal(fhi.Real() / 2)
			}
		} else {
			hi, fhi = mid, fm
			staleHi++
			staleLo = 0
			if staleHi > 1 {
				flo = flo.FromReal(flo.Real() / 2)
			}
		}
	}
	return zero, eventode.ErrRootNotBracketed
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

var _ eventode.RootSolver[state.Real] = Illinois[state.Real]{}

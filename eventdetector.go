package eventode

import "github.com/ode-core/eventode/state"

// RootSolver is the bracketing univariate solver an EventDetector uses
// to locate a sign change to its own absolute accuracy (§6). The
// reference implementations (bisection, Illinois) live in
// eventode/solve.
type RootSolver[S state.Scalar[S]] interface {
	// Solve brackets a root of f within [lo, hi], where f(lo) and f(hi)
	// have opposite sign, returning it to the solver's configured
	// accuracy. It fails with ErrRootNotBracketed if maxIter is
	// exhausted first.
	Solve(f func(S) (S, error), lo, hi S, maxIter int) (S, error)
}

// EventDetector is the user-supplied contract an EventState wraps (§6):
// a continuous sign function g, a cadence at which it must be sampled
// inside a step, a root solver and iteration budget, and a handler
// invoked once a root is found.
//
// G (and, less commonly, the other fields) may be reassigned by an
// EventHandler belonging to a *different* detector — this is how one
// event's handler perturbs another detector's trajectory mid-step
// (§4.3, §9): the EventState machinery re-samples G through the
// pointer on every call, so a handler-installed replacement takes
// effect immediately.
type EventDetector[S state.Scalar[S]] struct {
	Label            string
	G                func(state.StateAndDerivative[S]) (S, error)
	MaxCheckInterval S
	Solver           RootSolver[S]
	MaxIterations    int
	Handle           EventHandler[S]
}

package eventode

import "github.com/ode-core/eventode/state"

// Interpolator is the dense-output object produced by a Stepper for one
// accepted step: it evaluates the state at any interior time and can be
// restricted to a sub-interval of the step (§2 component 4). Concrete
// scheme-specific interpolators (e.g. RK dense output) are external
// collaborators; the reference ones live in eventode/rk.
type Interpolator[S state.Scalar[S]] interface {
	// Bounds returns the interval this interpolator currently covers,
	// in the order it was produced (prev, curr) — tA <= tB for a
	// forward integration, tA >= tB for backward.
	Bounds() (tA, tB S)

	// Forward reports the direction of the underlying integration.
	Forward() bool

	// Evaluate returns the state and derivative at t, which must lie
	// within (or on) Bounds.
	Evaluate(t S) (state.StateAndDerivative[S], error)

	// Restrict returns an interpolator covering [tA, tB] (closed,
	// direction-respecting), without recomputing the underlying dense
	// output. Restricting an already-restricted interval to the same
	// bounds is idempotent (§8).
	Restrict(tA, tB S) Interpolator[S]
}

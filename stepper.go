package eventode

import "github.com/ode-core/eventode/state"

// Stepper is the concrete scheme supplied by an external collaborator
// (§6): it proposes one step of the ODE flow from "from" and returns
// both the accepted state-and-derivative and a dense interpolator
// covering the step, restrictable over [from.Time(), to.Time()].
//
// Reference implementations (fixed-step RK4, embedded RKF45, a
// Newton-Raphson implicit corrector) live in eventode/rk.
type Stepper[S state.Scalar[S]] interface {
	Propose(ode *ExpandableODE[S], from state.StateAndDerivative[S], tEnd S) (to state.StateAndDerivative[S], interp Interpolator[S], err error)
}

package eventode

import (
	"github.com/ode-core/eventode/state"
)

// FirstOrderODE is the primary right-hand side: the system whose local
// error governs step size. Its derivative is inserted last into the
// composite vector so a secondary system may legitimately rewrite it
// (§4.2).
type FirstOrderODE[S state.Scalar[S]] interface {
	Dim() int
	Init(t0 S, y0 []S, tFinal S) error
	RHS(t S, y []S) ([]S, error)
}

// SecondaryODE rides along with the primary system without influencing
// its error control (e.g. a sensitivity/co-state matrix). It reads the
// primary state and derivative read-only and may return a derivative
// for its own block only — unless it deliberately overrides ẏP, which
// the composition order makes explicit (§4.2 rationale).
type SecondaryODE[S state.Scalar[S]] interface {
	Dim() int
	Init(t0 S, yP0, yS0 []S, tFinal S) error
	RHS(t S, yP, dyP, yS []S) ([]S, error)
}

// ExpandableODE is the composite right-hand side: one primary system
// plus an ordered list of secondary systems, with the mapper that
// tracks their block offsets (§2 component 3, §4.2).
type ExpandableODE[S state.Scalar[S]] struct {
	primary     FirstOrderODE[S]
	secondaries []SecondaryODE[S]
	mapper      *Mapper[S]
	counter     *Incrementor
}

// NewExpandableODE creates a composite ODE around a primary system.
// Secondary systems must be added with AddSecondary before Integrate is
// called; the mapper is append-only thereafter.
func NewExpandableODE[S state.Scalar[S]](primary FirstOrderODE[S]) *ExpandableODE[S] {
	return &ExpandableODE[S]{
		primary: primary,
		mapper:  NewMapper[S](primary.Dim()),
	}
}

// AddSecondary registers a secondary equation and returns its 1-based
// index.
func (e *ExpandableODE[S]) AddSecondary(s SecondaryODE[S]) int {
	e.secondaries = append(e.secondaries, s)
	return e.mapper.AddSecondary(s.Dim())
}

// Mapper returns the mapper reflecting all registered equations.
func (e *ExpandableODE[S]) Mapper() *Mapper[S] { return e.mapper }

// Dimension returns D, the total width of the concatenated state
// vector.
func (e *ExpandableODE[S]) Dimension() int { return e.mapper.Dimension() }

// attachCounter wires an evaluation budget that ComputeDerivatives
// checks on every call. Called by Integrator at the start of Integrate;
// nil disables the check (used by tests exercising the ODE in
// isolation).
func (e *ExpandableODE[S]) attachCounter(c *Incrementor) { e.counter = c }

// Init calls the primary's Init, then each secondary's Init in
// registration order (§4.2).
func (e *ExpandableODE[S]) Init(t0 S, s0 state.State[S], tFinal S) error {
	yP0 := s0.Primary()
	if err := e.primary.Init(t0, yP0, tFinal); err != nil {
		return callbackError("ode.Init(primary)", err)
	}
	for i, sec := range e.secondaries {
		yS0 := s0.Secondary(i + 1)
		if err := sec.Init(t0, yP0, yS0, tFinal); err != nil {
			return callbackError("ode.Init(secondary)", err)
		}
	}
	return nil
}

// ComputeDerivatives implements the composition algorithm of §4.2:
// extract yP, compute ẏP, then for each secondary in registration
// order extract ySk and compute ẏSk from (t, yP, ẏP, ySk), and finally
// insert ẏP last so a secondary's override of it is explicit.
func (e *ExpandableODE[S]) ComputeDerivatives(t S, y []S) ([]S, error) {
	if e.counter != nil {
		if err := e.counter.Increment(); err != nil {
			return nil, err
		}
	}
	if len(y) != e.mapper.Dimension() {
		return nil, ErrDimensionMismatch
	}
	dy := make([]S, e.mapper.Dimension())

	yP, err := e.mapper.Extract(0, y)
	if err != nil {
		return nil, err
	}
	dyP, err := e.primary.RHS(t, yP)
	if err != nil {
		return nil, callbackError("ode.RHS(primary)", err)
	}

	for i, sec := range e.secondaries {
		index := i + 1
		ySk, err := e.mapper.Extract(index, y)
		if err != nil {
			return nil, err
		}
		dySk, err := sec.RHS(t, yP, dyP, ySk)
		if err != nil {
			return nil, callbackError("ode.RHS(secondary)", err)
		}
		if err := e.mapper.Insert(index, dySk, dy); err != nil {
			return nil, err
		}
	}

	if err := e.mapper.Insert(0, dyP, dy); err != nil {
		return nil, err
	}
	return dy, nil
}

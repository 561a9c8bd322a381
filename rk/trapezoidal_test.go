package rk_test

import (
	"math"
	"testing"

	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/rk"
	"github.com/ode-core/eventode/state"
)

type linearDecay struct{ rate state.Real }

func (linearDecay) Dim() int { return 1 }
func (linearDecay) Init(t0 state.Real, y0 []state.Real, tFinal state.Real) error { return nil }
func (d linearDecay) RHS(t state.Real, y []state.Real) ([]state.Real, error) {
	return []state.Real{d.rate * y[0]}, nil
}

func TestTrapezoidalSolvesLinearStepExactly(t *testing.T) {
	// For a linear RHS the Newton corrector reproduces the trapezoidal
	// update exactly, up to its own tolerance, since the residual is
	// itself linear in y.
	ode := eventode.NewExpandableODE[state.Real](linearDecay{rate: -2})
	y0 := []state.Real{1}
	dy0, _ := ode.ComputeDerivatives(0, y0)
	s0, _ := ode.Mapper().MapStateAndDerivative(0, y0, dy0)

	stepper := rk.Trapezoidal{Tolerance: 1e-12, MaxIterations: 20}
	to, _, err := stepper.Propose(ode, s0, 0.1)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	// Closed form for the trapezoidal-rule update of y' = r*y:
	// y1 = y0 * (1 + h*r/2) / (1 - h*r/2).
	h, r := 0.1, -2.0
	want := 1.0 * (1 + h*r/2) / (1 - h*r/2)
	if got := float64(to.Primary()[0]); math.Abs(got-want) > 1e-9 {
		t.Fatalf("y1 = %v, want %v", got, want)
	}
}

func TestTrapezoidalPropagatesCallbackError(t *testing.T) {
	ode := eventode.NewExpandableODE[state.Real](failingRHS{})
	y0 := []state.Real{1}
	s0, _ := ode.Mapper().MapStateAndDerivative(0, y0, []state.Real{0})

	stepper := rk.Trapezoidal{}
	_, _, err := stepper.Propose(ode, s0, 1)
	if err == nil {
		t.Fatal("expected an error from a failing RHS")
	}
}

type failingRHS struct{}

func (failingRHS) Dim() int { return 1 }
func (failingRHS) Init(t0 state.Real, y0 []state.Real, tFinal state.Real) error { return nil }
func (failingRHS) RHS(t state.Real, y []state.Real) ([]state.Real, error) {
	return nil, errAlwaysFails
}

var errAlwaysFails = errDummy("rhs always fails")

type errDummy string

func (e errDummy) Error() string { return string(e) }

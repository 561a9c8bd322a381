package rk_test

import (
	"math"
	"testing"

	"github.com/ode-core/eventode"
	"github.com/ode-core/eventode/rk"
	"github.com/ode-core/eventode/state"
)

type harmonic struct{}

func (harmonic) Dim() int { return 2 }
func (harmonic) Init(t0 state.Real, y0 []state.Real, tFinal state.Real) error { return nil }
func (harmonic) RHS(t state.Real, y []state.Real) ([]state.Real, error) {
	return []state.Real{y[1], -y[0]}, nil
}

func TestEmbeddedAdaptsAcrossCalls(t *testing.T) {
	ode := eventode.NewExpandableODE[state.Real](harmonic{})
	y0 := []state.Real{0, 1}
	dy0, _ := ode.ComputeDerivatives(0, y0)
	s0, _ := ode.Mapper().MapStateAndDerivative(0, y0, dy0)

	stepper := &rk.Embedded{
		AbsTolerance: 1e-10,
		StepMin:      1e-8,
		StepMax:      1,
		InitialStep:  0.2,
	}

	current := s0
	for i := 0; i < 500; i++ {
		to, _, err := stepper.Propose(ode, current, 6.28318530718)
		if err != nil {
			t.Fatalf("Propose step %d: %v", i, err)
		}
		current = to
		if math.Abs(current.Time().Real()-6.28318530718) < 1e-9 {
			break
		}
	}

	if math.Abs(float64(current.Primary()[0])-math.Sin(2*math.Pi)) > 1e-6 {
		t.Fatalf("y0(2pi) = %v, want ~0", current.Primary()[0])
	}
	if math.Abs(float64(current.Primary()[1])-math.Cos(2*math.Pi)) > 1e-6 {
		t.Fatalf("y1(2pi) = %v, want ~1", current.Primary()[1])
	}
}

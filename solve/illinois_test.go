package solve_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ode-core/eventode/solve"
	"github.com/ode-core/eventode/state"
)

func linearRoot(t state.Real) (state.Real, error) {
	return t - 3, nil
}

func TestIllinoisBracketsLinearRoot(t *testing.T) {
	solver := solve.Illinois[state.Real]{AbsTolerance: 1e-12}
	root, err := solver.Solve(linearRoot, 0, 10, 100)
	require.NoError(t, err)
	require.InDelta(t, 3.0, float64(root), 1e-9)
}

func TestIllinoisRejectsUnbracketedInterval(t *testing.T) {
	solver := solve.Illinois[state.Real]{}
	_, err := solver.Solve(linearRoot, 4, 10, 100)
	require.Error(t, err)
}

func TestBisectionBracketsLinearRoot(t *testing.T) {
	solver := solve.Bisection[state.Real]{AbsTolerance: 1e-10}
	root, err := solver.Solve(linearRoot, 0, 10, 200)
	require.NoError(t, err)
	require.InDelta(t, 3.0, float64(root), 1e-8)
}

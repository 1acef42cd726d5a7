package qp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSolveUnconstrainedMinimumMatchesClosedForm checks Solve against
// min 0.5*(x0^2+x1^2) - 2*x0 - 4*x1 with loose enough bounds that the
// box/general constraints never bind: the minimizer is x=(2,4).
func TestSolveUnconstrainedMinimumMatchesClosedForm(t *testing.T) {
	var p Problem
	p.SetDimensions(2, 0)
	p.Q[0][0], p.Q[1][1] = 1, 1
	p.D[0], p.D[1] = -2, -4

	require.NoError(t, p.Solve())
	require.InDelta(t, 2, p.X[0], 1e-6)
	require.InDelta(t, 4, p.X[1], 1e-6)
}

// TestSolveRespectsABindingUpperBound checks that a tight XU clips the
// solution to the bound rather than the unconstrained optimum.
func TestSolveRespectsABindingUpperBound(t *testing.T) {
	var p Problem
	p.SetDimensions(1, 0)
	p.Q[0][0] = 1
	p.D[0] = -2
	p.SetBounds(0, -1e9, 1)

	require.NoError(t, p.Solve())
	require.InDelta(t, 1, p.X[0], 1e-6)
}

// TestSolveRespectsAGeneralInequality checks a general half-plane
// constraint x0+x1 <= 3 binds when the unconstrained optimum (2,4)
// violates it.
func TestSolveRespectsAGeneralInequality(t *testing.T) {
	var p Problem
	p.SetDimensions(2, 1)
	p.Q[0][0], p.Q[1][1] = 1, 1
	p.D[0], p.D[1] = -2, -4
	p.SetInequalityRow(0, []float64{1, 1}, 3)

	require.NoError(t, p.Solve())
	require.LessOrEqual(t, p.X[0]+p.X[1], 3+1e-6)
}

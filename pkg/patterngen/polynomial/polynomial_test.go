package polynomial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFitDegree3BoundaryConditions(t *testing.T) {
	b := Boundary{P0: 0.1, V0: 0.2, P1: 0.5, V1: 0.0}
	T := 0.7

	p := FitDegree3(b, T)

	require.InDelta(t, b.P0, p.Value(0), 1e-12)
	require.InDelta(t, b.V0, p.Derivative(0), 1e-12)
	require.InDelta(t, b.P1, p.Value(T), 1e-9)
	require.InDelta(t, b.V1, p.Derivative(T), 1e-9)
}

func TestFitDegree5BoundaryConditions(t *testing.T) {
	b := Boundary{P0: 0, V0: 0, A0: 0, P1: 0.05, V1: 0, A1: 0}
	T := 0.35

	p := FitDegree5(b, T)

	require.InDelta(t, b.P0, p.Value(0), 1e-12)
	require.InDelta(t, b.V0, p.Derivative(0), 1e-12)
	require.InDelta(t, b.A0, p.SecondDerivative(0), 1e-9)
	require.InDelta(t, b.P1, p.Value(T), 1e-9)
	require.InDelta(t, b.V1, p.Derivative(T), 1e-9)
	require.InDelta(t, b.A1, p.SecondDerivative(T), 1e-7)
}

func TestFitDegree4BoundaryConditions(t *testing.T) {
	b := Boundary{P0: 0, V0: 0.1, A0: 0.2, P1: 0.4, V1: 0.05}
	T := 0.5

	p := FitDegree4(b, T)

	require.InDelta(t, b.P0, p.Value(0), 1e-12)
	require.InDelta(t, b.V0, p.Derivative(0), 1e-12)
	require.InDelta(t, b.A0, p.SecondDerivative(0), 1e-9)
	require.InDelta(t, b.P1, p.Value(T), 1e-9)
	require.InDelta(t, b.V1, p.Derivative(T), 1e-9)
}

func TestFitCollapsesToConstantForTinyDuration(t *testing.T) {
	b := Boundary{P0: 1.23, V0: 5, P1: 9, V1: 3}
	p := FitDegree3(b, 1e-12)

	require.Equal(t, 1.23, p.Value(0))
	require.Equal(t, 1.23, p.Value(0.5))
	require.Equal(t, 0.0, p.Derivative(0.3))
}

func TestClampRestrictsToInterval(t *testing.T) {
	require.Equal(t, 0.0, Clamp(-1, 2))
	require.Equal(t, 2.0, Clamp(3, 2))
	require.Equal(t, 1.5, Clamp(1.5, 2))
}

func TestIsNearZero(t *testing.T) {
	require.True(t, IsNearZero(1e-15))
	require.False(t, IsNearZero(0.001))
}

func TestValueMatchesHandRolledHorner(t *testing.T) {
	p := Polynomial{Coeffs: []float64{1, 2, 3, 4}}
	got := p.Value(0.5)
	want := 1 + 2*0.5 + 3*math.Pow(0.5, 2) + 4*math.Pow(0.5, 3)
	require.InDelta(t, want, got, 1e-12)
}

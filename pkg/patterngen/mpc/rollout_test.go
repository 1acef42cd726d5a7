package mpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRolloutMatchesTheClosedFormEntries(t *testing.T) {
	r := NewRollout(3, 0.1, 0.08)

	// Uvel[i][j] = (2(i-j)+1)*T^2/2, lower triangular.
	require.InDelta(t, 0.005, r.Uvel[0][0], 1e-12)
	require.InDelta(t, 0.015, r.Uvel[1][0], 1e-12)
	require.InDelta(t, 0.005, r.Uvel[1][1], 1e-12)
	require.Zero(t, r.Uvel[0][1])
	require.Zero(t, r.Uvel[0][2])

	// Scop[i] = (1, (i+1)T, ((i+1)T)^2/2 - h/g).
	require.Equal(t, []float64{1, 0.1, 0.1*0.1/2 - 0.08}, r.Scop[0])
	require.Equal(t, []float64{1, 0.2, 0.2*0.2/2 - 0.08}, r.Scop[1])

	// Ucop[i][j] = (1+3(i-j)+3(i-j)^2)*T^3/6 - T*h/g, lower triangular.
	want00 := 1*0.1*0.1*0.1/6 - 0.1*0.08
	require.InDelta(t, want00, r.Ucop[0][0], 1e-12)
	require.Zero(t, r.Ucop[0][1])
}

func TestGramIsSymmetricAndMatchesBruteForce(t *testing.T) {
	u := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	g := gram(u)
	require.Len(t, g, 2)
	require.InDelta(t, 1*1+3*3+5*5, g[0][0], 1e-12)
	require.InDelta(t, 1*2+3*4+5*6, g[0][1], 1e-12)
	require.InDelta(t, g[0][1], g[1][0], 1e-12)
	require.InDelta(t, 2*2+4*4+6*6, g[1][1], 1e-12)
}

func TestMatTVecAndMatVecRoundTrip(t *testing.T) {
	u := [][]float64{{1, 0}, {0, 1}, {1, 1}}
	v := []float64{2, 3, 4}
	require.Equal(t, []float64{6, 7}, matTVec(u, v))

	w := []float64{5, 6}
	require.Equal(t, []float64{5, 6, 11}, matVec(u, w))
}

func TestAddIntoAndAddVecIntoAccumulate(t *testing.T) {
	dst := [][]float64{{1, 1}, {1, 1}}
	src := [][]float64{{2, 2}, {2, 2}}
	addInto(dst, src, 0.5)
	require.Equal(t, [][]float64{{2, 2}, {2, 2}}, dst)

	dv := []float64{1, 1}
	addVecInto(dv, []float64{2, 4}, 2)
	require.Equal(t, []float64{5, 9}, dv)
}

package analytical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func twoIntervalTrajectory() AxisTrajectory {
	return AxisTrajectory{Intervals: []Interval{
		{Duration: 1.0, Omega: 3.0, A: 0.1, B: -0.2, C0: 0.0, C1: 0.0, C2: 0.0},
		{Duration: 0.5, Omega: 3.0, A: 0.05, B: 0.1, C0: 0.1, C1: 0.2, C2: -0.05},
	}}
}

func TestLocateClampsToFirstIntervalForNegativeTime(t *testing.T) {
	tr := twoIntervalTrajectory()
	idx, local := tr.locate(-1)
	require.Equal(t, 0, idx)
	require.Equal(t, 0.0, local)
}

func TestLocateClampsToLastIntervalPastEnd(t *testing.T) {
	tr := twoIntervalTrajectory()
	idx, local := tr.locate(10)
	require.Equal(t, 1, idx)
	require.InDelta(t, 0.5, local, 1e-12)
}

func TestLocateFindsTheSecondInterval(t *testing.T) {
	tr := twoIntervalTrajectory()
	idx, local := tr.locate(1.2)
	require.Equal(t, 1, idx)
	require.InDelta(t, 0.2, local, 1e-12)
}

func TestDurationSumsAllIntervals(t *testing.T) {
	tr := twoIntervalTrajectory()
	require.InDelta(t, 1.5, tr.Duration(), 1e-12)
}

func TestIntervalAccelerationMatchesHyperbolicCurvature(t *testing.T) {
	iv := Interval{Duration: 1, Omega: 2, A: 1, B: 0.5, C0: 0, C1: 0, C2: 0.3}
	// x(t) = C0+C1 t+C2 t^2 + A cosh(wt) + B sinh(wt)
	// x''(t) = 2C2 + w^2 (A cosh(wt) + B sinh(wt))
	t0 := 0.4
	want := 2*iv.C2 + iv.Omega*iv.Omega*(iv.A*math.Cosh(iv.Omega*t0)+iv.B*math.Sinh(iv.Omega*t0))
	require.InDelta(t, want, iv.Acceleration(t0), 1e-12)
}

func TestZMPIsTheQuadraticParticularTerm(t *testing.T) {
	iv := Interval{C0: 1, C1: 2, C2: 3}
	require.InDelta(t, 1+2*0.5+3*0.25, iv.ZMP(0.5), 1e-12)
	require.InDelta(t, 2+2*3*0.5, iv.ZMPVelocity(0.5), 1e-12)
}

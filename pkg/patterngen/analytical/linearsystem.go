package analytical

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/itohio/walkgen/pkg/patterngen"
)

// unknownsPerInterval is the per-interval block width: the CoM
// hyperbolic weights (A, B) plus the ZMP quadratic's three coefficients
// (C0, C1, C2).
const unknownsPerInterval = 5

// CompactParameters is an alias for the shared CTIP type (spec.md
// section 4.4): ZMPProfile holds one reference level per interval, and
// the boundary between interval j-1 and j targets ZMPProfile[j-1] at j's
// start and ZMPProfile[j] at (j-1)'s end, so the quadratic ZMP segments
// ease from one level to the next instead of jumping.
type CompactParameters = patterngen.CompactTrajectoryInstanceParameters

// LinearSystem owns the banded Z matrix, its LU factorization, and the
// interval geometry (Durations, Omegas) it was built from. Z depends
// only on the interval geometry, never on the boundary values in a
// CompactParameters, so building it once and re-solving for many right
// hand sides is the whole point of the design (spec.md section 4.4).
type LinearSystem struct {
	Durations []float64
	Omegas    []float64

	z     *mat.Dense
	lu    mat.LU
	dirty bool
}

// NewLinearSystem builds an (uninitialized) linear system for M
// intervals with the given durations and pulsations.
func NewLinearSystem(durations, omegas []float64) *LinearSystem {
	return &LinearSystem{
		Durations: append([]float64(nil), durations...),
		Omegas:    append([]float64(nil), omegas...),
		dirty:     true,
	}
}

// M returns the number of intervals.
func (ls *LinearSystem) M() int { return len(ls.Durations) }

func (ls *LinearSystem) dim() int { return unknownsPerInterval * ls.M() }

func col(j int) int { return unknownsPerInterval * j }

// Build assembles Z from the current Durations/Omegas and factorizes it.
// It is idempotent for a fixed (Durations, Omegas) pair; call it again
// after ConstraintsChange edits the geometry (the m_NeedToReset flag of
// spec.md section 4.4).
func (ls *LinearSystem) Build() error {
	M := ls.M()
	n := ls.dim()
	z := mat.NewDense(n, n, nil)

	add := func(row, j, idx int, v float64) {
		z.Set(row, col(j)+idx, z.At(row, col(j)+idx)+v)
	}

	row := 0
	// ZMP boundary-start rows: interval j (j=1..M-1) begins at the
	// previous interval's reference level.
	for j := 1; j < M; j++ {
		add(row, j, 2, 1)
		row++
	}
	// ZMP boundary-end rows: interval j (j=0..M-2) ends at the next
	// interval's reference level.
	for j := 0; j < M-1; j++ {
		T := ls.Durations[j]
		add(row, j, 2, 1)
		add(row, j, 3, T)
		add(row, j, 4, T*T)
		row++
	}
	// CoM C2 continuity across every interior boundary.
	for j := 0; j < M-1; j++ {
		T := ls.Durations[j]
		w := ls.Omegas[j]
		wn := ls.Omegas[j+1]
		chT, shT := math.Cosh(w*T), math.Sinh(w*T)

		// position
		add(row, j, 0, chT)
		add(row, j, 1, shT)
		add(row, j, 2, 1)
		add(row, j, 3, T)
		add(row, j, 4, T*T)
		add(row, j+1, 0, -1)
		add(row, j+1, 2, -1)
		row++

		// velocity
		add(row, j, 0, w*shT)
		add(row, j, 1, w*chT)
		add(row, j, 3, 1)
		add(row, j, 4, 2*T)
		add(row, j+1, 1, -wn)
		add(row, j+1, 3, -1)
		row++

		// acceleration
		add(row, j, 0, w*w*chT)
		add(row, j, 1, w*w*shT)
		add(row, j, 4, 2)
		add(row, j+1, 0, -wn*wn)
		add(row, j+1, 4, -2)
		row++
	}
	// Initial CoM position and velocity, final CoM position.
	{
		w0 := ls.Omegas[0]
		add(row, 0, 0, 1)
		add(row, 0, 2, 1)
		row++
		add(row, 0, 1, w0)
		add(row, 0, 3, 1)
		row++

		last := M - 1
		T := ls.Durations[last]
		w := ls.Omegas[last]
		chT, shT := math.Cosh(w*T), math.Sinh(w*T)
		add(row, last, 0, chT)
		add(row, last, 1, shT)
		add(row, last, 2, 1)
		add(row, last, 3, T)
		add(row, last, 4, T*T)
		row++
	}
	// ZMP initial and final velocity are zero.
	{
		add(row, 0, 3, 1)
		row++
		last := M - 1
		T := ls.Durations[last]
		add(row, last, 3, 1)
		add(row, last, 4, 2*T)
		row++
	}

	if row != n {
		return patterngen.ErrSingularSystem
	}

	ls.z = z
	ls.lu.Factorize(z)
	ls.dirty = false
	return nil
}

// computeW builds the right-hand side vector for a CompactParameters in
// the exact row order Build lays out.
func (ls *LinearSystem) computeW(p CompactParameters) *mat.VecDense {
	M := ls.M()
	n := ls.dim()
	w := mat.NewVecDense(n, nil)
	row := 0
	for j := 1; j < M; j++ {
		w.SetVec(row, p.ZMPProfile[j-1])
		row++
	}
	for j := 0; j < M-1; j++ {
		w.SetVec(row, p.ZMPProfile[j+1])
		row++
	}
	for j := 0; j < M-1; j++ {
		w.SetVec(row, 0)
		row++
		w.SetVec(row, 0)
		row++
		w.SetVec(row, 0)
		row++
	}
	w.SetVec(row, p.InitialCoMPosition)
	row++
	w.SetVec(row, p.InitialCoMVelocity)
	row++
	w.SetVec(row, p.FinalCoMPosition)
	row++
	w.SetVec(row, 0)
	row++
	w.SetVec(row, 0)
	row++
	return w
}

// Solve computes the per-interval weights for the given boundary
// parameters using the cached LU factorization (ComputePolynomialWeights
// in spec.md section 4.4), and returns the assembled AxisTrajectory
// (TransfertTheCoefficientsToTrajectories).
func (ls *LinearSystem) Solve(p CompactParameters) (AxisTrajectory, error) {
	if ls.dirty || ls.z == nil {
		if err := ls.Build(); err != nil {
			return AxisTrajectory{}, err
		}
	}
	if len(p.ZMPProfile) != ls.M() {
		return AxisTrajectory{}, patterngen.ErrMissingFootDimensions
	}

	w := ls.computeW(p)
	var x mat.VecDense
	if err := ls.lu.SolveVecTo(&x, false, w); err != nil {
		return AxisTrajectory{}, patterngen.ErrSingularSystem
	}

	intervals := make([]Interval, ls.M())
	for j := range intervals {
		base := col(j)
		intervals[j] = Interval{
			Duration: ls.Durations[j],
			Omega:    ls.Omegas[j],
			A:        x.AtVec(base + 0),
			B:        x.AtVec(base + 1),
			C0:       x.AtVec(base + 2),
			C1:       x.AtVec(base + 3),
			C2:       x.AtVec(base + 4),
		}
	}
	return AxisTrajectory{Intervals: intervals}, nil
}

// MarkDirty forces the next Solve to rebuild and refactorize Z, for
// callers that have changed Durations or Omegas in place (an interval
// count, degree, or height change, per spec.md section 4.4's
// m_NeedToReset).
func (ls *LinearSystem) MarkDirty() { ls.dirty = true }

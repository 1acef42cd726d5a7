package mpc

import (
	"github.com/itohio/walkgen/pkg/patterngen"
	"github.com/itohio/walkgen/pkg/patterngen/qp"
	"github.com/itohio/walkgen/pkg/patterngen/support"
)

// Weights are the three terms of the MPC objective (spec.md section
// 4.8): jerk minimization, velocity tracking, CoP centering.
type Weights struct {
	Alpha, Beta, Gamma float64
}

// DefaultWeights returns the nominal objective weights from spec.md
// section 6, in the same order of magnitude as the original source's
// jerk/velocity/CoP weighting (heavy velocity tracking, light jerk and
// CoP regularization so the CoP term only breaks ties between otherwise
// equally good velocity-tracking solutions).
func DefaultWeights() Weights {
	return Weights{Alpha: 1e-6, Beta: 1, Gamma: 1e-4}
}

// Invariant holds the part of the QP's Hessian that depends only on
// (N, S, T, h/g, weights) and never changes tick to tick: buildInvariantPart
// in spec.md section 4.8.
type Invariant struct {
	N, S    int
	Rollout Rollout
	Weights Weights

	// QJJ is the N x N jerk-jerk block shared by both axes:
	// alpha*I + beta*Uvel^T Uvel + gamma*Ucop^T Ucop.
	QJJ [][]float64
}

// BuildInvariantPart assembles the jerk-jerk Hessian block once, so
// UpdateProblem only has to copy it into the per-tick Problem and fill
// in the state-dependent blocks every control sample (spec.md section
// 4.8: "this split is essential for real-time determinism").
func BuildInvariantPart(N, S int, T, hOverG float64, w Weights) Invariant {
	r := NewRollout(N, T, hOverG)
	qjj := make([][]float64, N)
	for i := range qjj {
		qjj[i] = make([]float64, N)
		qjj[i][i] = w.Alpha
	}
	addInto(qjj, gram(r.Uvel), w.Beta)
	addInto(qjj, gram(r.Ucop), w.Gamma)
	return Invariant{N: N, S: S, Rollout: r, Weights: w, QJJ: qjj}
}

// axisOffsets is the decision vector layout: jerkX(N), jerkY(N), Fx(S),
// Fy(S), total 2N + 2S (spec.md section 4.8).
type axisOffsets struct {
	jerkX, jerkY, fx, fy int
}

func (inv Invariant) offsets() axisOffsets {
	return axisOffsets{jerkX: 0, jerkY: inv.N, fx: 2 * inv.N, fy: 2*inv.N + inv.S}
}

// dim returns the total decision vector size, 2N + 2S.
func (inv Invariant) dim() int {
	return 2*inv.N + 2*inv.S
}

// TickContext is everything UpdateProblem needs that changes tick to
// tick: the CoM state at the start of the horizon, the reference
// velocity rotated into world frame per sample, the predicted support
// schedule, and the nominal orientation/geometry used to build the
// half-plane constraints.
type TickContext struct {
	C0X, C0Y [3]float64 // position, velocity, acceleration
	RefVelX, RefVelY []float64 // N-length, world frame, one per preview sample
	Schedule []previewSample
	Cadence  []footCadence

	StanceX, StanceY, StanceYaw float64
	StanceFoot                  patterngen.Foot

	Ineq *support.Inequalities
}

// UpdateProblem fills prob with the full per-tick QP: the invariant
// jerk-jerk block, the state-dependent jerk-foot/foot-foot coupling from
// the CoP-centering term, the velocity-tracking and CoP-centering
// linear terms, and the CoP/foothold half-plane constraint rows
// (spec.md section 4.8).
func UpdateProblem(prob *qp.Problem, inv Invariant, ctx TickContext) {
	off := inv.offsets()
	n := inv.dim()

	cop := inv.Rollout.Ucop
	vel := inv.Rollout.Uvel
	scop := inv.Rollout.Scop
	svel := inv.Rollout.Svel

	copX0 := matVec(scop, ctx.C0X[:])
	copY0 := matVec(scop, ctx.C0Y[:])
	velX0 := matVec(svel, ctx.C0X[:])
	velY0 := matVec(svel, ctx.C0Y[:])

	dJerkX := make([]float64, inv.N)
	dJerkY := make([]float64, inv.N)
	addVecInto(dJerkX, matTVec(vel, diff(velX0, ctx.RefVelX)), inv.Weights.Beta)
	addVecInto(dJerkY, matTVec(vel, diff(velY0, ctx.RefVelY)), inv.Weights.Beta)

	// CoP centering: minimize gamma*(CoP - target)^2 where target is
	// either the known current stance position (decisionIdx == -1) or
	// one of the S foot decision variables (decisionIdx >= 0).
	qjf := make([][]float64, inv.N)
	for i := range qjf {
		qjf[i] = make([]float64, inv.S)
	}
	qff := make([][]float64, inv.S)
	for i := range qff {
		qff[i] = make([]float64, inv.S)
	}
	dFx := make([]float64, inv.S)
	dFy := make([]float64, inv.S)

	// Gather every constraint row before calling SetDimensions, since
	// the CoP/foothold hulls don't all have the same vertex count and
	// the total row count is only known once every sample and decided
	// foot has been visited.
	var rowCoeffs [][]float64
	var rowRHS []float64
	addRow := func(coeffs []float64, rhs float64) {
		rowCoeffs = append(rowCoeffs, coeffs)
		rowRHS = append(rowRHS, rhs)
	}

	for i := 0; i < inv.N; i++ {
		sample := ctx.Schedule[i]
		if sample.decisionIdx < 0 {
			addVecInto(dJerkX, vel0row(cop, i, copX0[i]-ctx.StanceX), inv.Weights.Gamma)
			addVecInto(dJerkY, vel0row(cop, i, copY0[i]-ctx.StanceY), inv.Weights.Gamma)

			planes := ctx.Ineq.CoPEdges(sample.state)
			for _, pl := range planes {
				rhs := pl.D - pl.A*copX0[i] - pl.B*copY0[i]
				coeffs := make([]float64, n)
				addScaledRow(coeffs, off.jerkX, cop[i], pl.A)
				addScaledRow(coeffs, off.jerkY, cop[i], pl.B)
				addRow(coeffs, rhs)
			}
			continue
		}

		s := sample.decisionIdx
		addVecInto(dJerkX, scaleRow(cop[i], copX0[i]), inv.Weights.Gamma)
		addVecInto(dJerkY, scaleRow(cop[i], copY0[i]), inv.Weights.Gamma)
		for j := 0; j < inv.N; j++ {
			qjf[j][s] += -inv.Weights.Gamma * cop[i][j]
		}
		qff[s][s] += inv.Weights.Gamma
		dFx[s] += -inv.Weights.Gamma * copX0[i]
		dFy[s] += -inv.Weights.Gamma * copY0[i]

		yaw := ctx.Cadence[s].nominalYaw
		local := ctx.Ineq.CoPPolygon(patterngen.SupportState{Foot: sample.state.Foot, Phase: sample.state.Phase, Yaw: yaw})
		planes := local.Edges(sample.state.Foot == patterngen.Right)
		for _, pl := range planes {
			rhs := pl.D - pl.A*copX0[i] - pl.B*copY0[i]
			coeffs := make([]float64, n)
			addScaledRow(coeffs, off.jerkX, cop[i], pl.A)
			addScaledRow(coeffs, off.jerkY, cop[i], pl.B)
			coeffs[off.fx+s] += -pl.A
			coeffs[off.fy+s] += -pl.B
			addRow(coeffs, rhs)
		}
	}

	// Foothold reachability: each decided foot s must lie in the
	// foothold hull relative to the previous stance (s-1's decision, or
	// the current known stance for s == 0).
	for s := 0; s < inv.S; s++ {
		prevYaw := ctx.StanceYaw
		prevStance := ctx.StanceFoot
		if s > 0 {
			prevYaw = ctx.Cadence[s-1].nominalYaw
			prevStance = ctx.Cadence[s-1].swingFoot
		}
		// Local, untranslated: the stance foot this landing is relative
		// to is itself a decision variable (or the known stance for
		// s == 0), so the hull is built at the origin and the
		// translation folded into the row's RHS/coefficients below.
		local := ctx.Ineq.FootholdPolygon(patterngen.SupportState{Foot: prevStance, Yaw: prevYaw})
		planes := local.Edges(false)

		for _, pl := range planes {
			coeffs := make([]float64, n)
			coeffs[off.fx+s] += pl.A
			coeffs[off.fy+s] += pl.B
			rhs := pl.D
			if s == 0 {
				rhs += pl.A*ctx.StanceX + pl.B*ctx.StanceY
			} else {
				coeffs[off.fx+s-1] += -pl.A
				coeffs[off.fy+s-1] += -pl.B
			}
			addRow(coeffs, rhs)
		}
	}

	prob.SetDimensions(n, len(rowCoeffs))

	prob.AddQuadraticBlock(off.jerkX, off.jerkX, inv.QJJ)
	prob.AddQuadraticBlock(off.jerkY, off.jerkY, inv.QJJ)
	prob.AddQuadraticBlock(off.jerkX, off.fx, qjf)
	prob.AddQuadraticBlock(off.fx, off.jerkX, transpose(qjf))
	prob.AddQuadraticBlock(off.jerkY, off.fy, qjf)
	prob.AddQuadraticBlock(off.fy, off.jerkY, transpose(qjf))
	prob.AddQuadraticBlock(off.fx, off.fx, qff)
	prob.AddQuadraticBlock(off.fy, off.fy, qff)

	prob.AddLinearBlock(off.jerkX, dJerkX)
	prob.AddLinearBlock(off.jerkY, dJerkY)
	prob.AddLinearBlock(off.fx, dFx)
	prob.AddLinearBlock(off.fy, dFy)

	for row, coeffs := range rowCoeffs {
		prob.SetInequalityRow(row, coeffs, rowRHS[row])
	}
}

func diff(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func scaleRow(row []float64, scalar float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v * scalar
	}
	return out
}

// vel0row returns the row scaled by a residual constant (used for the
// CoP-centering linear term against a fixed known stance position).
func vel0row(u [][]float64, i int, residual float64) []float64 {
	return scaleRow(u[i], residual)
}

func addScaledRow(dst []float64, offset int, row []float64, scale float64) {
	for j, v := range row {
		dst[offset+j] += v * scale
	}
}

func transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return nil
	}
	rows, cols := len(m), len(m[0])
	out := make([][]float64, cols)
	for i := range out {
		out[i] = make([]float64, rows)
		for j := 0; j < rows; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

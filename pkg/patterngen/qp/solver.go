package qp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/itohio/walkgen/pkg/patterngen"
)

// Solve finds the minimizer of the quadratic program and writes it into
// p.X; it returns only an error. It factors Q by Cholesky (gonum/mat.Cholesky),
// shifts to the unconstrained minimizer, and reduces the shifted,
// constrained problem to a Least Distance Programming problem solved by
// the Lawson-Hanson method in ldp.go — the same two-step reduction the
// teacher pack's mat.Cholesky/mat.NNLS/mat.LDP routines implement
// (spec.md section 4.7's "black box primal-dual solver").
func (p *Problem) Solve() error {
	n := p.n
	qSym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			qSym.SetSym(i, j, p.Q[i][j])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(qSym); !ok {
		return patterngen.ErrInfeasibleQP
	}

	var L mat.TriDense
	chol.LTo(&L)

	negD := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		negD.SetVec(i, -p.D[i])
	}
	var x0 mat.VecDense
	if err := chol.SolveVecTo(&x0, negD); err != nil {
		return patterngen.ErrInfeasibleQP
	}

	// Stack the box bounds as two rows per variable (x_i >= XL_i and
	// -x_i >= -XU_i) on top of the general constraints DU x <= DS
	// (equivalently -DU x >= -DS), matching the LDP convention "G x >= h".
	rows := p.m + 2*n
	G := make([][]float64, rows)
	h := make([]float64, rows)
	row := 0
	for i := 0; i < p.m; i++ {
		g := make([]float64, n)
		for j := 0; j < n; j++ {
			g[j] = -p.DU[i][j]
		}
		G[row], h[row] = g, -p.DS[i]
		row++
	}
	for i := 0; i < n; i++ {
		g := make([]float64, n)
		g[i] = 1
		G[row], h[row] = g, p.XL[i]
		row++
		g2 := make([]float64, n)
		g2[i] = -1
		G[row], h[row] = g2, -p.XU[i]
		row++
	}

	// Transform each constraint row g into g' solving L g' = g (forward
	// substitution), and h' = h - G x0, so the constraint reads
	// g'·y >= h' in the shifted, whitened variable y = L^T (x - x0).
	Gp := make([][]float64, rows)
	hp := make([]float64, rows)
	for i := 0; i < rows; i++ {
		Gp[i] = forwardSolveLower(&L, G[i])
		dot := 0.0
		for j := 0; j < n; j++ {
			dot += G[i][j] * x0.AtVec(j)
		}
		hp[i] = h[i] - dot
	}

	y, err := ldp(Gp, hp)
	if err != nil {
		return patterngen.ErrInfeasibleQP
	}

	// Recover x = x0 + L^-T y via backward substitution on L^T.
	dx := backSolveUpperT(&L, y)
	for i := 0; i < n; i++ {
		p.X[i] = x0.AtVec(i) + dx[i]
	}
	return nil
}

// forwardSolveLower solves L*z = b for lower-triangular L.
func forwardSolveLower(L *mat.TriDense, b []float64) []float64 {
	n := len(b)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L.At(i, j) * z[j]
		}
		diag := L.At(i, i)
		if diag == 0 {
			diag = 1e-12
		}
		z[i] = sum / diag
	}
	return z
}

// backSolveUpperT solves L^T*z = b (L^T is upper triangular) via
// backward substitution.
func backSolveUpperT(L *mat.TriDense, b []float64) []float64 {
	n := len(b)
	z := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= L.At(j, i) * z[j]
		}
		diag := L.At(i, i)
		if diag == 0 {
			diag = 1e-12
		}
		z[i] = sum / diag
	}
	return z
}

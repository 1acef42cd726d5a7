// Package qp implements the dense quadratic-program kernel the MPC core
// solves once per control tick: a box- and half-plane-constrained QP
// reduced to a Least Distance Programming problem and solved by the
// Lawson-Hanson active-set method, ported to float64 from the teacher
// pack's pkg/core/math/mat (nnls.go, householder.go, givens.go).
package qp

import "math"

// ldpMatrix is a dense row-major matrix used only by nnls/ldp, kept
// separate from Problem's own storage since nnls mutates it in place
// (it holds Householder-transformed columns by the time it returns).
type ldpMatrix [][]float64

func newLDPMatrix(rows, cols int) ldpMatrix {
	m := make(ldpMatrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

const rangeVal = 1e150

// h1 constructs a Householder transformation over column col0 starting
// at row lpivot, zeroing rows [l1, len(m)). Returns the transform
// parameter "up" consumed by h2/h3.
func (m ldpMatrix) h1(col0, lpivot, l1 int) float64 {
	rangin := 1 / rangeVal
	if lpivot < 0 || lpivot >= l1 || l1 >= len(m) {
		return 0
	}

	cl := math.Abs(m[lpivot][col0])
	for j := l1; j < len(m); j++ {
		cl = math.Max(math.Abs(m[j][col0]), cl)
	}
	if cl < rangin {
		return 0
	}

	clinv := 1 / cl
	sm := (m[lpivot][col0] * clinv) * (m[lpivot][col0] * clinv)
	for j := l1; j < len(m); j++ {
		sm += (m[j][col0] * clinv) * (m[j][col0] * clinv)
	}
	cl *= math.Sqrt(sm)
	if m[lpivot][col0] > 0 {
		cl *= -1
	}
	up := m[lpivot][col0] - cl
	m[lpivot][col0] = cl
	return up
}

// h2 applies the Householder transform from h1 to vector zz.
func (m ldpMatrix) h2(col0, lpivot, l1 int, up float64, zz []float64) {
	rangin := 1 / rangeVal
	if lpivot < 0 || lpivot >= l1 || l1 >= len(m) {
		return
	}
	cl := math.Abs(m[lpivot][col0])
	if cl <= rangin {
		return
	}
	b := up * m[lpivot][col0]
	if b > -rangin {
		return
	}
	b = 1 / b

	i2, i3, i4 := lpivot, lpivot+1, lpivot+1
	sm := zz[i2] * up
	for i := l1; i < len(m); i++ {
		sm += zz[i3] * m[i][col0]
		i3++
	}
	if sm == 0 {
		return
	}
	sm *= b
	zz[i2] += sm * up
	for i := l1; i < len(m); i++ {
		zz[i4] += sm * m[i][col0]
		i4++
	}
}

// h3 applies the Householder transform from h1 to matrix column col1.
func (m ldpMatrix) h3(col0, lpivot, l1 int, up float64, col1 int) {
	rangin := 1 / rangeVal
	if lpivot < 0 || lpivot >= l1 || l1 >= len(m) {
		return
	}
	cl := math.Abs(m[lpivot][col0])
	if cl <= rangin {
		return
	}
	b := up * m[lpivot][col0]
	if b > -rangin {
		return
	}
	b = 1 / b

	i2, i3, i4 := lpivot, lpivot+1, lpivot+1
	sm := m[i2][col1] * up
	for i := l1; i < len(m); i++ {
		sm += m[i3][col1] * m[i][col0]
		i3++
	}
	if sm == 0 {
		return
	}
	sm *= b
	m[i2][col1] += sm * up
	for i := l1; i < len(m); i++ {
		m[i4][col1] += sm * m[i][col0]
		i4++
	}
}

// givens1 computes the rotation (cs, sn) zeroing b against a.
func givens1(a, b float64) (cs, sn, sig float64) {
	sign := func(v, ref float64) float64 {
		if ref >= 0 {
			return math.Abs(v)
		}
		return -math.Abs(v)
	}
	if math.Abs(a) > math.Abs(b) {
		xr := b / a
		yr := math.Sqrt(1 + xr*xr)
		cs = sign(1/yr, a)
		sn = cs * xr
		sig = math.Abs(a) * yr
		return
	}
	if b == 0 {
		return 0, 1, 0
	}
	xr := a / b
	yr := math.Sqrt(1 + xr*xr)
	sn = sign(1/yr, b)
	cs = sn * xr
	sig = math.Abs(b) * yr
	return
}

func givens2(cs, sn float64, x, y *float64) {
	xr := cs*(*x) + sn*(*y)
	*y = -sn*(*x) + cs*(*y)
	*x = xr
}

// nnlsResult is the outcome of solving min ||Ax-b|| s.t. x >= 0.
type nnlsResult struct {
	X     []float64
	W     []float64
	RNorm float64
}

// errNNLSMaxIterations, errNNLSSingular mirror the teacher's NNLS error
// set, less ErrNNLSBadDimensions which this port's callers never hit
// (ldp always builds well-formed dimensions).
var (
	errNNLSMaxIterations = newError("qp: nnls exceeded its iteration budget")
	errNNLSSingular      = newError("qp: nnls encountered a singular triangular solve")
)

type qpErr string

func newError(msg string) error { return qpErr(msg) }
func (e qpErr) Error() string   { return string(e) }

// nnls solves min ||Ax - b|| subject to x >= 0 via the Lawson-Hanson
// active-set method. A is (m x n); both A and b are overwritten with
// Householder-transformed data on return, matching the original
// Fortran-derived algorithm this was ported from.
func nnls(A ldpMatrix, b []float64, dst *nnlsResult) error {
	m := len(A)
	n := len(A[0])

	dst.X = make([]float64, n)
	dst.W = make([]float64, n)
	zz := make([]float64, m)
	index := make([]int, n)

	for i := 0; i < n; i++ {
		index[i] = i
	}

	iz1, iz2 := 0, n-1
	nsetp := -1
	npp1 := 0
	itmax := 3 * n
	iter := 0

	for {
		if iz1 > iz2 || nsetp >= m-1 {
			break
		}

		for iz := iz1; iz <= iz2; iz++ {
			j := index[iz]
			sm := 0.0
			for l := npp1; l < m; l++ {
				sm += A[l][j] * b[l]
			}
			dst.W[j] = sm
		}

		var j int
		found := false
		var up float64
		for {
			wmax := 0.0
			izmax := -1
			for iz := iz1; iz <= iz2; iz++ {
				jTest := index[iz]
				if dst.W[jTest] > wmax {
					wmax = dst.W[jTest]
					izmax = iz
				}
			}
			if wmax <= 0 {
				goto terminate
			}

			iz := izmax
			j = index[iz]
			asave := A[npp1][j]
			up = A.h1(j, npp1, npp1+1)
			if up == 0 {
				dst.W[j] = 0
				continue
			}

			unorm := 0.0
			for l := 0; l <= nsetp; l++ {
				unorm += A[l][j] * A[l][j]
			}
			unorm = math.Sqrt(unorm)

			if unorm+math.Abs(A[npp1][j])*0.0001 > unorm {
				copy(zz, b)
				A.h2(j, npp1, npp1+1, up, zz)
				if A[npp1][j] == 0 {
					A[npp1][j] = asave
					dst.W[j] = 0
					continue
				}
				if ztest := zz[npp1] / A[npp1][j]; ztest > 0 {
					found = true
					break
				}
			}
			A[npp1][j] = asave
			dst.W[j] = 0
		}
		if !found {
			break
		}

		copy(b, zz)

		izFound := -1
		for iz := iz1; iz <= iz2; iz++ {
			if index[iz] == j {
				izFound = iz
				break
			}
		}
		index[izFound] = index[iz1]
		index[iz1] = j
		jSelected := j
		upSelected := up
		iz1++
		nsetp = npp1
		npp1++

		if iz1 <= iz2 {
			for jz := iz1; jz <= iz2; jz++ {
				jj := index[jz]
				A.h3(jSelected, nsetp, npp1, upSelected, jj)
			}
		}
		if nsetp != m-1 {
			for l := npp1; l < m; l++ {
				A[l][jSelected] = 0
			}
		}
		dst.W[jSelected] = 0

		for l := 0; l <= nsetp; l++ {
			ip := nsetp - l
			if l != 0 {
				jj := index[ip+1]
				for ii := 0; ii <= ip; ii++ {
					zz[ii] -= A[ii][jj] * zz[ip+1]
				}
			}
			jj := index[ip]
			if A[ip][jj] == 0 {
				return errNNLSSingular
			}
			zz[ip] /= A[ip][jj]
		}

		for {
			iter++
			if iter > itmax {
				return errNNLSMaxIterations
			}

			alpha := 2.0
			var blockIdx int
			for ip := 0; ip <= nsetp; ip++ {
				l := index[ip]
				if zz[ip] <= 0 {
					t := -dst.X[l] / (zz[ip] - dst.X[l])
					if alpha > t {
						alpha = t
						blockIdx = ip
					}
				}
			}
			if alpha == 2.0 {
				break
			}

			for ip := 0; ip <= nsetp; ip++ {
				l := index[ip]
				dst.X[l] += alpha * (zz[ip] - dst.X[l])
			}

			i := index[blockIdx]
			jj := blockIdx
			for {
				dst.X[i] = 0
				if jj != nsetp {
					jj++
					for jCol := jj; jCol <= nsetp; jCol++ {
						ii := index[jCol]
						index[jCol-1] = ii
						cs, sn, sig := givens1(A[jCol-1][ii], A[jCol][ii])
						A[jCol-1][ii] = sig
						A[jCol][ii] = 0
						for l := 0; l < n; l++ {
							if l != ii {
								x, y := A[jCol-1][l], A[jCol][l]
								givens2(cs, sn, &x, &y)
								A[jCol-1][l], A[jCol][l] = x, y
							}
						}
						x, y := b[jCol-1], b[jCol]
						givens2(cs, sn, &x, &y)
						b[jCol-1], b[jCol] = x, y
					}
				}
				npp1 = nsetp
				nsetp--
				iz1--
				index[iz1] = i

				stillInfeasible := false
				for k := 0; k <= nsetp; k++ {
					i = index[k]
					if dst.X[i] <= 0 {
						stillInfeasible = true
						break
					}
				}
				if !stillInfeasible {
					break
				}
			}

			copy(zz, b)
			for l := 0; l <= nsetp; l++ {
				ip := nsetp - l
				if l != 0 {
					jj := index[ip+1]
					for ii := 0; ii <= ip; ii++ {
						zz[ii] -= A[ii][jj] * zz[ip+1]
					}
				}
				jj := index[ip]
				if A[ip][jj] == 0 {
					return errNNLSSingular
				}
				zz[ip] /= A[ip][jj]
			}
		}

		for ip := 0; ip <= nsetp; ip++ {
			i := index[ip]
			dst.X[i] = zz[ip]
		}
	}

terminate:
	sm := 0.0
	if npp1 >= m {
		for j := range dst.W {
			dst.W[j] = 0
		}
	} else {
		for i := npp1; i < m; i++ {
			sm += b[i] * b[i]
		}
	}
	dst.RNorm = math.Sqrt(sm)
	return nil
}

// errLDPIncompatible signals that the half-plane/box constraint set has
// no feasible point (spec.md section 4.7's ifail != 0 convention).
var errLDPIncompatible = newError("qp: ldp constraints are incompatible")

// ldp solves min ||x|| subject to G x >= h, where G is (m x n) and h is
// length m, via Lawson-Hanson's reduction to an NNLS problem over the
// (n+1) x m matrix [G^T; h^T].
func ldp(G [][]float64, h []float64) ([]float64, error) {
	m := len(G)
	n := len(G[0])

	E := newLDPMatrix(n+1, m)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			E[j][i] = G[i][j]
		}
		E[n][i] = h[i]
	}
	f := make([]float64, n+1)
	f[n] = 1

	var res nnlsResult
	if err := nnls(E, f, &res); err != nil {
		return nil, err
	}
	if res.RNorm <= 0 {
		return nil, errLDPIncompatible
	}

	y := res.X
	fac := 1.0
	for i := 0; i < m; i++ {
		fac -= h[i] * y[i]
	}
	const eps = 1e-10
	if fac <= eps {
		return nil, errLDPIncompatible
	}
	fac = 1 / fac

	x := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			x[j] += G[i][j] * y[i]
		}
		x[j] *= fac
	}
	return x, nil
}

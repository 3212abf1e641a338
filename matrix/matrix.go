// Package matrix assembles and solves the symmetric linear system of §4.2:
// unknowns are nodal head corrections, coefficients come from link
// conductances (1/hGrad). It mirrors the Stamp/Increment/Zero shape of the
// teacher's mna/mat package, but the actual factor/solve step for the
// SparseLU backend is delegated to github.com/edp1096/sparse (a Go port of
// Berkeley SPICE's sparse linear solver, the same family of algorithm the
// teacher hand-rolled in mna/mat/lu.go) rather than reimplemented.
package matrix

import (
	"math"

	"github.com/edp1096/sparse"

	"hydrosim/network"
	"hydrosim/simerr"
	"hydrosim/units"
)

type entryKey struct{ i, j int }

// System is a reusable n x n symmetric system. Callers Stamp coefficients
// into it once per iteration, then call Solve. The coefficient map, the
// right-hand side and the sparse matrix are sized in New and reused across
// steps; each Solve call allocates its own working vectors (the LU
// right-hand side, the CG iterates).
type System struct {
	n      int
	method network.SolverMethod

	entries map[entryKey]float64 // assembled coefficients, COO form
	order   []entryKey           // stable insertion order, for tie-break

	sp *sparse.Matrix // only allocated for SolverMethod == SparseLU

	b []float64 // right-hand side, 0-based length n
}

// New allocates a System sized for n unknowns. Per spec.md §5 this sizing
// happens once, during the caller's initSolver-equivalent step.
func New(n int, method network.SolverMethod) (*System, error) {
	s := &System{
		n:       n,
		method:  method,
		entries: make(map[entryKey]float64, n*4),
		b:       make([]float64, n),
	}
	if method == network.SparseLU {
		sp, err := sparse.Create(int64(n), &sparse.Configuration{
			Real:          true,
			Expandable:    true,
			Translate:     true,
			ModifiedNodal: true,
		})
		if err != nil {
			return nil, simerr.New(simerr.System, simerr.CodeSolverNotInit, "allocate sparse matrix: %v", err)
		}
		s.sp = sp
	}
	return s, nil
}

// Zero clears all assembled coefficients and the right-hand side, without
// releasing any backing storage (spec.md §5: reuse, never reallocate).
func (s *System) Zero() {
	for k := range s.entries {
		delete(s.entries, k)
	}
	s.order = s.order[:0]
	for i := range s.b {
		s.b[i] = 0
	}
	if s.sp != nil {
		s.sp.Clear()
	}
}

// Add accumulates value into A[i][j]; repeated calls for the same (i,j) sum.
func (s *System) Add(i, j int, value float64) {
	if i < 0 || j < 0 || i >= s.n || j >= s.n {
		return
	}
	k := entryKey{i, j}
	if _, exists := s.entries[k]; !exists {
		s.order = append(s.order, k)
	}
	s.entries[k] += value
}

// AddRHS accumulates value into the right-hand side's i-th entry.
func (s *System) AddRHS(i int, value float64) {
	if i < 0 || i >= s.n {
		return
	}
	s.b[i] += value
}

// Regularize adds a small diagonal term to every node whose total incident
// conductance fell below units.MinGradient, per spec.md §4.2's numerical
// safety note. diagConductance[i] is the caller-computed sum of 1/hGrad for
// links incident on node i.
func (s *System) Regularize(diagConductance []float64) {
	for i, c := range diagConductance {
		if c < units.MinGradient {
			s.Add(i, i, units.MinGradient)
		}
	}
}

// Solve factors (if needed) and solves Ax=b, returning the solution vector.
// Tie-breaking among equally good pivots (SparseLU's partial pivoting) is
// delegated to the library, which breaks ties by lower row index — the same
// rule spec.md §4.2 requires.
func (s *System) Solve() ([]float64, error) {
	switch s.method {
	case network.ConjugateGradient:
		return s.solveCG()
	default:
		return s.solveLU()
	}
}

func (s *System) solveLU() ([]float64, error) {
	s.sp.Clear()
	for _, k := range s.order {
		// edp1096/sparse uses 1-based row/col addressing.
		s.sp.GetElement(int64(k.i+1), int64(k.j+1)).Real += s.entries[k]
	}
	if err := s.sp.Factor(); err != nil {
		return nil, simerr.New(simerr.System, simerr.CodeSingularMatrix, "factor: %v", err)
	}
	rhs := make([]float64, s.n+1)
	copy(rhs[1:], s.b)
	x, err := s.sp.Solve(rhs)
	if err != nil {
		return nil, simerr.New(simerr.System, simerr.CodeSingularMatrix, "solve: %v", err)
	}
	return x[1 : s.n+1], nil
}

// solveCG runs Jacobi-preconditioned conjugate gradient directly against
// the COO-assembled coefficients. There is no ecosystem CG implementation
// among the examples suited to an on-the-fly-assembled symmetric system
// with this Stamp/Add lifecycle, so it is hand-rolled here (documented in
// DESIGN.md); it is offered only as the alternative spec.md §4.2 names,
// selected by Options, not the default.
func (s *System) solveCG() ([]float64, error) {
	n := s.n
	rows := make(map[int][]entryKey, n)
	for k := range s.entries {
		rows[k.i] = append(rows[k.i], k)
	}
	matVec := func(v []float64) []float64 {
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			var sum float64
			for _, k := range rows[i] {
				sum += s.entries[k] * v[k.j]
			}
			out[i] = sum
		}
		return out
	}
	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		if d := s.entries[entryKey{i, i}]; math.Abs(d) > 1e-300 {
			diag[i] = 1.0 / d
		} else {
			diag[i] = 1.0
		}
	}

	x := make([]float64, n)
	r := make([]float64, n)
	copy(r, s.b)
	z := make([]float64, n)
	for i := range z {
		z[i] = diag[i] * r[i]
	}
	p := make([]float64, n)
	copy(p, z)
	rz := dot(r, z)

	const maxIter = 500
	const tol = 1e-10
	for iter := 0; iter < maxIter; iter++ {
		ap := matVec(p)
		pap := dot(p, ap)
		if math.Abs(pap) < 1e-300 {
			break
		}
		alpha := rz / pap
		for i := 0; i < n; i++ {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}
		if norm(r) < tol {
			break
		}
		for i := range z {
			z[i] = diag[i] * r[i]
		}
		rzNew := dot(r, z)
		beta := rzNew / rz
		for i := 0; i < n; i++ {
			p[i] = z[i] + beta*p[i]
		}
		rz = rzNew
	}
	return x, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}

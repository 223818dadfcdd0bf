package reductions

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// lpTol is the simplex pivot tolerance.
	lpTol = 1e-10
	// cutTol is how far below the current dual value a candidate's
	// Lagrangian must fall before it is added as a cut.
	cutTol = 1e-9
)

// solveLP finds the best mixture over the stored candidates and the duals
// that certify it.
//
// The primal is
//
//	min  Σ_h q_h err_h + B ξ
//	s.t. Σ_h q_h (γ_hj − ε) − ξ ≤ 0   for every active direction j
//	     Σ_h q_h = 1,  q ≥ 0,  ξ ≥ 0
//
// and the duals solve max_{λ ≥ 0, Σλ ≤ B} min_h L(h, λ) over the same
// candidates. At the optimum the two values agree, so the mixture's
// L_high equals its Lagrangian under the returned duals.
func (r *run) solveLP() ([]float64, DualWeights, error) {
	weights, err := r.solvePrimal()
	if err != nil {
		return nil, nil, fmt.Errorf("primal: %w", err)
	}
	support := make([]int, 0, len(weights))
	for c, q := range weights {
		if q > 0 {
			support = append(support, c)
		}
	}
	lambda, err := r.solveDual(support)
	if err != nil {
		return nil, nil, fmt.Errorf("dual: %w", err)
	}
	return weights, lambda, nil
}

// solvePrimal lays the primal out in standard form with columns
// [q_1..q_m, ξ, s_1..s_K] and rows [direction_1..direction_K, simplex].
func (r *run) solvePrimal() ([]float64, error) {
	m, k := len(r.candidates), len(r.activeIdx)
	cols := m + 1 + k
	A := mat.NewDense(k+1, cols, nil)
	b := make([]float64, k+1)
	c := make([]float64, cols)

	copy(c, r.errs)
	c[m] = r.bound
	for row, j := range r.activeIdx {
		for h := range m {
			A.Set(row, h, r.gammas[h][j]-r.eps)
		}
		A.Set(row, m, -1)
		A.Set(row, m+1+row, 1)
	}
	for h := range m {
		A.Set(k, h, 1)
	}
	b[k] = 1

	_, x, err := lp.Simplex(c, A, b, lpTol, r.primalBasis())
	if err != nil {
		return nil, err
	}

	weights := make([]float64, m)
	for h := range m {
		weights[h] = max(x[h], 0)
	}
	sum := floats.Sum(weights)
	if sum <= 0 {
		return nil, fmt.Errorf("mixture weights sum to %v", sum)
	}
	floats.Scale(1/sum, weights)
	return weights, nil
}

// primalBasis is a feasible starting vertex that puts all mass on candidate
// 0. When that candidate satisfies every direction the slacks absorb the
// margins; otherwise ξ takes the worst excess and replaces the slack of the
// direction attaining it.
func (r *run) primalBasis() []int {
	m := len(r.candidates)
	worst, excess := -1, 0.0
	for row, j := range r.activeIdx {
		if v := r.gammas[0][j] - r.eps; v > excess {
			worst, excess = row, v
		}
	}
	basis := []int{0}
	if worst >= 0 {
		basis = append(basis, m)
	}
	for row := range r.activeIdx {
		if row != worst {
			basis = append(basis, m+1+row)
		}
	}
	return basis
}

// solveDual maximises min_h L(h, λ) by constraint generation: the dual LP is
// solved over a working set of candidates, starting from the primal support,
// and the candidate with the lowest Lagrangian under the current duals is
// added until no stored candidate undercuts the dual value.
func (r *run) solveDual(working []int) (DualWeights, error) {
	if len(working) == 0 {
		working = []int{0}
	}
	working = slices.Clone(working)

	var lambda DualWeights
	for range len(r.candidates) + 1 {
		var z float64
		var err error
		lambda, z, err = r.solveDualOn(working)
		if err != nil {
			return nil, err
		}
		cut, val := r.minLagrangian(lambda)
		if val >= z-cutTol || slices.Contains(working, cut) {
			return lambda, nil
		}
		working = append(working, cut)
	}
	return lambda, nil
}

// solveDualOn solves the dual restricted to the working candidates with
// columns [λ_1..λ_K, z, t_1..t_|W|, u] and rows [candidate_1..candidate_|W|,
// budget]:
//
//	max  z
//	s.t. z + Σ_j λ_j (ε − γ_hj) + t_h = err_h   for h in W
//	     Σ_j λ_j + u = B
//
// The slack columns form a feasible starting basis since every err_h and B
// are non-negative. The optimal z is never negative because λ = 0 already
// attains min_h err_h, so z needs no negative part.
func (r *run) solveDualOn(working []int) (DualWeights, float64, error) {
	k, w := len(r.activeIdx), len(working)
	cols := k + 1 + w + 1
	A := mat.NewDense(w+1, cols, nil)
	b := make([]float64, w+1)
	c := make([]float64, cols)
	c[k] = -1

	basis := make([]int, 0, w+1)
	for row, h := range working {
		for col, j := range r.activeIdx {
			A.Set(row, col, r.eps-r.gammas[h][j])
		}
		A.Set(row, k, 1)
		A.Set(row, k+1+row, 1)
		b[row] = r.errs[h]
		basis = append(basis, k+1+row)
	}
	for col := range k {
		A.Set(w, col, 1)
	}
	A.Set(w, cols-1, 1)
	b[w] = r.bound
	basis = append(basis, cols-1)

	_, x, err := lp.Simplex(c, A, b, lpTol, basis)
	if err != nil {
		return nil, 0, err
	}

	lambda := make(DualWeights, len(r.theta))
	for col, j := range r.activeIdx {
		lambda[j] = max(x[col], 0)
	}
	return lambda, x[k], nil
}

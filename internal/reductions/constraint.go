// Package reductions implements the exponentiated-gradient reduction: a
// fairness constraint is turned into a sequence of reweighted classification
// problems solved by a game between a dual player, which raises weight on
// violated constraint directions, and a best-response classifier oracle.
package reductions

import (
	"fmt"
	"slices"

	"github.com/ahrav/go-fairness/internal/domain"
)

// Sign distinguishes the two directions of one group's moment.
type Sign int

const (
	// Exceeds is the direction in which a group's rate is above the reference.
	Exceeds Sign = iota
	// FallsShort is the direction in which a group's rate is below the reference.
	FallsShort
)

func (s Sign) String() string {
	if s == Exceeds {
		return "+"
	}
	return "-"
}

// Direction is one constraint direction: a group and a sign.
type Direction struct {
	Group domain.GroupKey
	Sign  Sign
}

func (d Direction) String() string { return d.Group.String() + " " + d.Sign.String() }

// DualWeights is the adversary's mixed strategy: one non-negative weight per
// direction, indexed like Constraint.Directions. The sum never exceeds the
// dual budget.
type DualWeights []float64

// Sum returns the total dual mass.
func (w DualWeights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Signed returns the per-group weight λ+ − λ− for group index g.
func (w DualWeights) Signed(g int) float64 { return w[2*g] - w[2*g+1] }

// Constraint is a fixed fairness moment with 2k directions over k groups.
type Constraint interface {
	// Kind names the constraint.
	Kind() domain.ConstraintKind

	// Load binds the constraint to training labels and sensitive rows. It
	// must be called before any other method.
	Load(labels []int, sensitive domain.SensitiveTable) error

	// Groups returns the constrained groups in canonical order.
	Groups() []domain.GroupKey

	// Directions returns the 2k directions; direction 2g is Exceeds and
	// 2g+1 is FallsShort for group g.
	Directions() []Direction

	// Active reports whether direction j has support in the loaded data.
	// Inactive directions carry no dual weight and are never updated.
	Active(j int) bool

	// Gamma returns the signed per-direction violation of predictions: for
	// Exceeds the group's rate minus the reference rate, for FallsShort its
	// negation. Predictions may be hard labels or probabilities.
	Gamma(pred []float64) []float64

	// MomentGradient splits Gamma into non-negative exceeds and falls-short
	// values, one per direction.
	MomentGradient(pred []float64) []float64

	// Reweight returns the cost adjustment that a positive prediction on
	// example i incurs under dual. Examples of a group with no support get 0.
	Reweight(i int, group domain.GroupKey, dual DualWeights) float64
}

// ConstraintOption configures a predefined constraint.
type ConstraintOption func(*utilityParity)

// WithGroups declares groups up front. Declared groups without training
// members stay in the direction set but remain inactive.
func WithGroups(groups ...domain.GroupKey) ConstraintOption {
	return func(u *utilityParity) { u.declared = append(u.declared, groups...) }
}

// NewConstraint returns the predefined constraint for kind.
func NewConstraint(kind domain.ConstraintKind, opts ...ConstraintOption) (Constraint, error) {
	switch kind {
	case domain.ConstraintDemographicParity:
		return NewDemographicParity(opts...), nil
	case domain.ConstraintTruePositiveRateParity:
		return NewTruePositiveRateParity(opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown constraint %q", domain.ErrInvalidConfig, kind)
	}
}

// NewDemographicParity equalises each group's predicted-positive rate with
// the overall rate.
func NewDemographicParity(opts ...ConstraintOption) Constraint {
	return newUtilityParity(domain.ConstraintDemographicParity, func(int) bool { return true }, opts)
}

// NewTruePositiveRateParity equalises each group's predicted-positive rate
// among label-1 examples with the overall true-positive rate.
func NewTruePositiveRateParity(opts ...ConstraintOption) Constraint {
	return newUtilityParity(domain.ConstraintTruePositiveRateParity, func(y int) bool { return y == 1 }, opts)
}

// utilityParity is the moment γ_g = E[h | g, e] − E[h | e] for an event e
// defined on the label.
type utilityParity struct {
	kind     domain.ConstraintKind
	inEvent  func(label int) bool
	declared []domain.GroupKey

	n          int
	groups     []domain.GroupKey
	groupIndex map[domain.GroupKey]int
	exGroup    []int  // group index per example
	exEvent    []bool // event membership per example
	pGroup     []float64
	pEvent     float64
}

func newUtilityParity(kind domain.ConstraintKind, inEvent func(int) bool, opts []ConstraintOption) *utilityParity {
	u := &utilityParity{kind: kind, inEvent: inEvent}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *utilityParity) Kind() domain.ConstraintKind { return u.kind }

func (u *utilityParity) Load(labels []int, sensitive domain.SensitiveTable) error {
	n := len(labels)
	if err := domain.CheckLength("sensitive", n, sensitive.Len()); err != nil {
		return err
	}
	keys := sensitive.Keys()
	u.groups = domain.DistinctGroups(append(slices.Clone(u.declared), keys...))
	u.groupIndex = make(map[domain.GroupKey]int, len(u.groups))
	for i, g := range u.groups {
		u.groupIndex[g] = i
	}

	u.n = n
	u.exGroup = make([]int, n)
	u.exEvent = make([]bool, n)
	counts := make([]int, len(u.groups))
	events := 0
	for i, k := range keys {
		g := u.groupIndex[k]
		u.exGroup[i] = g
		if u.inEvent(labels[i]) {
			u.exEvent[i] = true
			counts[g]++
			events++
		}
	}

	u.pGroup = make([]float64, len(u.groups))
	supported := 0
	for g, c := range counts {
		if n > 0 {
			u.pGroup[g] = float64(c) / float64(n)
		}
		if c > 0 {
			supported++
		}
	}
	u.pEvent = 0
	if n > 0 {
		u.pEvent = float64(events) / float64(n)
	}
	if supported < 2 {
		return &domain.InsufficientGroupsError{Metric: string(u.kind), Groups: supported}
	}
	return nil
}

func (u *utilityParity) Groups() []domain.GroupKey { return u.groups }

func (u *utilityParity) Directions() []Direction {
	out := make([]Direction, 0, 2*len(u.groups))
	for _, g := range u.groups {
		out = append(out, Direction{Group: g, Sign: Exceeds}, Direction{Group: g, Sign: FallsShort})
	}
	return out
}

func (u *utilityParity) Active(j int) bool { return u.pGroup[j/2] > 0 }

func (u *utilityParity) Gamma(pred []float64) []float64 {
	sums := make([]float64, len(u.groups))
	var total float64
	for i, p := range pred {
		if !u.exEvent[i] {
			continue
		}
		sums[u.exGroup[i]] += p
		total += p
	}

	out := make([]float64, 2*len(u.groups))
	if u.pEvent == 0 {
		return out
	}
	ref := total / (u.pEvent * float64(u.n))
	for g := range u.groups {
		if u.pGroup[g] == 0 {
			continue
		}
		rate := sums[g] / (u.pGroup[g] * float64(u.n))
		out[2*g] = rate - ref
		out[2*g+1] = ref - rate
	}
	return out
}

func (u *utilityParity) MomentGradient(pred []float64) []float64 {
	out := u.Gamma(pred)
	for j, v := range out {
		out[j] = max(v, 0)
	}
	return out
}

// Reweight returns λ_g/p(g,e) − Σ_g' λ_g'/p(e) for examples in the event and
// 0 otherwise, with λ_g the signed group weight.
func (u *utilityParity) Reweight(i int, group domain.GroupKey, dual DualWeights) float64 {
	g, ok := u.groupIndex[group]
	if !ok || u.pGroup[g] == 0 || i < 0 || i >= u.n || !u.exEvent[i] {
		return 0
	}
	var total float64
	for h := range u.groups {
		if u.pGroup[h] > 0 {
			total += dual.Signed(h)
		}
	}
	return dual.Signed(g)/u.pGroup[g] - total/u.pEvent
}

package dataset

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/ahrav/go-fairness/internal/domain"
)

// SyntheticOptions parameterises Synthetic.
type SyntheticOptions struct {
	Size int `validate:"min=4"`
	Seed int64

	// Shift moves the latent score up for group A and down for group B,
	// which makes label base rates differ by group. Zero gives equal rates.
	Shift float64 `validate:"min=0"`

	// Noise is the label noise standard deviation.
	Noise float64 `validate:"min=0"`
}

// DefaultSyntheticOptions returns a clearly biased two-group population.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{Size: 2000, Seed: domain.DefaultSeed, Shift: 0.8, Noise: 0.5}
}

// Synthetic generates a deterministic frame with a categorical "group"
// column (the sensitive attribute, also a feature), a numeric "skill"
// column driving the label, and an uninformative numeric "tenure" column.
// Groups alternate by row so both always have support.
func Synthetic(opts SyntheticOptions) (*Frame, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	rng := rand.New(rand.NewPCG(uint64(opts.Seed), 0x5717))
	f := &Frame{
		Columns: []string{"group", "skill", "tenure"},
		Records: make([][]string, opts.Size),
		Labels:  make([]int, opts.Size),
	}
	groups := make([]string, opts.Size)
	for i := range opts.Size {
		group, shift := "A", opts.Shift
		if i%2 == 1 {
			group, shift = "B", -opts.Shift
		}
		skill := rng.NormFloat64()
		tenure := rng.Float64() * 10
		if skill+shift+opts.Noise*rng.NormFloat64() > 0 {
			f.Labels[i] = 1
		}
		groups[i] = group
		f.Records[i] = []string{
			group,
			strconv.FormatFloat(skill, 'f', 6, 64),
			strconv.FormatFloat(tenure, 'f', 3, 64),
		}
	}
	f.Sensitive = domain.SingleAttribute("group", groups...)
	return f, nil
}

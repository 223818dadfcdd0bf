package domain

import (
	"fmt"
	"slices"
)

// Dataset bundles the three length-aligned inputs delivered by a dataset
// provider: an encoded numeric feature matrix, a binary label vector, and the
// sensitive-attribute table. Features are treated as immutable once built.
type Dataset struct {
	FeatureNames []string       `json:"feature_names,omitempty"`
	Features     [][]float64    `json:"features"`
	Labels       []int          `json:"labels"`
	Sensitive    SensitiveTable `json:"sensitive"`
}

// NewDataset validates and assembles a dataset.
func NewDataset(features [][]float64, labels []int, sensitive SensitiveTable) (*Dataset, error) {
	d := &Dataset{Features: features, Labels: labels, Sensitive: sensitive}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks length alignment, fixed feature width and binary labels.
func (d *Dataset) Validate() error {
	n := len(d.Features)
	if err := CheckLength("labels", n, len(d.Labels)); err != nil {
		return err
	}
	if err := CheckLength("sensitive", n, d.Sensitive.Len()); err != nil {
		return err
	}
	if err := d.Sensitive.Validate(); err != nil {
		return err
	}
	if err := CheckFeatureWidth(d.Features); err != nil {
		return err
	}
	if len(d.FeatureNames) > 0 && n > 0 {
		if err := CheckLength("feature names", len(d.Features[0]), len(d.FeatureNames)); err != nil {
			return err
		}
	}
	return ValidateBinary("labels", d.Labels)
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.Features) }

// Width returns the number of features per example.
func (d *Dataset) Width() int {
	if len(d.Features) == 0 {
		return len(d.FeatureNames)
	}
	return len(d.Features[0])
}

// Subset returns a dataset restricted to the given example indices.
// Feature rows are shared, not copied.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		FeatureNames: slices.Clone(d.FeatureNames),
		Features:     make([][]float64, len(idx)),
		Labels:       make([]int, len(idx)),
		Sensitive:    d.Sensitive.Subset(idx),
	}
	for i, j := range idx {
		out.Features[i] = d.Features[j]
		out.Labels[i] = d.Labels[j]
	}
	return out
}

// CheckFeatureWidth verifies that every row has the width of the first row.
func CheckFeatureWidth(features [][]float64) error {
	if len(features) == 0 {
		return nil
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return &ShapeMismatchError{Field: fmt.Sprintf("feature row %d", i), Want: width, Got: len(row)}
		}
	}
	return nil
}

// ValidateBinary returns ErrNonBinaryLabel for the first value outside {0, 1}.
func ValidateBinary(field string, values []int) error {
	for i, v := range values {
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: %s[%d] = %d", ErrNonBinaryLabel, field, i, v)
		}
	}
	return nil
}

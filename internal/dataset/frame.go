// Package dataset is the dataset provider: it loads raw tabular data, splits
// it, and encodes it into the numeric Dataset consumed by the core.
//
// The flow mirrors a typical preparation script: load and clean a Frame,
// split it stratified by label, fit an Encoder and a StandardScaler on the
// training part, then transform both parts.
package dataset

import (
	"fmt"
	"slices"

	"github.com/ahrav/go-fairness/internal/domain"
)

// Frame is a cleaned raw table: string cells for every feature column, a
// binary label per row, and the sensitive-attribute tuple per row.
// Sensitive columns stay in Columns so models may use them as features.
type Frame struct {
	Columns   []string              `json:"columns"`
	Records   [][]string            `json:"records"`
	Labels    []int                 `json:"labels"`
	Sensitive domain.SensitiveTable `json:"sensitive"`
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Records) }

// Column returns the index of name, or -1.
func (f *Frame) Column(name string) int { return slices.Index(f.Columns, name) }

// Validate checks that rows, labels and sensitive tuples are aligned.
func (f *Frame) Validate() error {
	n := len(f.Records)
	if err := domain.CheckLength("labels", n, len(f.Labels)); err != nil {
		return err
	}
	if err := domain.CheckLength("sensitive", n, f.Sensitive.Len()); err != nil {
		return err
	}
	for i, rec := range f.Records {
		if len(rec) != len(f.Columns) {
			return &domain.ShapeMismatchError{Field: fmt.Sprintf("record %d", i), Want: len(f.Columns), Got: len(rec)}
		}
	}
	return domain.ValidateBinary("labels", f.Labels)
}

// Subset returns the rows at idx in the given order.
func (f *Frame) Subset(idx []int) *Frame {
	out := &Frame{
		Columns:   slices.Clone(f.Columns),
		Records:   make([][]string, len(idx)),
		Labels:    make([]int, len(idx)),
		Sensitive: f.Sensitive.Subset(idx),
	}
	for i, j := range idx {
		out.Records[i] = f.Records[j]
		out.Labels[i] = f.Labels[j]
	}
	return out
}

// Splits holds encoded train and test datasets.
type Splits struct {
	Train *domain.Dataset `json:"train"`
	Test  *domain.Dataset `json:"test"`
}

// PrepareOptions controls Prepare.
type PrepareOptions struct {
	TestFraction float64
	Seed         int64
	DropFirst    bool
	Scale        bool
}

// Prepare splits f stratified by label, fits the encoder (and optionally a
// scaler) on the training rows, and transforms both splits.
func Prepare(f *Frame, opts PrepareOptions) (*Splits, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	trainIdx, testIdx, err := StratifiedSplit(f.Labels, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}
	trainFrame, testFrame := f.Subset(trainIdx), f.Subset(testIdx)

	enc := NewEncoder(opts.DropFirst)
	if err := enc.Fit(trainFrame); err != nil {
		return nil, err
	}
	train, err := enc.Transform(trainFrame)
	if err != nil {
		return nil, err
	}
	test, err := enc.Transform(testFrame)
	if err != nil {
		return nil, err
	}

	if opts.Scale {
		var sc StandardScaler
		if err := sc.Fit(train.Features); err != nil {
			return nil, err
		}
		if train.Features, err = sc.Transform(train.Features); err != nil {
			return nil, err
		}
		if test.Features, err = sc.Transform(test.Features); err != nil {
			return nil, err
		}
	}
	return &Splits{Train: train, Test: test}, nil
}

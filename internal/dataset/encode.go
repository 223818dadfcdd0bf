package dataset

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/ahrav/go-fairness/internal/domain"
)

// ErrNotFitted is returned when a transformer is used before Fit.
var ErrNotFitted = errors.New("transformer not fitted")

// columnEncoding is the fitted encoding of one frame column. Numeric columns
// pass through; categorical columns expand to one indicator per category.
type columnEncoding struct {
	Name       string   `json:"name"`
	Numeric    bool     `json:"numeric"`
	Categories []string `json:"categories,omitempty"`
}

// Encoder one-hot encodes categorical columns and passes numeric ones.
//
// A column is numeric when every training value parses as a float.
// Categories are sorted, so the encoding does not depend on row order. With
// DropFirst the first category of each column is the implicit baseline.
// Categories unseen at fit time encode as all zeros.
type Encoder struct {
	DropFirst bool             `json:"drop_first"`
	Columns   []columnEncoding `json:"columns"`
}

// NewEncoder returns an unfitted encoder.
func NewEncoder(dropFirst bool) *Encoder { return &Encoder{DropFirst: dropFirst} }

// Fit learns column types and categories from f.
func (e *Encoder) Fit(f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Len() == 0 {
		return fmt.Errorf("%w: cannot fit encoder on an empty frame", domain.ErrInvalidRequest)
	}

	e.Columns = make([]columnEncoding, len(f.Columns))
	for j, name := range f.Columns {
		col := columnEncoding{Name: name, Numeric: true}
		seen := make(map[string]struct{})
		for _, rec := range f.Records {
			v := rec[j]
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				col.Numeric = false
			}
			seen[v] = struct{}{}
		}
		if !col.Numeric {
			for v := range seen {
				col.Categories = append(col.Categories, v)
			}
			slices.Sort(col.Categories)
			if e.DropFirst {
				col.Categories = col.Categories[1:]
			}
		}
		e.Columns[j] = col
	}
	return nil
}

// FeatureNames returns the encoded column names: numeric columns keep their
// name, indicators are named "column=value".
func (e *Encoder) FeatureNames() []string {
	var names []string
	for _, c := range e.Columns {
		if c.Numeric {
			names = append(names, c.Name)
			continue
		}
		for _, v := range c.Categories {
			names = append(names, c.Name+"="+v)
		}
	}
	return names
}

// Transform encodes f into a Dataset. f must have the fitted column layout.
func (e *Encoder) Transform(f *Frame) (*domain.Dataset, error) {
	if e.Columns == nil {
		return nil, ErrNotFitted
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if !slices.EqualFunc(f.Columns, e.Columns, func(name string, c columnEncoding) bool { return name == c.Name }) {
		return nil, fmt.Errorf("%w: frame columns %v differ from fitted columns", domain.ErrShapeMismatch, f.Columns)
	}

	width := len(e.FeatureNames())
	lookup := make([]map[string]int, len(e.Columns))
	for j, c := range e.Columns {
		lookup[j] = make(map[string]int, len(c.Categories))
		for k, v := range c.Categories {
			lookup[j][v] = k
		}
	}

	X := make([][]float64, f.Len())
	for i, rec := range f.Records {
		row := make([]float64, 0, width)
		for j, c := range e.Columns {
			if c.Numeric {
				v, err := strconv.ParseFloat(rec[j], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: row %d column %q: %w", domain.ErrInvalidRequest, i, c.Name, err)
				}
				row = append(row, v)
				continue
			}
			ind := make([]float64, len(c.Categories))
			if k, ok := lookup[j][rec[j]]; ok {
				ind[k] = 1
			}
			row = append(row, ind...)
		}
		X[i] = row
	}

	return &domain.Dataset{
		FeatureNames: e.FeatureNames(),
		Features:     X,
		Labels:       slices.Clone(f.Labels),
		Sensitive:    f.Sensitive,
	}, nil
}

package dataset

import (
	"fmt"

	"github.com/ahrav/go-fairness/internal/domain"
)

// numericPositive is the positive label of an already-encoded 0/1 column.
const numericPositive = "1"

// Load materialises the frame described by spec.
func Load(spec domain.DatasetSpec) (*Frame, error) {
	switch spec.Source {
	case domain.SourceCSV:
		positive := spec.PositiveLabel
		if positive == "" {
			positive = numericPositive
		}
		return LoadCSVFile(spec.Path, CSVOptions{
			LabelColumn:      spec.LabelColumn,
			PositiveLabel:    positive,
			SensitiveColumns: spec.SensitiveColumns,
		})
	case domain.SourceSynthetic:
		opts := DefaultSyntheticOptions()
		opts.Seed = spec.Seed
		if spec.SyntheticSize > 0 {
			opts.Size = spec.SyntheticSize
		}
		return Synthetic(opts)
	default:
		return nil, fmt.Errorf("%w: unknown dataset source %q", domain.ErrInvalidRequest, spec.Source)
	}
}

// LoadAndPrepare loads spec and prepares scaled, encoded splits.
func LoadAndPrepare(spec domain.DatasetSpec) (*Splits, error) {
	f, err := Load(spec)
	if err != nil {
		return nil, err
	}
	return Prepare(f, PrepareOptions{
		TestFraction: spec.TestFraction,
		Seed:         spec.Seed,
		DropFirst:    spec.DropFirst,
		Scale:        true,
	})
}

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/ahrav/go-fairness/internal/domain"
)

// DefaultMissingValues are the cell values treated as missing.
var DefaultMissingValues = []string{"", "?", "NA", "NaN"}

// CSVOptions describes how a headed CSV maps onto a Frame.
type CSVOptions struct {
	// LabelColumn holds the target; it is removed from the feature columns.
	LabelColumn string `validate:"required"`

	// PositiveLabel is the label value mapped to 1; every other value maps to 0.
	PositiveLabel string `validate:"required"`

	// SensitiveColumns form the GroupKey of each row, in this order.
	SensitiveColumns []string `validate:"required,min=1,dive,required"`

	// Columns restricts the feature columns kept. Empty keeps all.
	Columns []string

	// MissingValues overrides DefaultMissingValues. Rows with a missing
	// value in any kept column are dropped.
	MissingValues []string
}

// LoadCSVFile opens path and calls LoadCSV.
func LoadCSVFile(path string, opts CSVOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return LoadCSV(f, opts)
}

// LoadCSV reads a headed CSV. Cells are trimmed; rows with missing values
// in the label, sensitive or kept feature columns are dropped.
func LoadCSV(r io.Reader, opts CSVOptions) (*Frame, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	missing := opts.MissingValues
	if missing == nil {
		missing = DefaultMissingValues
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	index := func(name string) (int, error) {
		i := slices.Index(header, name)
		if i < 0 {
			return 0, fmt.Errorf("%w: column %q not in header", domain.ErrInvalidRequest, name)
		}
		return i, nil
	}

	labelIdx, err := index(opts.LabelColumn)
	if err != nil {
		return nil, err
	}
	sensIdx := make([]int, len(opts.SensitiveColumns))
	for i, c := range opts.SensitiveColumns {
		if sensIdx[i], err = index(c); err != nil {
			return nil, err
		}
	}

	keep := opts.Columns
	if len(keep) == 0 {
		for _, h := range header {
			if h != opts.LabelColumn {
				keep = append(keep, h)
			}
		}
	}
	featIdx := make([]int, len(keep))
	for i, c := range keep {
		if c == opts.LabelColumn {
			return nil, fmt.Errorf("%w: label column %q listed as feature", domain.ErrInvalidRequest, c)
		}
		if featIdx[i], err = index(c); err != nil {
			return nil, err
		}
	}

	frame := &Frame{Columns: slices.Clone(keep)}
	var sensRows [][]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		cell := func(i int) (string, bool) {
			v := strings.TrimSpace(rec[i])
			return v, !slices.Contains(missing, v)
		}

		label, ok := cell(labelIdx)
		if !ok {
			continue
		}
		row := make([]string, len(featIdx))
		complete := true
		for k, i := range featIdx {
			if row[k], ok = cell(i); !ok {
				complete = false
				break
			}
		}
		sens := make([]string, len(sensIdx))
		for k, i := range sensIdx {
			if sens[k], ok = cell(i); !ok {
				complete = false
			}
		}
		if !complete {
			continue
		}

		y := 0
		if label == opts.PositiveLabel {
			y = 1
		}
		frame.Records = append(frame.Records, row)
		frame.Labels = append(frame.Labels, y)
		sensRows = append(sensRows, sens)
	}

	frame.Sensitive, err = domain.NewSensitiveTable(slices.Clone(opts.SensitiveColumns), sensRows)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

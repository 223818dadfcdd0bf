package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/ahrav/go-fairness/internal/domain"
)

// StandardScaler centres each column on its training mean and divides by
// its population standard deviation. Constant columns are only centred.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-column statistics.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: cannot fit scaler on no rows", domain.ErrInvalidRequest)
	}
	if err := domain.CheckFeatureWidth(X); err != nil {
		return err
	}

	d := len(X[0])
	s.Mean, s.Std = make([]float64, d), make([]float64, d)
	col := make([]float64, len(X))
	for j := range d {
		for i, row := range X {
			col[i] = row[j]
		}
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform returns scaled copies of the rows.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if err := domain.CheckLength(fmt.Sprintf("feature row %d", i), len(s.Mean), len(row)); err != nil {
			return nil, err
		}
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = r
	}
	return out, nil
}

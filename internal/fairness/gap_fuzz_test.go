package fairness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/metrics"
)

// FuzzGap checks the summary bounds for arbitrary predictions: difference is
// non-negative, ratio lies in [0, 1], and the two agree on a zero gap.
func FuzzGap(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3}, uint8(2))
	f.Add([]byte{2, 2, 0, 0}, uint8(2))
	f.Add([]byte{0, 0, 0, 0, 0, 0}, uint8(3))
	f.Add([]byte{3, 7, 11, 15, 19}, uint8(5))

	f.Fuzz(func(t *testing.T, data []byte, groups uint8) {
		if len(data) == 0 || len(data) > 4096 {
			t.Skip("empty or oversized input")
		}
		g := int(groups%8) + 1
		yTrue, yPred := make([]int, len(data)), make([]int, len(data))
		names := make([]string, len(data))
		for i, b := range data {
			pred := (b >> 1) & 1
			group := b >> 2
			yTrue[i] = int(b & 1)
			yPred[i] = int(pred)
			names[i] = fmt.Sprintf("g%d", int(group)%g)
		}
		sensitive := domain.SingleAttribute("g", names...)

		for _, metric := range []string{metrics.NameSelectionRate, metrics.NameTruePositiveRate} {
			res, err := metrics.EvaluateNamed(yTrue, yPred, sensitive, []string{metric})
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			s, err := Gap(res, metric)
			if err != nil {
				if !errors.Is(err, domain.ErrInsufficientGroups) {
					t.Fatalf("%s: unexpected error %v", metric, err)
				}
				continue
			}
			if s.Difference < 0 {
				t.Errorf("%s difference %v < 0", metric, s.Difference)
			}
			if s.Ratio < 0 || s.Ratio > 1 {
				t.Errorf("%s ratio %v outside [0,1]", metric, s.Ratio)
			}
			if s.Difference == 0 && s.Ratio != 1 {
				t.Errorf("%s zero difference with ratio %v", metric, s.Ratio)
			}
			if s.Min > s.Max {
				t.Errorf("%s min %v above max %v", metric, s.Min, s.Max)
			}
		}
	})
}

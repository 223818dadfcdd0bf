package metrics

import (
	"fmt"
	"testing"

	"github.com/ahrav/go-fairness/internal/domain"
)

// decodeRows turns each byte into one example: bit 0 is the label, bit 1 the
// prediction, and the remaining bits pick one of groups groups.
func decodeRows(data []byte, groups uint8) ([]int, []int, domain.SensitiveTable) {
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
	return yTrue, yPred, domain.SingleAttribute("g", names...)
}

// FuzzEvaluate checks that every rate lies in [0, 1], that group counts add
// up to the total, and that the concurrency setting never changes the result.
func FuzzEvaluate(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3}, uint8(2))
	f.Add([]byte{3, 3, 3, 3, 7, 7}, uint8(1))
	f.Add([]byte{0, 4, 8, 12, 16, 20, 24, 28}, uint8(7))
	f.Add([]byte{1}, uint8(0))

	f.Fuzz(func(t *testing.T, data []byte, groups uint8) {
		if len(data) == 0 || len(data) > 4096 {
			t.Skip("empty or oversized input")
		}
		yTrue, yPred, sensitive := decodeRows(data, groups)

		res, err := EvaluateNamed(yTrue, yPred, sensitive, Names(), WithConcurrency(1))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}

		total := 0
		for _, g := range res.Groups {
			total += res.Counts[g]
			for name, v := range res.ByGroup[g] {
				if name == NameCount {
					continue
				}
				if v < 0 || v > 1 {
					t.Errorf("%s for %s = %v outside [0,1]", name, g, v)
				}
			}
		}
		if total != len(data) {
			t.Errorf("group counts sum to %d, want %d", total, len(data))
		}

		parallel, err := EvaluateNamed(yTrue, yPred, sensitive, Names(), WithConcurrency(8))
		if err != nil {
			t.Fatalf("parallel evaluate: %v", err)
		}
		for _, g := range res.Groups {
			for name, v := range res.ByGroup[g] {
				if parallel.ByGroup[g][name] != v {
					t.Errorf("%s for %s differs across concurrency: %v vs %v", name, g, v, parallel.ByGroup[g][name])
				}
			}
		}
	})
}

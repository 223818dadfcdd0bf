package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/ahrav/go-fairness/internal/domain"
)

// StratifiedSplit partitions example indices into train and test so each
// label keeps its proportion. Each class contributes round(fraction·count)
// test examples drawn with a seeded shuffle. Both index lists are sorted.
func StratifiedSplit(labels []int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: test fraction %v must be in (0, 1)", domain.ErrInvalidRequest, testFraction)
	}
	if err := domain.ValidateBinary("labels", labels); err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0xda7a))
	var byClass [2][]int
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	for _, idx := range byClass {
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		k := int(math.Round(testFraction * float64(len(idx))))
		test = append(test, idx[:k]...)
		train = append(train, idx[k:]...)
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("%w: %d examples are too few to split", domain.ErrInvalidRequest, len(labels))
	}

	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

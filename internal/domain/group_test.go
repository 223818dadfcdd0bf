package domain //nolint:testpackage // Need access to unexported validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupKey_ValuesAndString(t *testing.T) {
	k := NewGroupKey("Female", "White")
	assert.Equal(t, []string{"Female", "White"}, k.Values())
	assert.Equal(t, "Female | White", k.String())
	assert.Equal(t, NewGroupKey("Female", "White"), k, "keys are comparable")
}

func TestSortGroupKeys(t *testing.T) {
	keys := []GroupKey{
		NewGroupKey("M", "b"),
		NewGroupKey("F", "z"),
		NewGroupKey("M"),
		NewGroupKey("F", "a"),
	}
	SortGroupKeys(keys)

	assert.Equal(t, []GroupKey{
		NewGroupKey("F", "a"),
		NewGroupKey("F", "z"),
		NewGroupKey("M"),
		NewGroupKey("M", "b"),
	}, keys)
}

func TestGroupKey_CompareIsTupleWise(t *testing.T) {
	tests := []struct {
		name string
		a, b GroupKey
		want int
	}{
		{"equal", NewGroupKey("a", "b"), NewGroupKey("a", "b"), 0},
		{"first value decides", NewGroupKey("a", "z"), NewGroupKey("b", "a"), -1},
		{"second value decides", NewGroupKey("a", "c"), NewGroupKey("a", "b"), 1},
		{"prefix sorts first", NewGroupKey("a"), NewGroupKey("a", "b"), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		})
	}
}

func TestSensitiveTable(t *testing.T) {
	t.Run("groups are distinct and sorted", func(t *testing.T) {
		tbl, err := NewSensitiveTable([]string{"sex", "race"}, [][]string{
			{"M", "white"}, {"F", "black"}, {"M", "white"}, {"F", "asian"},
		})
		require.NoError(t, err)

		assert.Equal(t, 4, tbl.Len())
		assert.Equal(t, NewGroupKey("F", "black"), tbl.Key(1))
		assert.Equal(t, []GroupKey{
			NewGroupKey("F", "asian"),
			NewGroupKey("F", "black"),
			NewGroupKey("M", "white"),
		}, tbl.Groups())
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := NewSensitiveTable([]string{"sex", "race"}, [][]string{{"M"}})
		require.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("no columns", func(t *testing.T) {
		_, err := NewSensitiveTable(nil, nil)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("subset", func(t *testing.T) {
		tbl := SingleAttribute("sex", "M", "F", "F", "M")
		sub := tbl.Subset([]int{1, 3})
		assert.Equal(t, []GroupKey{"F", "M"}, sub.Keys())
		assert.Equal(t, []string{"sex"}, sub.Columns)
	})
}

func FuzzGroupKeyValues(f *testing.F) {
	f.Add("Female", "White")
	f.Add("", "x")
	f.Add("a b", "c|d")

	f.Fuzz(func(t *testing.T, a, b string) {
		if strings.Contains(a+b, groupKeySep) {
			t.Skip()
		}
		k := NewGroupKey(a, b)
		assert.Equal(t, []string{a, b}, k.Values())
		assert.Equal(t, 0, k.Compare(NewGroupKey(a, b)))
	})
}

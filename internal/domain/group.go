package domain

import (
	"fmt"
	"slices"
	"strings"
)

// groupKeySep separates attribute values inside a GroupKey. The unit
// separator sorts below every printable character, so byte order of keys
// agrees with tuple order of their values.
const groupKeySep = "\x1f"

// GroupKey is the canonical identity of one combination of sensitive-attribute
// values (for example sex × race). It is comparable and usable as a map key;
// ordering is total and derived from the attribute tuple, never from
// insertion order.
type GroupKey string

// NewGroupKey builds a key from attribute values in column order.
func NewGroupKey(values ...string) GroupKey {
	return GroupKey(strings.Join(values, groupKeySep))
}

// Values returns the attribute values in column order.
func (k GroupKey) Values() []string { return strings.Split(string(k), groupKeySep) }

// String renders the key as "v1 | v2", matching how grouped tables are labelled.
func (k GroupKey) String() string { return strings.Join(k.Values(), " | ") }

// Compare orders keys tuple-wise, value by value.
func (k GroupKey) Compare(other GroupKey) int {
	return slices.Compare(k.Values(), other.Values())
}

// SortGroupKeys sorts keys in canonical order in place.
func SortGroupKeys(keys []GroupKey) { slices.SortFunc(keys, GroupKey.Compare) }

// SensitiveTable holds one tuple of categorical attribute values per example.
// Rows are parallel to the feature matrix and label vector.
type SensitiveTable struct {
	Columns []string   `json:"columns" validate:"required,min=1,dive,required"`
	Rows    [][]string `json:"rows"`
}

// NewSensitiveTable validates row widths against the column list.
func NewSensitiveTable(columns []string, rows [][]string) (SensitiveTable, error) {
	t := SensitiveTable{Columns: slices.Clone(columns), Rows: rows}
	if err := t.Validate(); err != nil {
		return SensitiveTable{}, err
	}
	return t, nil
}

// SingleAttribute builds a one-column table, mostly useful in tests and for
// datasets with a single sensitive attribute.
func SingleAttribute(column string, values ...string) SensitiveTable {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return SensitiveTable{Columns: []string{column}, Rows: rows}
}

// Validate checks that every row has one value per column.
func (t SensitiveTable) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: sensitive table: %w", ErrInvalidRequest, err)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return &ShapeMismatchError{Field: fmt.Sprintf("sensitive row %d", i), Want: len(t.Columns), Got: len(row)}
		}
	}
	return nil
}

// Len returns the number of examples.
func (t SensitiveTable) Len() int { return len(t.Rows) }

// Key returns the GroupKey of example i.
func (t SensitiveTable) Key(i int) GroupKey { return NewGroupKey(t.Rows[i]...) }

// Keys returns the GroupKey of every example in row order.
func (t SensitiveTable) Keys() []GroupKey {
	keys := make([]GroupKey, len(t.Rows))
	for i, row := range t.Rows {
		keys[i] = NewGroupKey(row...)
	}
	return keys
}

// Groups returns the distinct keys present, canonically sorted.
func (t SensitiveTable) Groups() []GroupKey { return DistinctGroups(t.Keys()) }

// Subset returns a table restricted to the given row indices.
func (t SensitiveTable) Subset(idx []int) SensitiveTable {
	rows := make([][]string, len(idx))
	for i, j := range idx {
		rows[i] = t.Rows[j]
	}
	return SensitiveTable{Columns: t.Columns, Rows: rows}
}

// DistinctGroups returns the distinct keys of a key sequence in canonical order.
func DistinctGroups(keys []GroupKey) []GroupKey {
	seen := make(map[GroupKey]struct{}, 8)
	out := make([]GroupKey, 0, 8)
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	SortGroupKeys(out)
	return out
}

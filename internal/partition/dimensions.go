package partition

import (
	"encoding/json"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DimensionSet is an immutable, sorted set of dimension names.
// The zero value is the empty set (the unpartitioned family).
type DimensionSet struct {
	dims []string
}

// NewDimensionSet builds a set from names, dropping blanks and duplicates.
func NewDimensionSet(names ...string) DimensionSet {
	dims := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			dims = append(dims, n)
		}
	}
	slices.Sort(dims)
	return DimensionSet{dims: slices.Compact(dims)}
}

// Len returns the number of dimensions.
func (s DimensionSet) Len() int { return len(s.dims) }

// IsEmpty reports whether s is the unpartitioned set.
func (s DimensionSet) IsEmpty() bool { return len(s.dims) == 0 }

// Names returns a copy of the sorted dimension names.
func (s DimensionSet) Names() []string { return slices.Clone(s.dims) }

// Contains reports whether dim is in s.
func (s DimensionSet) Contains(dim string) bool {
	_, ok := slices.BinarySearch(s.dims, dim)
	return ok
}

// Equal reports whether s and other hold the same dimensions.
func (s DimensionSet) Equal(other DimensionSet) bool {
	return slices.Equal(s.dims, other.dims)
}

// IsSubsetOf reports whether every dimension of s is in other.
func (s DimensionSet) IsSubsetOf(other DimensionSet) bool {
	for _, d := range s.dims {
		if !other.Contains(d) {
			return false
		}
	}
	return true
}

// IsSupersetOf reports whether s contains every dimension of other.
func (s DimensionSet) IsSupersetOf(other DimensionSet) bool {
	return other.IsSubsetOf(s)
}

// Minus returns s \ other.
func (s DimensionSet) Minus(other DimensionSet) DimensionSet {
	out := make([]string, 0, len(s.dims))
	for _, d := range s.dims {
		if !other.Contains(d) {
			out = append(out, d)
		}
	}
	return DimensionSet{dims: out}
}

// String renders s as "{a,b}"; the empty set is "{}".
func (s DimensionSet) String() string {
	return "{" + strings.Join(s.dims, ",") + "}"
}

// MarshalJSON encodes s as a sorted array of names.
func (s DimensionSet) MarshalJSON() ([]byte, error) {
	if s.dims == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.dims)
}

// UnmarshalJSON decodes an array of names.
func (s *DimensionSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewDimensionSet(names...)
	return nil
}

// UnmarshalYAML decodes a sequence of names.
func (s *DimensionSet) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	*s = NewDimensionSet(names...)
	return nil
}

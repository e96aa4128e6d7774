package availability

import (
	"cmp"
	"slices"
	"time"

	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/partition"
)

// PartitionFamily is the set of partition keys in one retrieval group that
// share a DimensionSet.
type PartitionFamily struct {
	Dimensions partition.DimensionSet `json:"dimensions"`
	Keys       []partition.Key        `json:"keys"` // sorted by Raw
	RowCount   int64                  `json:"row_count"`
}

// KeyStrings returns the raw partition keys of f.
func (f PartitionFamily) KeyStrings() []string {
	out := make([]string, len(f.Keys))
	for i, k := range f.Keys {
		out[i] = k.Raw
	}
	return out
}

// SkippedKey is a partition key that could not be parsed.
type SkippedKey struct {
	PartitionKey string `json:"partition_key"`
	Reason       string `json:"reason"`
}

// Families groups the rows of g by DimensionSet. Keys that do not parse
// are returned separately and belong to no family. Duplicate keys are
// merged. Families are ordered by dimension count, then DimensionSet.String().
func Families(g RetrievalGroup) ([]PartitionFamily, []SkippedKey) {
	byDims := make(map[string]*PartitionFamily)
	seenKey := make(map[string]bool)
	var skipped []SkippedKey

	for _, row := range g.Rows {
		k, err := partition.Parse(row.PartitionKey)
		if err != nil {
			skipped = append(skipped, SkippedKey{PartitionKey: row.PartitionKey, Reason: err.Error()})
			continue
		}
		dims := k.Dimensions()
		f := byDims[dims.String()]
		if f == nil {
			f = &PartitionFamily{Dimensions: dims}
			byDims[dims.String()] = f
		}
		f.RowCount += row.RowCount
		if !seenKey[k.Raw] {
			seenKey[k.Raw] = true
			f.Keys = append(f.Keys, k)
		}
	}

	out := make([]PartitionFamily, 0, len(byDims))
	for _, f := range byDims {
		slices.SortFunc(f.Keys, func(a, b partition.Key) int { return cmp.Compare(a.Raw, b.Raw) })
		out = append(out, *f)
	}
	slices.SortFunc(out, func(a, b PartitionFamily) int {
		if c := cmp.Compare(a.Dimensions.Len(), b.Dimensions.Len()); c != 0 {
			return c
		}
		return cmp.Compare(a.Dimensions.String(), b.Dimensions.String())
	})
	slices.SortFunc(skipped, func(a, b SkippedKey) int { return cmp.Compare(a.PartitionKey, b.PartitionKey) })
	return out, skipped
}

// GroupSummary describes one retrieval group of a day.
type GroupSummary struct {
	ObservedAt time.Time         `json:"observed_at"`
	Latest     bool              `json:"latest"`
	Families   []PartitionFamily `json:"families"`
	Skipped    []SkippedKey      `json:"skipped,omitempty"`
}

// DaySummary lists, for one day, the partition families of each retrieval group.
type DaySummary struct {
	Day    ir.Day         `json:"day"`
	Groups []GroupSummary `json:"groups"` // newest first
}

// Summarize reports which partition families exist on each day, ordered by day.
func Summarize(a Availability) []DaySummary {
	days := make([]ir.Day, 0, len(a))
	for d := range a {
		days = append(days, d)
	}
	slices.Sort(days)

	out := make([]DaySummary, 0, len(days))
	for _, d := range days {
		groups := slices.Clone(a[d])
		slices.SortStableFunc(groups, func(x, y RetrievalGroup) int { return y.ObservedAt.Compare(x.ObservedAt) })

		ds := DaySummary{Day: d, Groups: make([]GroupSummary, 0, len(groups))}
		for _, g := range groups {
			fams, skipped := Families(g)
			ds.Groups = append(ds.Groups, GroupSummary{
				ObservedAt: g.ObservedAt,
				Latest:     g.ObservedAt.Equal(groups[0].ObservedAt),
				Families:   fams,
				Skipped:    skipped,
			})
		}
		out = append(out, ds)
	}
	return out
}

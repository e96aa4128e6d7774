// Package stitch merges per-epoch query results into one ordered,
// gap-preserving daily series.
//
// Each day's value comes verbatim from the single epoch covering it. Days
// in gap epochs, or with no value, stay absent: never zero-filled, never
// carried forward.
package stitch

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/snapledger/internal/epoch"
	"github.com/roach88/snapledger/internal/ir"
)

// EpochResult is what the external fact reader returned for one epoch.
type EpochResult[V any] struct {
	Epoch  epoch.Epoch
	Values map[ir.Day]V
}

// Point is one day of a stitched series. Value is nil when the day has no
// value; Epoch is the index of the covering epoch, or -1.
type Point[V any] struct {
	Day   ir.Day `json:"day"`
	Value *V     `json:"value"`
	Epoch int    `json:"epoch"`
}

// Present reports whether p carries a value.
func (p Point[V]) Present() bool { return p.Value != nil }

// Series is a stitched result covering every day of Days in order.
type Series[V any] struct {
	Days   ir.DayRange `json:"days"`
	Points []Point[V]  `json:"points"`
}

// Values returns the present values of s in day order.
func (s Series[V]) Values() []V {
	var out []V
	for _, p := range s.Points {
		if p.Value != nil {
			out = append(out, *p.Value)
		}
	}
	return out
}

// Stitch merges results into a series over days.
//
// Epochs must not overlap and each epoch's values must fall inside it; gap
// epochs must carry no values. Violations are ValidationErrors. Epochs may
// extend past days; only days inside the range are emitted.
func Stitch[V any](days ir.DayRange, results []EpochResult[V]) (Series[V], error) {
	all, err := days.Days()
	if err != nil {
		return Series[V]{}, err
	}

	order := make([]int, len(results))
	for i, r := range results {
		order[i] = i
		if err := r.Epoch.Range().Validate(); err != nil {
			return Series[V]{}, ir.NewValidationError("epoch", fmt.Sprintf("epoch %d: %v", i, err))
		}
		if r.Epoch.Gap && len(r.Values) > 0 {
			return Series[V]{}, ir.NewValidationError("values",
				fmt.Sprintf("gap epoch %s carries %d values", r.Epoch.Range(), len(r.Values)))
		}
		for day := range r.Values {
			if !r.Epoch.Range().Contains(day) {
				return Series[V]{}, ir.NewValidationError("values",
					fmt.Sprintf("value for %s outside epoch %s", day, r.Epoch.Range()))
			}
		}
	}

	slices.SortFunc(order, func(a, b int) int {
		return compareDays(results[a].Epoch.Start, results[b].Epoch.Start)
	})
	for k := 1; k < len(order); k++ {
		prev, cur := results[order[k-1]].Epoch, results[order[k]].Epoch
		if !prev.End.Before(cur.Start) {
			return Series[V]{}, ir.NewValidationError("epoch",
				fmt.Sprintf("epochs %s and %s overlap", prev.Range(), cur.Range()))
		}
	}

	s := Series[V]{Days: days, Points: make([]Point[V], 0, len(all))}
	k := 0
	for _, day := range all {
		for k < len(order) && results[order[k]].Epoch.End.Before(day) {
			k++
		}

		p := Point[V]{Day: day, Epoch: -1}
		if k < len(order) && results[order[k]].Epoch.Range().Contains(day) {
			r := results[order[k]]
			p.Epoch = order[k]
			if v, ok := r.Values[day]; ok {
				p.Value = &v
			}
		}
		s.Points = append(s.Points, p)
	}
	return s, nil
}

func compareDays(a, b ir.Day) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}

// Reader is the external fact reader: it returns per-day values for one
// epoch, read with that epoch's explicit partition keys.
type Reader[V any] interface {
	ReadEpoch(ctx context.Context, ownerID string, e epoch.Epoch) (map[ir.Day]V, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc[V any] func(ctx context.Context, ownerID string, e epoch.Epoch) (map[ir.Day]V, error)

// ReadEpoch calls f.
func (f ReaderFunc[V]) ReadEpoch(ctx context.Context, ownerID string, e epoch.Epoch) (map[ir.Day]V, error) {
	return f(ctx, ownerID, e)
}

// Read issues one read per non-gap epoch of plan and stitches the results.
func Read[V any](ctx context.Context, plan epoch.Plan, r Reader[V]) (Series[V], error) {
	results := make([]EpochResult[V], 0, len(plan.Epochs))
	for _, e := range plan.Epochs {
		res := EpochResult[V]{Epoch: e}
		if !e.Gap {
			values, err := r.ReadEpoch(ctx, plan.OwnerID, e)
			if err != nil {
				return Series[V]{}, fmt.Errorf("read epoch %s: %w", e.Range(), err)
			}
			res.Values = values
		}
		results = append(results, res)
	}
	return Stitch(plan.Days, results)
}

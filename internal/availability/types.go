package availability

import (
	"context"
	"time"

	"github.com/roach88/snapledger/internal/ir"
)

// Subject identifies the series whose availability is observed.
type Subject struct {
	OwnerID string            `json:"owner_id" yaml:"owner_id" validate:"required"`
	Address ir.ContentAddress `json:"content_address" yaml:"content_address" validate:"required"`
}

func (s Subject) String() string {
	return s.OwnerID + "/" + string(s.Address)
}

// Row is one partition present in a retrieval group.
type Row struct {
	PartitionKey string `json:"partition_key" yaml:"partition_key"`
	RowCount     int64  `json:"row_count" yaml:"row_count"`
}

// RetrievalGroup is the set of facts of one day sharing one observedAt
// instant (one fetch event).
type RetrievalGroup struct {
	ObservedAt time.Time `json:"observed_at" yaml:"observed_at"`
	Rows       []Row     `json:"rows" yaml:"rows"`
}

// Availability maps each day to the retrieval groups stored for it.
// Days with nothing stored are absent.
type Availability map[ir.Day][]RetrievalGroup

// Source is the external calendar API. Implementations perform the I/O;
// nothing else in this package does.
type Source interface {
	Fetch(ctx context.Context, subject Subject, days ir.DayRange) (Availability, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, subject Subject, days ir.DayRange) (Availability, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, subject Subject, days ir.DayRange) (Availability, error) {
	return f(ctx, subject, days)
}

// Latest returns the retrieval group with the latest ObservedAt. Equal
// instants are the same group; their rows are concatenated. ok is false
// when groups is empty.
func Latest(groups []RetrievalGroup) (RetrievalGroup, bool) {
	if len(groups) == 0 {
		return RetrievalGroup{}, false
	}

	latest := groups[0].ObservedAt
	for _, g := range groups[1:] {
		if g.ObservedAt.After(latest) {
			latest = g.ObservedAt
		}
	}

	out := RetrievalGroup{ObservedAt: latest}
	for _, g := range groups {
		if g.ObservedAt.Equal(latest) {
			out.Rows = append(out.Rows, g.Rows...)
		}
	}
	return out, true
}

package epoch

import (
	"time"

	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/partition"
)

// Request describes one analysis subject to plan.
type Request struct {
	OwnerID string      `json:"owner_id" yaml:"owner_id"`
	Days    ir.DayRange `json:"days" yaml:"days"`

	// Specified is S, the dimensions the query itself slices by.
	Specified partition.DimensionSet `json:"specified" yaml:"specified"`

	// InScope is P, the dimensions that may be marginalized. Must contain
	// Specified.
	InScope partition.DimensionSet `json:"in_scope" yaml:"in_scope"`
}

// GapReason explains why a day has no regime.
type GapReason string

const (
	GapNoData       GapReason = "no_data"
	GapMalformedKey GapReason = "malformed_partition_key"
	GapNoEligible   GapReason = "no_eligible_candidate"
)

// Rejection records why a candidate family was not eligible.
type Rejection struct {
	Dimensions partition.DimensionSet `json:"dimensions"`
	Reason     string                 `json:"reason"`
}

// DayDecision is the regime chosen for one day, or a gap.
type DayDecision struct {
	Day ir.Day `json:"day"`
	Gap bool   `json:"gap"`

	GapReason GapReason `json:"gap_reason,omitempty"`

	// ObservedAt is the retrieval group the decision was made from. Zero
	// when the day has no data.
	ObservedAt time.Time `json:"observed_at,omitzero"`

	Dimensions    partition.DimensionSet `json:"dimensions"`
	Marginalized  partition.DimensionSet `json:"marginalized"`
	PartitionKeys []string               `json:"partition_keys"`

	Rejected []Rejection               `json:"rejected,omitempty"`
	Skipped  []availability.SkippedKey `json:"skipped,omitempty"`
}

// Epoch is a maximal run of consecutive days with the same selected
// partition keys. A gap epoch covers a run of gap days.
//
// An unpartitioned epoch has an empty PartitionKeys list.
type Epoch struct {
	Start         ir.Day                 `json:"start"`
	End           ir.Day                 `json:"end"`
	Gap           bool                   `json:"gap"`
	Dimensions    partition.DimensionSet `json:"dimensions"`
	PartitionKeys []string               `json:"partition_keys"`
}

// Range returns the days of e.
func (e Epoch) Range() ir.DayRange {
	return ir.DayRange{Start: e.Start, End: e.End}
}

// Plan is the planner output for one Request.
type Plan struct {
	OwnerID   string        `json:"owner_id"`
	Days      ir.DayRange   `json:"days"`
	Decisions []DayDecision `json:"decisions"`
	Epochs    []Epoch       `json:"epochs"`
}

// GapDays counts the gap decisions of p.
func (p Plan) GapDays() int {
	n := 0
	for _, d := range p.Decisions {
		if d.Gap {
			n++
		}
	}
	return n
}

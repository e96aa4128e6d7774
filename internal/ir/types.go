package ir

import (
	"encoding/json"
	"time"
)

// CanonicalSignature is the externally produced string that fully describes
// a query's semantics. Treated as immutable, opaque evidence.
type CanonicalSignature string

// ContentAddress is the short deterministic hash of a CanonicalSignature,
// used as the storage key for snapshot facts.
type ContentAddress string

// RegistryEntry is one row of the signature registry.
// At most one entry exists per (OwnerID, Address); rows are never mutated.
type RegistryEntry struct {
	OwnerID     string             `json:"owner_id"`
	Address     ContentAddress     `json:"content_address"`
	Signature   CanonicalSignature `json:"canonical_signature"`
	Evidence    json.RawMessage    `json:"evidence"` // Canonical JSON
	CreatedAt   time.Time          `json:"created_at"`
	AlgoVersion string             `json:"algo_version"`
}

// EquivalenceEdge is an operator-asserted, audited link between two content
// addresses of one owner. Resolution treats it as undirected regardless of
// the stored A/B order. Deactivation flips Active and records who and why;
// rows are never deleted.
type EquivalenceEdge struct {
	ID        string         `json:"id"` // UUIDv7
	OwnerID   string         `json:"owner_id"`
	A         ContentAddress `json:"address_a"`
	B         ContentAddress `json:"address_b"`
	CreatedAt time.Time      `json:"created_at"`
	CreatedBy string         `json:"created_by"`
	Reason    string         `json:"reason"`
	Active    bool           `json:"active"`

	DeactivatedAt      *time.Time `json:"deactivated_at,omitempty"`
	DeactivatedBy      string     `json:"deactivated_by,omitempty"`
	DeactivationReason string     `json:"deactivation_reason,omitempty"`
}

// Other returns the endpoint of e opposite to addr.
// The second result is false when addr is not an endpoint of e.
func (e EquivalenceEdge) Other(addr ContentAddress) (ContentAddress, bool) {
	switch addr {
	case e.A:
		return e.B, true
	case e.B:
		return e.A, true
	default:
		return "", false
	}
}

// FactSummary is a pre-aggregated summary of the facts stored under one
// (owner, address, partition key) group. Produced by the external fact store.
type FactSummary struct {
	OwnerID      string         `json:"owner_id" yaml:"owner_id"`
	Address      ContentAddress `json:"content_address" yaml:"content_address"`
	PartitionKey string         `json:"partition_key" yaml:"partition_key"`
	RowCount     int64          `json:"row_count" yaml:"row_count"`
	EarliestDay  Day            `json:"earliest_day" yaml:"earliest_day"`
	LatestDay    Day            `json:"latest_day" yaml:"latest_day"`
	LatestSeenAt time.Time      `json:"latest_observed_at" yaml:"latest_observed_at"`
}

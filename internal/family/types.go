package family

import (
	"time"

	"github.com/roach88/snapledger/internal/ir"
)

// DefaultUnlinkedCap bounds the unlinked list when Input.UnlinkedCap <= 0.
const DefaultUnlinkedCap = 50

// Input is everything the aggregator reads. It is a snapshot: the caller
// loads registry entries and active edges for Owners before calling
// Aggregate, so the computation itself does no I/O.
type Input struct {
	Owners    []string
	Entries   []ir.RegistryEntry
	Edges     []ir.EquivalenceEdge // inactive edges are ignored
	Summaries []ir.FactSummary

	// Current optionally names, per owner, the identity a caller is about
	// to query under.
	Current map[string]Current

	UnlinkedCap int
}

// Current is a caller's current identity for one owner. At least one of
// Address and Signature must be set; a signature alone is hashed.
type Current struct {
	Address   ir.ContentAddress     `json:"content_address,omitempty" yaml:"content_address"`
	Signature ir.CanonicalSignature `json:"canonical_signature,omitempty" yaml:"canonical_signature"`
}

// Member is one address of a family.
// Registered is false for addresses known only as edge endpoints.
type Member struct {
	Address    ir.ContentAddress     `json:"content_address"`
	Registered bool                  `json:"registered"`
	Signature  ir.CanonicalSignature `json:"canonical_signature,omitempty"`
	CreatedAt  time.Time             `json:"created_at,omitzero"`
}

// Stats aggregates the fact summaries of a set of groups.
type Stats struct {
	RowCount            int64     `json:"row_count"`
	EarliestDay         ir.Day    `json:"earliest_day,omitempty"`
	LatestDay           ir.Day    `json:"latest_day,omitempty"`
	LatestObservedAt    time.Time `json:"latest_observed_at,omitzero"`
	Groups              int       `json:"groups"`
	ContributingMembers int       `json:"contributing_members"`
}

// PartitionStats is Stats restricted to one partition key.
type PartitionStats struct {
	PartitionKey string `json:"partition_key"`
	Stats
}

// Family is one connected component of an owner's addresses.
type Family struct {
	OwnerID    string            `json:"owner_id"`
	FamilyID   ir.ContentAddress `json:"family_id"`
	Members    []Member          `json:"members"`
	Totals     Stats             `json:"totals"`
	Partitions []PartitionStats  `json:"partitions"`
}

// Match classifies a caller's current identity against the families.
type Match string

const (
	// MatchStrict means the address is a registered member of a family.
	MatchStrict Match = "strict"

	// MatchEquivalent means the address is reachable through active edges
	// but has no registry entry of its own.
	MatchEquivalent Match = "equivalent"

	// MatchNone means no family contains the address.
	MatchNone Match = "none"
)

// CurrentMatch is the classification of one owner's current identity.
type CurrentMatch struct {
	OwnerID  string            `json:"owner_id"`
	Address  ir.ContentAddress `json:"content_address"`
	Match    Match             `json:"match"`
	FamilyID ir.ContentAddress `json:"family_id,omitempty"`

	// SignatureMatches is set when both an address and a signature were
	// supplied and the address is registered: whether the stored signature
	// equals the supplied one.
	SignatureMatches *bool `json:"signature_matches,omitempty"`
}

// UnlinkedAddress is a registered address with no active edge.
type UnlinkedAddress struct {
	OwnerID string            `json:"owner_id"`
	Address ir.ContentAddress `json:"content_address"`
}

// Unlinked is the capped, actionable list of unlinked addresses.
type Unlinked struct {
	Addresses []UnlinkedAddress `json:"addresses"`
	Total     int               `json:"total"`
	Truncated bool              `json:"truncated"`
}

// Result is the output of Aggregate.
type Result struct {
	Families []Family       `json:"families"`
	Current  []CurrentMatch `json:"current"`
	Unlinked Unlinked       `json:"unlinked"`

	// UnattributedGroups counts summaries whose (owner, address) belongs to
	// no family.
	UnattributedGroups int `json:"unattributed_groups"`
}

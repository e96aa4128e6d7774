package family

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snapledger/internal/ir"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func entry(owner, addr string, offset time.Duration) ir.RegistryEntry {
	return ir.RegistryEntry{
		OwnerID:     owner,
		Address:     ir.ContentAddress(addr),
		Signature:   ir.CanonicalSignature("sig-" + addr),
		CreatedAt:   t0.Add(offset),
		AlgoVersion: ir.AlgoVersion,
	}
}

func edge(owner, a, b string) ir.EquivalenceEdge {
	return ir.EquivalenceEdge{OwnerID: owner, A: ir.ContentAddress(a), B: ir.ContentAddress(b), Active: true}
}

func summary(owner, addr, key string, rows int64, first, last string, seen time.Time) ir.FactSummary {
	return ir.FactSummary{
		OwnerID:      owner,
		Address:      ir.ContentAddress(addr),
		PartitionKey: key,
		RowCount:     rows,
		EarliestDay:  ir.MustDay(first),
		LatestDay:    ir.MustDay(last),
		LatestSeenAt: seen,
	}
}

func TestAggregate_ComponentsAndFamilyID(t *testing.T) {
	in := Input{
		Owners: []string{"o1"},
		Entries: []ir.RegistryEntry{
			entry("o1", "H2", 0),
			entry("o1", "H1", time.Hour),
			entry("o1", "H3", 2*time.Hour),
			entry("o1", "H9", 0),
		},
		Edges: []ir.EquivalenceEdge{
			edge("o1", "H1", "H2"),
			edge("o1", "H3", "H2"),
		},
	}

	res, err := Aggregate(in)
	require.NoError(t, err)
	require.Len(t, res.Families, 2)

	big := res.Families[0]
	assert.Equal(t, ir.ContentAddress("H2"), big.FamilyID, "earliest createdAt wins")
	assert.Equal(t, []ir.ContentAddress{"H1", "H2", "H3"}, memberAddresses(big))

	single := res.Families[1]
	assert.Equal(t, ir.ContentAddress("H9"), single.FamilyID)
}

func TestAggregate_FamilyIDTieBreaksOnAddress(t *testing.T) {
	res, err := Aggregate(Input{
		Owners:  []string{"o1"},
		Entries: []ir.RegistryEntry{entry("o1", "Hb", 0), entry("o1", "Ha", 0)},
		Edges:   []ir.EquivalenceEdge{edge("o1", "Hb", "Ha")},
	})
	require.NoError(t, err)
	require.Len(t, res.Families, 1)
	assert.Equal(t, ir.ContentAddress("Ha"), res.Families[0].FamilyID)
}

func TestAggregate_UnregisteredEndpointsJoinFamily(t *testing.T) {
	res, err := Aggregate(Input{
		Owners:  []string{"o1"},
		Entries: []ir.RegistryEntry{entry("o1", "H5", 0)},
		Edges:   []ir.EquivalenceEdge{edge("o1", "H1", "H5"), edge("o1", "X1", "X2")},
	})
	require.NoError(t, err)
	require.Len(t, res.Families, 2)

	assert.Equal(t, ir.ContentAddress("H5"), res.Families[0].FamilyID, "registered member preferred over smaller address")
	assert.False(t, res.Families[0].Members[0].Registered)
	assert.True(t, res.Families[0].Members[1].Registered)

	assert.Equal(t, ir.ContentAddress("X1"), res.Families[1].FamilyID, "no registered member: smallest address")
}

func TestAggregate_IgnoresInactiveEdgesAndOtherOwners(t *testing.T) {
	inactive := edge("o1", "H1", "H2")
	inactive.Active = false

	res, err := Aggregate(Input{
		Owners:  []string{"o1"},
		Entries: []ir.RegistryEntry{entry("o1", "H1", 0), entry("o1", "H2", 0), entry("o2", "H1", 0)},
		Edges:   []ir.EquivalenceEdge{inactive, edge("o2", "H1", "H2")},
	})
	require.NoError(t, err)
	require.Len(t, res.Families, 2)
	for _, f := range res.Families {
		assert.Equal(t, "o1", f.OwnerID)
		assert.Len(t, f.Members, 1)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	in := Input{
		Owners: []string{"o1", "o2"},
		Entries: []ir.RegistryEntry{
			entry("o1", "H1", 3*time.Hour), entry("o1", "H2", time.Hour), entry("o1", "H3", 2*time.Hour),
			entry("o1", "H4", 0), entry("o2", "H1", 0), entry("o2", "H7", time.Minute),
		},
		Edges: []ir.EquivalenceEdge{
			edge("o1", "H1", "H2"), edge("o1", "H2", "H3"), edge("o2", "H7", "H1"),
		},
		Summaries: []ir.FactSummary{
			summary("o1", "H1", "", 5, "2025-01-01", "2025-01-05", t0),
			summary("o1", "H3", "channel:web", 7, "2025-01-02", "2025-01-09", t0),
		},
	}

	first, err := Aggregate(in)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := in
		shuffled.Entries = append([]ir.RegistryEntry(nil), in.Entries...)
		shuffled.Edges = append([]ir.EquivalenceEdge(nil), in.Edges...)
		rng.Shuffle(len(shuffled.Entries), func(a, b int) {
			shuffled.Entries[a], shuffled.Entries[b] = shuffled.Entries[b], shuffled.Entries[a]
		})
		rng.Shuffle(len(shuffled.Edges), func(a, b int) {
			shuffled.Edges[a], shuffled.Edges[b] = shuffled.Edges[b], shuffled.Edges[a]
		})

		again, err := Aggregate(shuffled)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAggregate_Statistics(t *testing.T) {
	seen1 := t0.Add(time.Hour)
	seen2 := t0.Add(2 * time.Hour)

	res, err := Aggregate(Input{
		Owners:  []string{"o1"},
		Entries: []ir.RegistryEntry{entry("o1", "H1", 0), entry("o1", "H2", time.Hour)},
		Edges:   []ir.EquivalenceEdge{edge("o1", "H1", "H2")},
		Summaries: []ir.FactSummary{
			summary("o1", "H1", "", 10, "2025-01-01", "2025-01-10", seen1),
			summary("o1", "H2", "", 4, "2025-01-11", "2025-01-12", seen2),
			summary("o1", "H2", "channel:web", 3, "2025-01-05", "2025-01-12", seen1),
			summary("o1", "H2", "channel:app", 2, "2025-01-05", "2025-01-12", seen1),
			summary("o1", "ZZ", "", 100, "2024-01-01", "2024-01-01", seen1),
			summary("o9", "H1", "", 100, "2024-01-01", "2024-01-01", seen1),
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Families, 1)
	f := res.Families[0]

	assert.Equal(t, int64(19), f.Totals.RowCount)
	assert.Equal(t, ir.Day("2025-01-01"), f.Totals.EarliestDay)
	assert.Equal(t, ir.Day("2025-01-12"), f.Totals.LatestDay)
	assert.Equal(t, seen2, f.Totals.LatestObservedAt)
	assert.Equal(t, 4, f.Totals.Groups)
	assert.Equal(t, 2, f.Totals.ContributingMembers)

	require.Len(t, f.Partitions, 3)
	assert.Equal(t, "", f.Partitions[0].PartitionKey)
	assert.Equal(t, int64(14), f.Partitions[0].RowCount)
	assert.Equal(t, 2, f.Partitions[0].ContributingMembers)
	assert.Equal(t, "channel:app", f.Partitions[1].PartitionKey)
	assert.Equal(t, "channel:web", f.Partitions[2].PartitionKey)
	assert.Equal(t, 1, f.Partitions[2].ContributingMembers)

	assert.Equal(t, 2, res.UnattributedGroups)
}

func TestAggregate_CurrentClassification(t *testing.T) {
	sigH1 := ir.CanonicalSignature("visited(a)")
	h1 := ir.MustContentAddress(sigH1)

	e1 := entry("o1", string(h1), 0)
	e1.Signature = sigH1

	res, err := Aggregate(Input{
		Owners:  []string{"o1", "o2", "o3", "o4"},
		Entries: []ir.RegistryEntry{e1, entry("o2", "H1", 0), entry("o3", "H1", 0)},
		Edges:   []ir.EquivalenceEdge{edge("o2", "H1", "H2")},
		Current: map[string]Current{
			"o1": {Signature: sigH1},
			"o2": {Address: "H2"},
			"o3": {Address: "H1", Signature: "something else"},
			"o4": {Address: "H1"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Current, 4)

	byOwner := map[string]CurrentMatch{}
	for _, c := range res.Current {
		byOwner[c.OwnerID] = c
	}

	assert.Equal(t, MatchStrict, byOwner["o1"].Match, "signature-only input is hashed")
	assert.Equal(t, h1, byOwner["o1"].Address)
	assert.Nil(t, byOwner["o1"].SignatureMatches)

	assert.Equal(t, MatchEquivalent, byOwner["o2"].Match)
	assert.Equal(t, ir.ContentAddress("H1"), byOwner["o2"].FamilyID)

	assert.Equal(t, MatchStrict, byOwner["o3"].Match)
	require.NotNil(t, byOwner["o3"].SignatureMatches)
	assert.False(t, *byOwner["o3"].SignatureMatches)

	assert.Equal(t, MatchNone, byOwner["o4"].Match)
	assert.Empty(t, byOwner["o4"].FamilyID)
}

func TestAggregate_CurrentRequiresIdentity(t *testing.T) {
	_, err := Aggregate(Input{
		Owners:  []string{"o1"},
		Current: map[string]Current{"o1": {}},
	})
	assert.True(t, ir.IsValidationError(err))
}

func TestAggregate_Unlinked(t *testing.T) {
	res, err := Aggregate(Input{
		Owners: []string{"o1"},
		Entries: []ir.RegistryEntry{
			entry("o1", "H1", 0), entry("o1", "H2", 0), entry("o1", "H3", 0),
			entry("o1", "H4", 0), entry("o1", "H5", 0),
		},
		Edges:       []ir.EquivalenceEdge{edge("o1", "H1", "H2")},
		UnlinkedCap: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Unlinked.Total)
	assert.True(t, res.Unlinked.Truncated)
	assert.Equal(t, []UnlinkedAddress{{"o1", "H3"}, {"o1", "H4"}}, res.Unlinked.Addresses)
}

func TestAggregate_EmptyInput(t *testing.T) {
	res, err := Aggregate(Input{})
	require.NoError(t, err)
	assert.Empty(t, res.Families)
	assert.Empty(t, res.Current)
	assert.NotNil(t, res.Unlinked.Addresses)
	assert.False(t, res.Unlinked.Truncated)
}

func TestAggregate_RejectsBlankOwner(t *testing.T) {
	_, err := Aggregate(Input{Owners: []string{" "}})
	assert.True(t, ir.IsValidationError(err))
}

func memberAddresses(f Family) []ir.ContentAddress {
	out := make([]ir.ContentAddress, len(f.Members))
	for i, m := range f.Members {
		out[i] = m.Address
	}
	return out
}

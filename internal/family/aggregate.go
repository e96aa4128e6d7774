package family

import (
	"cmp"
	"slices"
	"strings"

	"github.com/roach88/snapledger/internal/ir"
)

type nodeKey struct {
	owner string
	addr  ir.ContentAddress
}

type node struct {
	nodeKey
	registered bool
	linked     bool
	entry      ir.RegistryEntry
}

// accumulator folds fact summaries into Stats.
type accumulator struct {
	stats   Stats
	members map[ir.ContentAddress]struct{}
}

func (a *accumulator) add(s ir.FactSummary) {
	if a.members == nil {
		a.members = make(map[ir.ContentAddress]struct{})
	}
	a.stats.RowCount += s.RowCount
	a.stats.Groups++
	if s.EarliestDay != "" && (a.stats.EarliestDay == "" || s.EarliestDay.Before(a.stats.EarliestDay)) {
		a.stats.EarliestDay = s.EarliestDay
	}
	if s.LatestDay != "" && a.stats.LatestDay.Before(s.LatestDay) {
		a.stats.LatestDay = s.LatestDay
	}
	if s.LatestSeenAt.After(a.stats.LatestObservedAt) {
		a.stats.LatestObservedAt = s.LatestSeenAt
	}
	a.members[s.Address] = struct{}{}
	a.stats.ContributingMembers = len(a.members)
}

// Aggregate groups an owner's addresses into families and folds the fact
// summaries into per-family and per-partition statistics.
//
// Components are computed with a single union-find pass over registry
// addresses and active edge endpoints. Summaries are visited once each, so
// the cost is linear in the number of summary groups, not in raw facts.
// The result depends only on the input set, never on its order.
func Aggregate(in Input) (Result, error) {
	owners := make(map[string]bool, len(in.Owners))
	for _, o := range in.Owners {
		if strings.TrimSpace(o) == "" {
			return Result{}, ir.NewValidationError("owner_id", "owner id is required")
		}
		owners[o] = true
	}

	ds := newDisjointSet(0)
	index := make(map[nodeKey]int)
	var nodes []node

	nodeFor := func(k nodeKey) int {
		if id, ok := index[k]; ok {
			return id
		}
		id := ds.add()
		index[k] = id
		nodes = append(nodes, node{nodeKey: k})
		return id
	}

	for _, e := range in.Entries {
		if !owners[e.OwnerID] {
			continue
		}
		id := nodeFor(nodeKey{e.OwnerID, e.Address})
		n := &nodes[id]
		if !n.registered || earlier(e, n.entry) {
			n.entry = e
		}
		n.registered = true
	}

	for _, e := range in.Edges {
		if !e.Active || !owners[e.OwnerID] || e.A == e.B {
			continue
		}
		a := nodeFor(nodeKey{e.OwnerID, e.A})
		b := nodeFor(nodeKey{e.OwnerID, e.B})
		nodes[a].linked = true
		nodes[b].linked = true
		ds.union(a, b)
	}

	// Group node ids by root, then build one family per root.
	components := make(map[int][]int)
	for id := range nodes {
		root := ds.find(id)
		components[root] = append(components[root], id)
	}

	families := make([]Family, 0, len(components))
	familyOfRoot := make(map[int]int, len(components))
	roots := make([]int, 0, len(components))
	for root := range components {
		roots = append(roots, root)
	}
	slices.Sort(roots)

	for _, root := range roots {
		ids := components[root]
		f := Family{
			OwnerID: nodes[ids[0]].owner,
			Members: make([]Member, 0, len(ids)),
		}
		for _, id := range ids {
			n := nodes[id]
			m := Member{Address: n.addr, Registered: n.registered}
			if n.registered {
				m.Signature = n.entry.Signature
				m.CreatedAt = n.entry.CreatedAt
			}
			f.Members = append(f.Members, m)
		}
		slices.SortFunc(f.Members, func(a, b Member) int { return cmp.Compare(a.Address, b.Address) })
		f.FamilyID = familyID(f.Members)

		familyOfRoot[root] = len(families)
		families = append(families, f)
	}

	// Fold summaries.
	totals := make([]accumulator, len(families))
	partitions := make([]map[string]*accumulator, len(families))
	unattributed := 0
	for _, s := range in.Summaries {
		id, ok := index[nodeKey{s.OwnerID, s.Address}]
		if !ok {
			unattributed++
			continue
		}
		fi := familyOfRoot[ds.find(id)]
		totals[fi].add(s)
		if partitions[fi] == nil {
			partitions[fi] = make(map[string]*accumulator)
		}
		acc := partitions[fi][s.PartitionKey]
		if acc == nil {
			acc = &accumulator{}
			partitions[fi][s.PartitionKey] = acc
		}
		acc.add(s)
	}

	for i := range families {
		families[i].Totals = totals[i].stats
		families[i].Partitions = make([]PartitionStats, 0, len(partitions[i]))
		for key, acc := range partitions[i] {
			families[i].Partitions = append(families[i].Partitions, PartitionStats{PartitionKey: key, Stats: acc.stats})
		}
		slices.SortFunc(families[i].Partitions, func(a, b PartitionStats) int {
			return cmp.Compare(a.PartitionKey, b.PartitionKey)
		})
	}

	// Classify current identities before reordering families.
	current, err := classify(in.Current, owners, index, nodes, func(id int) Family {
		return families[familyOfRoot[ds.find(id)]]
	})
	if err != nil {
		return Result{}, err
	}

	slices.SortFunc(families, func(a, b Family) int {
		if c := cmp.Compare(a.OwnerID, b.OwnerID); c != 0 {
			return c
		}
		return cmp.Compare(a.FamilyID, b.FamilyID)
	})

	return Result{
		Families:           families,
		Current:            current,
		Unlinked:           unlinked(nodes, in.UnlinkedCap),
		UnattributedGroups: unattributed,
	}, nil
}

// familyID picks the registered member with the earliest CreatedAt, ties
// broken by smallest address. A component with no registered member (only
// edge endpoints) uses its smallest address. members must be sorted.
func familyID(members []Member) ir.ContentAddress {
	var best *Member
	for i := range members {
		m := &members[i]
		if !m.Registered {
			continue
		}
		if best == nil || m.CreatedAt.Before(best.CreatedAt) {
			best = m
		}
	}
	if best == nil {
		return members[0].Address
	}
	return best.Address
}

func earlier(a, b ir.RegistryEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Signature < b.Signature
}

func classify(
	current map[string]Current,
	owners map[string]bool,
	index map[nodeKey]int,
	nodes []node,
	familyOf func(id int) Family,
) ([]CurrentMatch, error) {
	out := make([]CurrentMatch, 0, len(current))
	for owner, c := range current {
		addr := c.Address
		if strings.TrimSpace(string(addr)) == "" {
			if strings.TrimSpace(string(c.Signature)) == "" {
				return nil, &ir.Error{
					Code:    ir.ErrCodeValidation,
					Message: "current identity needs an address or a signature",
					Field:   "current",
					Owner:   owner,
				}
			}
			hashed, err := ir.ContentAddressOf(c.Signature)
			if err != nil {
				return nil, err
			}
			addr = hashed
		}

		m := CurrentMatch{OwnerID: owner, Address: addr, Match: MatchNone}
		id, ok := index[nodeKey{owner, addr}]
		if ok && owners[owner] {
			n := nodes[id]
			m.FamilyID = familyOf(id).FamilyID
			if n.registered {
				m.Match = MatchStrict
				if c.Address != "" && c.Signature != "" {
					same := n.entry.Signature == c.Signature
					m.SignatureMatches = &same
				}
			} else {
				m.Match = MatchEquivalent
			}
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b CurrentMatch) int { return cmp.Compare(a.OwnerID, b.OwnerID) })
	return out, nil
}

func unlinked(nodes []node, limit int) Unlinked {
	if limit <= 0 {
		limit = DefaultUnlinkedCap
	}

	var all []UnlinkedAddress
	for _, n := range nodes {
		if n.registered && !n.linked {
			all = append(all, UnlinkedAddress{OwnerID: n.owner, Address: n.addr})
		}
	}
	slices.SortFunc(all, func(a, b UnlinkedAddress) int {
		if c := cmp.Compare(a.OwnerID, b.OwnerID); c != 0 {
			return c
		}
		return cmp.Compare(a.Address, b.Address)
	})

	u := Unlinked{Addresses: all, Total: len(all)}
	if u.Addresses == nil {
		u.Addresses = []UnlinkedAddress{}
	}
	if len(all) > limit {
		u.Addresses = all[:limit]
		u.Truncated = true
	}
	return u
}

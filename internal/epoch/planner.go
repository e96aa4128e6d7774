package epoch

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/logger"
	"github.com/roach88/snapledger/internal/partition"
)

// Planner chooses one regime per day and segments the result into epochs.
// It is stateless apart from its oracle and is safe for concurrent use when
// the oracle is.
type Planner struct {
	oracle Oracle
	log    *logger.Logger
}

// NewPlanner creates a Planner. A nil oracle refuses every marginalization.
func NewPlanner(oracle Oracle, log *logger.Logger) *Planner {
	if oracle == nil {
		oracle = Never
	}
	return &Planner{oracle: oracle, log: logger.OrNop(log)}
}

type candidate struct {
	family availability.PartitionFamily
	extra  partition.DimensionSet
	keys   []string
}

// compareCandidates is the least-aggregation order: fewest marginalized
// dimensions, then fewest partition rows to sum, then DimensionSet string,
// then the joined sorted partition keys.
func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(a.extra.Len(), b.extra.Len()); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a.keys), len(b.keys)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.family.Dimensions.String(), b.family.Dimensions.String()); c != 0 {
		return c
	}
	return slices.Compare(a.keys, b.keys)
}

// Plan decides every day of req.Days from avail.
//
// For each day only the latest retrieval group is considered. Its
// partition families are candidates; a candidate with dimensions D is
// eligible when S ⊆ D, D\S ⊆ P, and the oracle accepts every dimension of
// D\S along every line of the family (all other dimensions held fixed).
// The least-aggregation candidate wins. A day without data, with an
// unparseable partition key in its latest group, or without an eligible
// candidate is a gap; gaps are never filled from neighbours.
//
// Returns a ValidationError for a malformed request and an AmbiguityError
// if two candidates compare equal.
func (p *Planner) Plan(req Request, avail availability.Availability) (Plan, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return Plan{}, ir.NewValidationError("owner_id", "owner id is required")
	}
	days, err := req.Days.Days()
	if err != nil {
		return Plan{}, err
	}
	if !req.Specified.IsSubsetOf(req.InScope) {
		return Plan{}, ir.NewValidationError("in_scope",
			fmt.Sprintf("in-scope dimensions %s must contain specified %s", req.InScope, req.Specified))
	}

	plan := Plan{
		OwnerID:   req.OwnerID,
		Days:      req.Days,
		Decisions: make([]DayDecision, 0, len(days)),
	}
	for _, day := range days {
		d, err := p.decide(req, day, avail[day])
		if err != nil {
			return Plan{}, err
		}
		plan.Decisions = append(plan.Decisions, d)
	}
	plan.Epochs = Segment(plan.Decisions)

	p.log.Debug("epoch plan",
		"owner", req.OwnerID,
		"days", req.Days.String(),
		"epochs", len(plan.Epochs),
		"gap_days", plan.GapDays(),
	)
	return plan, nil
}

func (p *Planner) decide(req Request, day ir.Day, groups []availability.RetrievalGroup) (DayDecision, error) {
	d := DayDecision{Day: day, PartitionKeys: []string{}}

	group, ok := availability.Latest(groups)
	if !ok {
		d.Gap = true
		d.GapReason = GapNoData
		return d, nil
	}
	d.ObservedAt = group.ObservedAt

	families, skipped := availability.Families(group)
	d.Skipped = skipped
	if len(skipped) > 0 {
		// the family picture of this group is incomplete
		d.Gap = true
		d.GapReason = GapMalformedKey
		return d, nil
	}

	var eligible []candidate
	for _, fam := range families {
		c, reason := p.evaluate(req, fam)
		if reason != "" {
			d.Rejected = append(d.Rejected, Rejection{Dimensions: fam.Dimensions, Reason: reason})
			continue
		}
		eligible = append(eligible, c)
	}

	if len(eligible) == 0 {
		d.Gap = true
		d.GapReason = GapNoEligible
		return d, nil
	}

	slices.SortFunc(eligible, compareCandidates)
	if len(eligible) > 1 && compareCandidates(eligible[0], eligible[1]) == 0 {
		var tied []string
		for _, c := range eligible {
			if compareCandidates(c, eligible[0]) == 0 {
				tied = append(tied, c.family.Dimensions.String()+"="+strings.Join(c.keys, ","))
			}
		}
		p.log.Error("regime selection tie", "owner", req.OwnerID, "day", day, "candidates", tied)
		return DayDecision{}, ir.NewAmbiguityError(req.OwnerID, day, tied)
	}

	best := eligible[0]
	d.Dimensions = best.family.Dimensions
	d.Marginalized = best.extra
	if !best.family.Dimensions.IsEmpty() {
		d.PartitionKeys = best.keys
	}
	return d, nil
}

// evaluate returns the candidate for fam, or a non-empty rejection reason.
func (p *Planner) evaluate(req Request, fam availability.PartitionFamily) (candidate, string) {
	dims := fam.Dimensions
	if !req.Specified.IsSubsetOf(dims) {
		return candidate{}, fmt.Sprintf("does not cover specified dimensions %s", req.Specified)
	}

	extra := dims.Minus(req.Specified)
	if out := extra.Minus(req.InScope); !out.IsEmpty() {
		return candidate{}, fmt.Sprintf("dimensions %s are not in scope", out)
	}

	for _, dim := range extra.Names() {
		for _, ln := range linesAlong(fam, dim) {
			if !p.oracle.CanAggregate(req.OwnerID, dim, ln.values, req.Specified) {
				if ln.fixed == "" {
					return candidate{}, fmt.Sprintf("not exhaustive over %s", dim)
				}
				return candidate{}, fmt.Sprintf("not exhaustive over %s at %s", dim, ln.fixed)
			}
		}
	}

	return candidate{family: fam, extra: extra, keys: fam.KeyStrings()}, ""
}

// line is the distinct values of one dimension among the keys of a family
// that agree on every other dimension. fixed renders those other pairs as
// "dim:value" joined by '.'; it is empty for a one-dimension family.
type line struct {
	fixed  string
	values []string
}

// linesAlong splits the keys of fam into lines along dim, ordered by fixed.
// Every line must be exhaustive: this holds the specified dimensions fixed
// and, when several dimensions are summed away, requires the full cross
// product.
func linesAlong(fam availability.PartitionFamily, dim string) []line {
	byFixed := make(map[string][]string)
	for _, k := range fam.Keys {
		v, ok := k.Value(dim)
		if !ok {
			continue
		}
		var fixed []string
		for _, pair := range k.Pairs {
			if pair.Dimension != dim {
				fixed = append(fixed, pair.Dimension+":"+pair.Value)
			}
		}
		label := strings.Join(fixed, ".")
		byFixed[label] = append(byFixed[label], v)
	}

	out := make([]line, 0, len(byFixed))
	for label, values := range byFixed {
		slices.Sort(values)
		out = append(out, line{fixed: label, values: slices.Compact(values)})
	}
	slices.SortFunc(out, func(a, b line) int { return cmp.Compare(a.fixed, b.fixed) })
	return out
}

// Segment groups consecutive decisions with identical selections into
// epochs. Runs of gap days form gap epochs. decisions must be in day order
// without holes.
func Segment(decisions []DayDecision) []Epoch {
	epochs := []Epoch{}
	for _, d := range decisions {
		if n := len(epochs); n > 0 && sameRegime(epochs[n-1], d) {
			epochs[n-1].End = d.Day
			continue
		}
		epochs = append(epochs, Epoch{
			Start:         d.Day,
			End:           d.Day,
			Gap:           d.Gap,
			Dimensions:    d.Dimensions,
			PartitionKeys: slices.Clone(d.PartitionKeys),
		})
	}
	return epochs
}

func sameRegime(e Epoch, d DayDecision) bool {
	if e.Gap || d.Gap {
		return e.Gap == d.Gap
	}
	return e.Dimensions.Equal(d.Dimensions) && slices.Equal(e.PartitionKeys, d.PartitionKeys)
}

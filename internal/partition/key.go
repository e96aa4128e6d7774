// Package partition parses partition keys into structured dimension/value
// pairs and provides DimensionSet, the set algebra the epoch planner uses to
// decide which partition families can answer a query.
//
// Compatibility is always decided on parsed dimension names, never by
// substring matching on the raw key.
package partition

import (
	"fmt"
	"slices"
	"strings"
)

// Pair is one dimension/value clause of a partition key.
type Pair struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

// Key is a parsed partition key.
type Key struct {
	Raw   string `json:"raw"`
	Pairs []Pair `json:"pairs"` // sorted by dimension
}

// Dimensions returns the DimensionSet of k.
func (k Key) Dimensions() DimensionSet {
	dims := make([]string, len(k.Pairs))
	for i, p := range k.Pairs {
		dims[i] = p.Dimension
	}
	return NewDimensionSet(dims...)
}

// Value returns the value k carries for dimension.
func (k Key) Value(dimension string) (string, bool) {
	for _, p := range k.Pairs {
		if p.Dimension == dimension {
			return p.Value, true
		}
	}
	return "", false
}

// Parse parses a partition key.
//
// The empty string is the unpartitioned key. Otherwise the key is a list of
// clauses separated by '.' outside parentheses; each clause is either
// "dimension:value" or "wrapper(dimension:value)", e.g.
// "context(channel:web).context(device:mobile)". A dimension may appear at
// most once.
func Parse(raw string) (Key, error) {
	if raw == "" {
		return Key{Raw: raw, Pairs: []Pair{}}, nil
	}

	clauses, err := splitClauses(raw)
	if err != nil {
		return Key{}, err
	}

	pairs := make([]Pair, 0, len(clauses))
	seen := make(map[string]bool, len(clauses))
	for _, clause := range clauses {
		p, err := parseClause(clause)
		if err != nil {
			return Key{}, fmt.Errorf("partition key %q: %w", raw, err)
		}
		if seen[p.Dimension] {
			return Key{}, fmt.Errorf("partition key %q: dimension %q repeated", raw, p.Dimension)
		}
		seen[p.Dimension] = true
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return strings.Compare(a.Dimension, b.Dimension) })

	return Key{Raw: raw, Pairs: pairs}, nil
}

func splitClauses(raw string) ([]string, error) {
	var (
		clauses []string
		depth   int
		start   int
	)
	for i, r := range raw {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("partition key %q: unbalanced ')' at %d", raw, i)
			}
		case '.':
			if depth == 0 {
				clauses = append(clauses, raw[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("partition key %q: unclosed '('", raw)
	}
	return append(clauses, raw[start:]), nil
}

func parseClause(clause string) (Pair, error) {
	body := clause
	if open := strings.IndexByte(clause, '('); open >= 0 {
		if !strings.HasSuffix(clause, ")") || open == 0 {
			return Pair{}, fmt.Errorf("malformed clause %q", clause)
		}
		body = clause[open+1 : len(clause)-1]
	}

	dim, value, ok := strings.Cut(body, ":")
	if !ok {
		return Pair{}, fmt.Errorf("clause %q has no ':'", clause)
	}
	dim = strings.TrimSpace(dim)
	value = strings.TrimSpace(value)
	if dim == "" {
		return Pair{}, fmt.Errorf("clause %q has an empty dimension", clause)
	}
	if value == "" {
		return Pair{}, fmt.Errorf("clause %q has an empty value", clause)
	}
	if strings.ContainsAny(dim, "():") {
		return Pair{}, fmt.Errorf("clause %q has an invalid dimension", clause)
	}
	return Pair{Dimension: dim, Value: value}, nil
}

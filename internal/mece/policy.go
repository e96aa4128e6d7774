// Package mece loads the partition exhaustiveness policy used as the epoch
// planner's oracle.
//
// A policy is a CUE document that declares, per dimension, the complete
// value set of a MECE partition. Owners may override individual dimensions:
//
//	dimensions: {
//		channel: values: ["web", "app"]
//		device: {values: ["ios", "android"], allow_extra: true}
//	}
//	owners: "acme": dimensions: channel: values: ["web", "app", "kiosk"]
//
// The policy only answers yes or no. It never infers a partition from data.
package mece

import (
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/snapledger/internal/partition"
)

// schema constrains policy documents. Definitions are closed, so unknown
// fields inside a dimension rule are errors.
const schema = `
#Dimension: {
	values:      [string, ...string]
	allow_extra: bool | *false
}
dimensions: [string]: #Dimension
owners: [string]: dimensions: [string]: #Dimension
`

// Rule is the declared complete value set of one dimension.
type Rule struct {
	Values []string `json:"values"`

	// AllowExtra accepts observed values outside Values. When false an
	// unknown value means the policy is stale and the partition is refused.
	AllowExtra bool `json:"allow_extra"`
}

type ownerDoc struct {
	Dimensions map[string]Rule `json:"dimensions"`
}

type document struct {
	Dimensions map[string]Rule     `json:"dimensions"`
	Owners     map[string]ownerDoc `json:"owners"`
}

// Policy is a compiled policy document. It is immutable and safe for
// concurrent use.
type Policy struct {
	global map[string]Rule
	owners map[string]map[string]Rule
}

// Error is a policy compilation failure with its source position.
type Error struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Load reads and compiles the policy at path.
func Load(path string) (*Policy, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Compile(path, src)
}

// Compile compiles a policy document. filename is used in error positions.
func Compile(filename string, src []byte) (*Policy, error) {
	ctx := cuecontext.New()

	sv := ctx.CompileString(schema, cue.Filename("schema.cue"))
	if err := sv.Err(); err != nil {
		return nil, fmt.Errorf("compile policy schema: %w", err)
	}

	dv := ctx.CompileBytes(src, cue.Filename(filename))
	if err := dv.Err(); err != nil {
		return nil, formatCUEError(filename, err)
	}

	v := sv.Unify(dv)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(filename, err)
	}

	var doc document
	if err := v.Decode(&doc); err != nil {
		return nil, formatCUEError(filename, err)
	}

	p := &Policy{
		global: normalize(doc.Dimensions),
		owners: make(map[string]map[string]Rule, len(doc.Owners)),
	}
	for owner, od := range doc.Owners {
		p.owners[owner] = normalize(od.Dimensions)
	}
	return p, nil
}

func normalize(rules map[string]Rule) map[string]Rule {
	out := make(map[string]Rule, len(rules))
	for dim, r := range rules {
		values := slices.Clone(r.Values)
		slices.Sort(values)
		out[dim] = Rule{Values: slices.Compact(values), AllowExtra: r.AllowExtra}
	}
	return out
}

// Rule returns the rule in force for (owner, dimension): the owner's own
// rule if declared, otherwise the global one.
func (p *Policy) Rule(ownerID, dimension string) (Rule, bool) {
	if rules, ok := p.owners[ownerID]; ok {
		if r, ok := rules[dimension]; ok {
			return r, true
		}
	}
	r, ok := p.global[dimension]
	return r, ok
}

// CanAggregate reports whether observedValues cover the declared value set
// of dimension. Undeclared dimensions are never aggregatable.
//
// specified is accepted for the oracle contract; value sets in a policy do
// not vary with the query's own dimensions.
func (p *Policy) CanAggregate(ownerID, dimension string, observedValues []string, specified partition.DimensionSet) bool {
	r, ok := p.Rule(ownerID, dimension)
	if !ok {
		return false
	}

	seen := make(map[string]bool, len(observedValues))
	for _, v := range observedValues {
		seen[v] = true
	}
	for _, want := range r.Values {
		if !seen[want] {
			return false
		}
	}
	if !r.AllowExtra {
		for v := range seen {
			if _, found := slices.BinarySearch(r.Values, v); !found {
				return false
			}
		}
	}
	return true
}

func formatCUEError(filename string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{File: filename, Message: err.Error()}
	}

	first := errs[0]
	for _, pos := range errors.Positions(first) {
		if pos.Filename() == filename {
			return &Error{File: filename, Line: pos.Line(), Column: pos.Column(), Message: first.Error()}
		}
	}
	return &Error{File: filename, Message: first.Error()}
}

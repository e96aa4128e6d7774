package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/snapledger/internal/api"
	"github.com/roach88/snapledger/internal/epoch"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/partition"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  expected: %s\n  actual:   %s", e.Type, e.Expected, e.Actual)
}

// AssertionContext gives assertions access to the seeded service.
type AssertionContext struct {
	Ctx     context.Context
	Service *api.Service
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertPlanError:
		return assertPlanError(result, a)
	case AssertResolve:
		return assertResolve(actx, a)
	case AssertFamilies:
		return assertFamilies(actx, a)
	}

	if result.Plan == nil {
		return &AssertionError{Type: a.Type, Expected: "a plan", Actual: fmt.Sprintf("planning failed: %v", result.PlanErr)}
	}
	switch a.Type {
	case AssertEpochs:
		return assertEpochs(result.Plan.Epochs, a.Epochs)
	case AssertGapDays:
		if got := result.Plan.GapDays(); got != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Count), Actual: fmt.Sprint(got)}
		}
		return nil
	case AssertDecision:
		return assertDecision(result.Plan.Decisions, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertPlanError(result *Result, a Assertion) error {
	if result.PlanErr == nil {
		return &AssertionError{Type: a.Type, Expected: string(a.Code), Actual: "plan succeeded"}
	}
	var e *ir.Error
	if !errors.As(result.PlanErr, &e) {
		return &AssertionError{Type: a.Type, Expected: string(a.Code), Actual: result.PlanErr.Error()}
	}
	if e.Code != a.Code {
		return &AssertionError{Type: a.Type, Expected: string(a.Code), Actual: string(e.Code)}
	}
	return nil
}

func assertEpochs(got []epoch.Epoch, want []ExpectedEpoch) error {
	actual := make([]string, len(got))
	for i, e := range got {
		actual[i] = renderEpoch(e)
	}
	expected := make([]string, len(want))
	for i, w := range want {
		expected[i] = renderExpected(w)
	}
	if !slices.Equal(actual, expected) {
		return &AssertionError{
			Type:     AssertEpochs,
			Expected: "\n    " + strings.Join(expected, "\n    "),
			Actual:   "\n    " + strings.Join(actual, "\n    "),
		}
	}
	return nil
}

func renderExpected(w ExpectedEpoch) string {
	if w.Gap {
		return w.Days + " gap"
	}
	return w.Days + " " + partition.NewDimensionSet(w.Dimensions...).String() + " " + keyList(w.PartitionKeys)
}

func assertDecision(decisions []epoch.DayDecision, a Assertion) error {
	for _, d := range decisions {
		if d.Day != a.Day {
			continue
		}
		if string(d.GapReason) != a.GapReason {
			return &AssertionError{Type: a.Type, Expected: "gap reason " + quoteOrNone(a.GapReason), Actual: quoteOrNone(string(d.GapReason))}
		}
		if a.Dimensions != nil {
			want := partition.NewDimensionSet(*a.Dimensions...)
			if !d.Dimensions.Equal(want) {
				return &AssertionError{Type: a.Type, Expected: want.String(), Actual: d.Dimensions.String()}
			}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: "decision for " + string(a.Day), Actual: "day not planned"}
}

func assertResolve(actx *AssertionContext, a Assertion) error {
	res, err := actx.Service.Resolve(actx.Ctx, api.ResolveRequest{
		OwnerID:            a.OwnerID,
		ContentAddress:     a.ContentAddress,
		IncludeEquivalents: true,
	})
	if err != nil {
		return fmt.Errorf("resolve %s: %w", a.ContentAddress, err)
	}
	want := slices.Clone(a.Addresses)
	slices.Sort(want)
	if !slices.Equal(res.Addresses, want) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(want), Actual: fmt.Sprint(res.Addresses)}
	}
	return nil
}

func assertFamilies(actx *AssertionContext, a Assertion) error {
	res, err := actx.Service.ListFamilies(actx.Ctx, api.ListFamiliesRequest{OwnerIDs: []string{a.OwnerID}})
	if err != nil {
		return fmt.Errorf("list families %s: %w", a.OwnerID, err)
	}
	if len(res.Families) != a.Count {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Count), Actual: fmt.Sprint(len(res.Families))}
	}
	return nil
}

func quoteOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return fmt.Sprintf("%q", s)
}

package harness

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/snapledger/internal/epoch"
)

// RenderPlan renders a plan as stable, line-oriented text. The scenario
// line is omitted when name is empty.
//
//	scenario: <name>
//	owner: <owner>
//	days: <start..end>
//	epochs:
//	  <start..end> <dimensions> <keys|->
//	  <start..end> gap
//	decisions:
//	  <day> <dimensions> marginalized=<dimensions>
//	  <day> gap <reason>
//	    rejected <dimensions>: <reason>
func RenderPlan(name string, plan epoch.Plan) []byte {
	var b bytes.Buffer
	if name != "" {
		fmt.Fprintf(&b, "scenario: %s\n", name)
	}
	fmt.Fprintf(&b, "owner: %s\n", plan.OwnerID)
	fmt.Fprintf(&b, "days: %s\n", plan.Days)

	b.WriteString("epochs:\n")
	for _, e := range plan.Epochs {
		fmt.Fprintf(&b, "  %s\n", renderEpoch(e))
	}

	b.WriteString("decisions:\n")
	for _, d := range plan.Decisions {
		if d.Gap {
			fmt.Fprintf(&b, "  %s gap %s\n", d.Day, d.GapReason)
		} else {
			fmt.Fprintf(&b, "  %s %s marginalized=%s\n", d.Day, d.Dimensions, d.Marginalized)
		}
		for _, r := range d.Rejected {
			fmt.Fprintf(&b, "    rejected %s: %s\n", r.Dimensions, r.Reason)
		}
	}
	return b.Bytes()
}

func renderEpoch(e epoch.Epoch) string {
	if e.Gap {
		return e.Range().String() + " gap"
	}
	return e.Range().String() + " " + e.Dimensions.String() + " " + keyList(e.PartitionKeys)
}

func keyList(keys []string) string {
	if len(keys) == 0 {
		return "-"
	}
	return strings.Join(keys, ",")
}

// RunWithGolden runs a scenario, fails the test on assertion errors and
// compares the rendered plan with testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario, nil)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	if result.Plan == nil {
		return result, fmt.Errorf("scenario %s produced no plan", scenario.Name)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, RenderPlan(scenario.Name, *result.Plan))
	return result, nil
}

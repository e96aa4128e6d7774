package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/partition"
)

// Scenario is one planning contract test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy is inline MECE policy source (CUE). Empty refuses every
	// marginalization.
	Policy string `yaml:"policy,omitempty"`

	// Registry entries and links are written before planning.
	Registry []RegistryStep `yaml:"registry,omitempty"`
	Links    []LinkStep     `yaml:"links,omitempty"`

	// Plan is the subject to plan. Optional when only registry assertions
	// are made.
	Plan *PlanStep `yaml:"plan,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// RegistryStep registers one signature. ContentAddress defaults to the
// hash of CanonicalSignature.
type RegistryStep struct {
	OwnerID            string                `yaml:"owner_id"`
	ContentAddress     ir.ContentAddress     `yaml:"content_address,omitempty"`
	CanonicalSignature ir.CanonicalSignature `yaml:"canonical_signature"`
}

// LinkStep asserts an equivalence between A and B.
type LinkStep struct {
	OwnerID string            `yaml:"owner_id"`
	A       ir.ContentAddress `yaml:"a"`
	B       ir.ContentAddress `yaml:"b"`
	Reason  string            `yaml:"reason,omitempty"`
}

// PlanStep describes the subject to plan and its availability.
type PlanStep struct {
	OwnerID        string                    `yaml:"owner_id"`
	ContentAddress ir.ContentAddress         `yaml:"content_address"`
	Days           ir.DayRange               `yaml:"days"`
	Specified      partition.DimensionSet    `yaml:"specified,omitempty"`
	InScope        partition.DimensionSet    `yaml:"in_scope,omitempty"`
	Availability   availability.Availability `yaml:"availability"`
}

// Assertion validates the plan or the registry state.
type Assertion struct {
	Type string `yaml:"type"`

	// Epochs is the full expected epoch list (epochs).
	Epochs []ExpectedEpoch `yaml:"epochs,omitempty"`

	// Count is the expected gap-day (gap_days) or family (families) count.
	Count int `yaml:"count,omitempty"`

	// Day, GapReason and Dimensions describe one decision (decision).
	Day        ir.Day    `yaml:"day,omitempty"`
	GapReason  string    `yaml:"gap_reason,omitempty"`
	Dimensions *[]string `yaml:"dimensions,omitempty"`

	// OwnerID, ContentAddress and Addresses describe a closure (resolve).
	// OwnerID also selects the owner for families.
	OwnerID        string              `yaml:"owner_id,omitempty"`
	ContentAddress ir.ContentAddress   `yaml:"content_address,omitempty"`
	Addresses      []ir.ContentAddress `yaml:"addresses,omitempty"`

	// Code is the expected ir error code (plan_error).
	Code ir.ErrorCode `yaml:"code,omitempty"`
}

// ExpectedEpoch is one epoch in an epochs assertion. Days is "start..end".
type ExpectedEpoch struct {
	Days          string   `yaml:"days"`
	Gap           bool     `yaml:"gap,omitempty"`
	Dimensions    []string `yaml:"dimensions,omitempty"`
	PartitionKeys []string `yaml:"partition_keys,omitempty"`
}

// Assertion type constants.
const (
	AssertEpochs    = "epochs"
	AssertGapDays   = "gap_days"
	AssertDecision  = "decision"
	AssertResolve   = "resolve"
	AssertFamilies  = "families"
	AssertPlanError = "plan_error"
)

var assertionTypes = []string{AssertEpochs, AssertGapDays, AssertDecision, AssertResolve, AssertFamilies, AssertPlanError}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Registry {
		if step.OwnerID == "" || step.CanonicalSignature == "" {
			return fmt.Errorf("registry[%d]: owner_id and canonical_signature are required", i)
		}
	}
	for i, step := range s.Links {
		if step.OwnerID == "" || step.A == "" || step.B == "" {
			return fmt.Errorf("links[%d]: owner_id, a and b are required", i)
		}
	}
	if s.Plan != nil {
		if s.Plan.OwnerID == "" || s.Plan.ContentAddress == "" {
			return fmt.Errorf("plan: owner_id and content_address are required")
		}
		if s.Plan.Days.Start == "" || s.Plan.Days.End == "" {
			return fmt.Errorf("plan: days.start and days.end are required")
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, s.Plan != nil); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, hasPlan bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if !slices.Contains(assertionTypes, a.Type) {
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}

	switch a.Type {
	case AssertEpochs, AssertGapDays, AssertDecision, AssertPlanError:
		if !hasPlan {
			return fmt.Errorf("assertions[%d]: %s requires a plan", index, a.Type)
		}
	}

	switch a.Type {
	case AssertEpochs:
		if len(a.Epochs) == 0 {
			return fmt.Errorf("assertions[%d]: epochs is required", index)
		}
	case AssertDecision:
		if a.Day == "" {
			return fmt.Errorf("assertions[%d]: day is required", index)
		}
	case AssertResolve:
		if a.OwnerID == "" || a.ContentAddress == "" {
			return fmt.Errorf("assertions[%d]: owner_id and content_address are required", index)
		}
	case AssertFamilies:
		if a.OwnerID == "" {
			return fmt.Errorf("assertions[%d]: owner_id is required", index)
		}
	case AssertPlanError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required", index)
		}
	}
	return nil
}

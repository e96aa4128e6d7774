package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/snapledger/internal/api"
	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/epoch"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/logger"
	"github.com/roach88/snapledger/internal/mece"
	"github.com/roach88/snapledger/internal/store"
	"github.com/roach88/snapledger/internal/testutil"
)

// scenarioEpoch is the frozen start of every scenario's clock.
var scenarioEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes a scenario in a fresh in-memory store and evaluates its
// assertions. The returned error covers setup failures (bad policy, a
// rejected registry step); planning errors are captured in the Result for
// plan_error assertions.
func Run(ctx context.Context, scenario *Scenario, log *logger.Logger) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	var oracle epoch.Oracle
	if scenario.Policy != "" {
		policy, err := mece.Compile(scenario.Name+".cue", []byte(scenario.Policy))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		oracle = policy
	}

	svc := api.New(st, api.Options{
		Clock:  testutil.NewSteppingClock(scenarioEpoch, time.Second),
		IDs:    testutil.NewSequentialIDs("link"),
		Logger: log,
		Oracle: oracle,
	})

	if err := seed(ctx, svc, scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	if p := scenario.Plan; p != nil {
		avail := p.Availability
		if avail == nil {
			avail = availability.Availability{}
		}
		plan, err := svc.Plan(ctx, api.PlanRequest{
			Subject:      availability.Subject{OwnerID: p.OwnerID, Address: p.ContentAddress},
			Days:         p.Days,
			Specified:    p.Specified.Names(),
			InScope:      p.InScope.Names(),
			Availability: avail,
		})
		if err != nil {
			result.PlanErr = err
		} else {
			result.Plan = &plan
		}
	}

	actx := &AssertionContext{Ctx: ctx, Service: svc}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func seed(ctx context.Context, svc *api.Service, scenario *Scenario) error {
	for i, step := range scenario.Registry {
		addr := step.ContentAddress
		if addr == "" {
			hashed, err := ir.ContentAddressOf(step.CanonicalSignature)
			if err != nil {
				return fmt.Errorf("registry[%d]: %w", i, err)
			}
			addr = hashed
		}
		if _, err := svc.Register(ctx, api.RegisterRequest{
			OwnerID:            step.OwnerID,
			ContentAddress:     addr,
			CanonicalSignature: step.CanonicalSignature,
		}); err != nil {
			return fmt.Errorf("registry[%d]: %w", i, err)
		}
	}

	for i, step := range scenario.Links {
		reason := step.Reason
		if reason == "" {
			reason = "scenario"
		}
		if _, err := svc.CreateLink(ctx, api.LinkRequest{
			OwnerID:   step.OwnerID,
			AddressA:  step.A,
			AddressB:  step.B,
			CreatedBy: "harness",
			Reason:    reason,
		}); err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
	}
	return nil
}

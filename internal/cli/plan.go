package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/snapledger/internal/api"
	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/epoch"
	"github.com/roach88/snapledger/internal/harness"
	"github.com/roach88/snapledger/internal/ir"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Owner            string
	Addresses        []string
	Start            string
	End              string
	Specified        []string
	InScope          []string
	AvailabilityPath string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan partition regimes over a day range",
		Long: `Choose one partition regime per day and group the days into epochs.

Availability is read from --availability (one subject only), or fetched for
every --address from the configured availability directory.

Examples:
  snapledger plan --owner acme --address h1 --start 2025-01-01 --end 2025-01-31 \
      --in-scope channel --availability h1.yaml
  snapledger plan --owner acme --address h1 --address h2 --start 2025-01-01 --end 2025-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner id")
	cmd.Flags().StringSliceVar(&opts.Addresses, "address", nil, "content address (repeatable)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.End, "end", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&opts.Specified, "specified", nil, "dimensions the query slices by")
	cmd.Flags().StringSliceVar(&opts.InScope, "in-scope", nil, "dimensions that may be summed away")
	cmd.Flags().StringVar(&opts.AvailabilityPath, "availability", "", "availability file (YAML or JSON)")
	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	if len(opts.Addresses) == 0 {
		return out.Fail(ir.NewValidationError("content_address", "at least one --address is required"))
	}

	var inline availability.Availability
	if opts.AvailabilityPath != "" {
		if len(opts.Addresses) > 1 {
			return out.Fail(NewExitError(ExitCommandError, "--availability applies to a single --address"))
		}
		data, err := os.ReadFile(opts.AvailabilityPath)
		if err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "read availability", err))
		}
		if err := yaml.Unmarshal(data, &inline); err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "parse availability", err))
		}
		if inline == nil {
			inline = availability.Availability{}
		}
	}

	reqs := make([]api.PlanRequest, len(opts.Addresses))
	for i, addr := range opts.Addresses {
		reqs[i] = api.PlanRequest{
			Subject:      availability.Subject{OwnerID: opts.Owner, Address: ir.ContentAddress(addr)},
			Days:         ir.DayRange{Start: ir.Day(opts.Start), End: ir.Day(opts.End)},
			Specified:    opts.Specified,
			InScope:      opts.InScope,
			Availability: inline,
		}
	}

	sess, err := opts.open()
	if err != nil {
		return out.Fail(err)
	}
	defer sess.Close()

	plans, err := sess.svc.PlanMany(cmd.Context(), reqs)
	if errors.Is(err, api.ErrNoObserver) {
		return out.Fail(WrapExitError(ExitCommandError, "pass --availability or set availability.dir", err))
	}
	if err != nil {
		return out.Fail(err)
	}

	var b strings.Builder
	for i, p := range plans {
		b.WriteString("address: " + opts.Addresses[i] + "\n")
		b.Write(harness.RenderPlan("", p))
	}
	if len(plans) == 1 {
		return out.Success(plans[0], b.String())
	}
	return out.Success(plansByAddress(opts.Addresses, plans), b.String())
}

func plansByAddress(addrs []string, plans []epoch.Plan) map[string]epoch.Plan {
	m := make(map[string]epoch.Plan, len(plans))
	for i, p := range plans {
		m[addrs[i]] = p
	}
	return m
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/snapledger/internal/api"
	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/ir"
)

// AvailabilityOptions holds flags for the availability command.
type AvailabilityOptions struct {
	*RootOptions
	Owner            string
	Address          string
	Start            string
	End              string
	AvailabilityPath string
	Refresh          bool
}

// NewAvailabilityCommand creates the availability command.
func NewAvailabilityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AvailabilityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show the partition families stored per day",
		Long: `List, for each stored day in range, every retrieval group newest first
with the partition families it holds and any keys that could not be parsed.
The latest group is the one plan considers.

Availability is read from --availability, or from the configured
availability directory. --refresh ignores cached availability.

Example:
  snapledger availability --owner acme --address h1 --start 2025-01-01 --end 2025-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAvailability(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner id")
	cmd.Flags().StringVar(&opts.Address, "address", "", "content address")
	cmd.Flags().StringVar(&opts.Start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.End, "end", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.AvailabilityPath, "availability", "", "availability file (YAML or JSON)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached availability")
	return cmd
}

func runAvailability(opts *AvailabilityOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	req := api.AvailabilityRequest{
		Subject: availability.Subject{OwnerID: opts.Owner, Address: ir.ContentAddress(opts.Address)},
		Days:    ir.DayRange{Start: ir.Day(opts.Start), End: ir.Day(opts.End)},
		Refresh: opts.Refresh,
	}
	if opts.AvailabilityPath != "" {
		data, err := os.ReadFile(opts.AvailabilityPath)
		if err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "read availability", err))
		}
		if err := yaml.Unmarshal(data, &req.Availability); err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "parse availability", err))
		}
		if req.Availability == nil {
			req.Availability = availability.Availability{}
		}
	}

	sess, err := opts.open()
	if err != nil {
		return out.Fail(err)
	}
	defer sess.Close()

	resp, err := sess.svc.Availability(cmd.Context(), req)
	if errors.Is(err, api.ErrNoObserver) {
		return out.Fail(WrapExitError(ExitCommandError, "pass --availability or set availability.dir", err))
	}
	if err != nil {
		return out.Fail(err)
	}
	return out.Success(resp, renderAvailability(resp))
}

func renderAvailability(resp api.AvailabilityResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "subject: %s\n", resp.Subject)
	if len(resp.Days) == 0 {
		b.WriteString("no stored days\n")
		return b.String()
	}
	for _, d := range resp.Days {
		b.WriteString(string(d.Day) + "\n")
		for _, g := range d.Groups {
			fmt.Fprintf(&b, "  %s", g.ObservedAt.UTC().Format(time.RFC3339))
			if g.Latest {
				b.WriteString(" latest")
			}
			b.WriteString("\n")
			for _, f := range g.Families {
				keys := "-"
				if ks := f.KeyStrings(); len(ks) > 0 && ks[0] != "" {
					keys = strings.Join(ks, ",")
				}
				fmt.Fprintf(&b, "    %s %s rows=%d\n", f.Dimensions, keys, f.RowCount)
			}
			for _, sk := range g.Skipped {
				fmt.Fprintf(&b, "    skipped %q: %s\n", sk.PartitionKey, sk.Reason)
			}
		}
	}
	return b.String()
}

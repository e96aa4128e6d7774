package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/snapledger/internal/api"
	"github.com/roach88/snapledger/internal/family"
	"github.com/roach88/snapledger/internal/ir"
)

// FamiliesOptions holds flags for the families command.
type FamiliesOptions struct {
	*RootOptions
	Owners           []string
	SummariesPath    string
	CurrentAddress   map[string]string
	CurrentSignature map[string]string
	UnlinkedCap      int
}

// NewFamiliesCommand creates the families command.
func NewFamiliesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FamiliesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "families",
		Short: "Group registered addresses into signature families",
		Long: `Group each owner's registered addresses into families connected by active
links, and aggregate fact summaries per family.

Summaries are read from a YAML or JSON list of
{owner_id, content_address, partition_key, row_count, earliest_day,
latest_day, latest_observed_at} records.

Example:
  snapledger families --owner acme --summaries facts.yaml --current-signature acme='select ...'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFamilies(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Owners, "owner", nil, "owner id (repeatable)")
	cmd.Flags().StringVar(&opts.SummariesPath, "summaries", "", "fact summaries file (YAML or JSON)")
	cmd.Flags().StringToStringVar(&opts.CurrentAddress, "current-address", nil, "owner=address the caller queries under")
	cmd.Flags().StringToStringVar(&opts.CurrentSignature, "current-signature", nil, "owner=signature the caller queries under")
	cmd.Flags().IntVar(&opts.UnlinkedCap, "unlinked-cap", 0, "maximum unlinked addresses listed (0 = configured default)")
	return cmd
}

func runFamilies(opts *FamiliesOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	req := api.ListFamiliesRequest{OwnerIDs: opts.Owners, UnlinkedCap: opts.UnlinkedCap}
	if opts.SummariesPath != "" {
		data, err := os.ReadFile(opts.SummariesPath)
		if err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "read summaries", err))
		}
		if err := yaml.Unmarshal(data, &req.Summaries); err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "parse summaries", err))
		}
	}
	if len(opts.CurrentAddress)+len(opts.CurrentSignature) > 0 {
		req.Current = make(map[string]family.Current)
		for owner, addr := range opts.CurrentAddress {
			c := req.Current[owner]
			c.Address = ir.ContentAddress(addr)
			req.Current[owner] = c
		}
		for owner, sig := range opts.CurrentSignature {
			c := req.Current[owner]
			c.Signature = ir.CanonicalSignature(sig)
			req.Current[owner] = c
		}
	}

	sess, err := opts.open()
	if err != nil {
		return out.Fail(err)
	}
	defer sess.Close()

	res, err := sess.svc.ListFamilies(cmd.Context(), req)
	if err != nil {
		return out.Fail(err)
	}
	return out.Success(res, renderFamilies(res))
}

func renderFamilies(res family.Result) string {
	var b strings.Builder
	for _, f := range res.Families {
		fmt.Fprintf(&b, "family %s  owner %s  %d member(s)\n", f.FamilyID, f.OwnerID, len(f.Members))
		if f.Totals.Groups > 0 {
			fmt.Fprintf(&b, "  rows %d  days %s..%s  groups %d\n",
				f.Totals.RowCount, f.Totals.EarliestDay, f.Totals.LatestDay, f.Totals.Groups)
		}
		for _, m := range f.Members {
			state := "registered"
			if !m.Registered {
				state = "linked only"
			}
			fmt.Fprintf(&b, "  %s  %s\n", m.Address, state)
		}
		for _, p := range f.Partitions {
			key := p.PartitionKey
			if key == "" {
				key = "(unpartitioned)"
			}
			fmt.Fprintf(&b, "  partition %s  rows %d\n", key, p.RowCount)
		}
	}

	for _, c := range res.Current {
		fmt.Fprintf(&b, "current %s %s: %s", c.OwnerID, c.Address, c.Match)
		if c.FamilyID != "" {
			fmt.Fprintf(&b, " (family %s)", c.FamilyID)
		}
		if c.SignatureMatches != nil && !*c.SignatureMatches {
			b.WriteString(" signature differs from registry")
		}
		b.WriteString("\n")
	}

	if res.Unlinked.Total > 0 {
		fmt.Fprintf(&b, "unlinked: %d", res.Unlinked.Total)
		if res.Unlinked.Truncated {
			fmt.Fprintf(&b, " (showing %d)", len(res.Unlinked.Addresses))
		}
		b.WriteString("\n")
		for _, u := range res.Unlinked.Addresses {
			fmt.Fprintf(&b, "  %s/%s\n", u.OwnerID, u.Address)
		}
	}
	if res.UnattributedGroups > 0 {
		fmt.Fprintf(&b, "unattributed groups: %d\n", res.UnattributedGroups)
	}
	if b.Len() == 0 {
		b.WriteString("no families\n")
	}
	return b.String()
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/snapledger/internal/api"
	"github.com/roach88/snapledger/internal/ir"
)

type linkFlags struct {
	owner  string
	by     string
	reason string
}

func (f *linkFlags) bind(cmd *cobra.Command, byName string) {
	cmd.Flags().StringVar(&f.owner, "owner", "", "owner id")
	cmd.Flags().StringVar(&f.by, byName, "", "operator recorded in the audit trail")
	cmd.Flags().StringVar(&f.reason, "reason", "", "reason recorded in the audit trail")
}

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	var f linkFlags

	cmd := &cobra.Command{
		Use:   "link <address-a> <address-b>",
		Short: "Assert that two content addresses are equivalent",
		Long: `Assert that two content addresses of one owner describe the same query.

Links are undirected and audited. Linking a pair that already has an active
link returns the existing link.

Example:
  snapledger link --owner acme --by alice --reason "normalizer v2" h1 h2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			sess, err := rootOpts.open()
			if err != nil {
				return out.Fail(err)
			}
			defer sess.Close()

			res, err := sess.svc.CreateLink(cmd.Context(), api.LinkRequest{
				OwnerID:   f.owner,
				AddressA:  ir.ContentAddress(args[0]),
				AddressB:  ir.ContentAddress(args[1]),
				CreatedBy: f.by,
				Reason:    f.reason,
			})
			if err != nil {
				return out.Fail(err)
			}

			verb := "linked"
			if !res.Created {
				verb = "already linked"
			}
			return out.Success(res, fmt.Sprintf("%s %s <-> %s (%s)\n", verb, res.Link.A, res.Link.B, res.Link.ID))
		},
	}
	f.bind(cmd, "by")
	return cmd
}

// NewUnlinkCommand creates the unlink command.
func NewUnlinkCommand(rootOpts *RootOptions) *cobra.Command {
	var f linkFlags

	cmd := &cobra.Command{
		Use:   "unlink <address-a> <address-b>",
		Short: "Deactivate the link between two content addresses",
		Long: `Deactivate the active link between two content addresses.

The row is kept for audit. Unlinking a pair with no active link is not an
error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			sess, err := rootOpts.open()
			if err != nil {
				return out.Fail(err)
			}
			defer sess.Close()

			res, err := sess.svc.DeactivateLink(cmd.Context(), api.UnlinkRequest{
				OwnerID:       f.owner,
				AddressA:      ir.ContentAddress(args[0]),
				AddressB:      ir.ContentAddress(args[1]),
				DeactivatedBy: f.by,
				Reason:        f.reason,
			})
			if err != nil {
				return out.Fail(err)
			}

			text := fmt.Sprintf("unlinked %s <-> %s\n", args[0], args[1])
			if !res.Deactivated {
				text = fmt.Sprintf("no active link between %s and %s\n", args[0], args[1])
			}
			return out.Success(res, text)
		},
	}
	f.bind(cmd, "by")
	return cmd
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		owner string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "links",
		Short: "Show an owner's link history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			if strings.TrimSpace(owner) == "" {
				return out.Fail(ir.NewValidationError("owner_id", "owner id is required"))
			}

			sess, err := rootOpts.open()
			if err != nil {
				return out.Fail(err)
			}
			defer sess.Close()

			edges, err := sess.svc.LinkHistory(cmd.Context(), owner, all)
			if err != nil {
				return out.Fail(err)
			}

			var b strings.Builder
			for _, e := range edges {
				state := "active"
				if !e.Active {
					state = "inactive"
				}
				fmt.Fprintf(&b, "%s  %s <-> %s  %s  by %s: %s\n",
					e.ID, e.A, e.B, state, e.CreatedBy, e.Reason)
				if e.DeactivatedAt != nil {
					fmt.Fprintf(&b, "  deactivated %s by %s: %s\n",
						e.DeactivatedAt.Format(time.RFC3339), e.DeactivatedBy, e.DeactivationReason)
				}
			}
			if len(edges) == 0 {
				b.WriteString("no links\n")
			}
			return out.Success(edges, b.String())
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id")
	cmd.Flags().BoolVar(&all, "all", false, "include deactivated links")
	return cmd
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		owner    string
		strict   bool
		maxNodes int
	)

	cmd := &cobra.Command{
		Use:   "resolve <address>",
		Short: "List the addresses equivalent to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			sess, err := rootOpts.open()
			if err != nil {
				return out.Fail(err)
			}
			defer sess.Close()

			res, err := sess.svc.Resolve(cmd.Context(), api.ResolveRequest{
				OwnerID:            owner,
				ContentAddress:     ir.ContentAddress(args[0]),
				IncludeEquivalents: !strict,
				MaxNodes:           maxNodes,
			})
			if err != nil {
				return out.Fail(err)
			}

			var b strings.Builder
			for _, a := range res.Addresses {
				fmt.Fprintln(&b, a)
			}
			return out.Success(res, b.String())
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id")
	cmd.Flags().BoolVar(&strict, "strict", false, "return only the address itself")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "closure bound (0 = configured default)")
	return cmd
}

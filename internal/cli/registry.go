package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/snapledger/internal/api"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/signature"
)

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash [signature]",
		Short: "Compute the content address of a canonical signature",
		Long: `Compute the content address of a canonical signature.

The signature is read from the argument, or from stdin when the argument
is omitted or "-". It is hashed exactly as given.

Example:
  snapledger hash 'select clicks from ads where day = :day'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)

			sig, err := signatureArg(cmd, args)
			if err != nil {
				return out.Fail(err)
			}
			addr, err := ir.ContentAddressOf(sig)
			if err != nil {
				return out.Fail(err)
			}
			return out.Success(map[string]string{
				"content_address": string(addr),
				"algo_version":    ir.AlgoVersion,
			}, string(addr)+"\n")
		},
	}
}

func signatureArg(cmd *cobra.Command, args []string) (ir.CanonicalSignature, error) {
	if len(args) == 1 && args[0] != "-" {
		return ir.CanonicalSignature(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", WrapExitError(ExitCommandError, "read signature", err)
	}
	return ir.CanonicalSignature(strings.TrimSuffix(string(data), "\n")), nil
}

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Owner    string
	Address  string
	Evidence string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register [signature]",
		Short: "Register a canonical signature",
		Long: `Register a canonical signature under an owner.

The content address defaults to the hash of the signature. Registration is
idempotent: an existing (owner, address) entry is returned unchanged.

Example:
  snapledger register --owner acme --evidence '{"source":"v2"}' 'select ...'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner id")
	cmd.Flags().StringVar(&opts.Address, "address", "", "content address (default: hash of signature)")
	cmd.Flags().StringVar(&opts.Evidence, "evidence", "", "evidence JSON document")
	return cmd
}

func runRegister(opts *RegisterOptions, cmd *cobra.Command, args []string) error {
	out := opts.formatter(cmd)

	sig, err := signatureArg(cmd, args)
	if err != nil {
		return out.Fail(err)
	}
	addr := ir.ContentAddress(opts.Address)
	if addr == "" && strings.TrimSpace(string(sig)) != "" {
		if addr, err = ir.ContentAddressOf(sig); err != nil {
			return out.Fail(err)
		}
	}

	sess, err := opts.open()
	if err != nil {
		return out.Fail(err)
	}
	defer sess.Close()

	res, err := sess.svc.Register(cmd.Context(), api.RegisterRequest{
		OwnerID:            opts.Owner,
		ContentAddress:     addr,
		CanonicalSignature: sig,
		Evidence:           []byte(opts.Evidence),
	})
	if err != nil {
		return out.Fail(err)
	}

	verb := "registered"
	if !res.Inserted {
		verb = "already registered"
	}
	return out.Success(res, fmt.Sprintf("%s %s/%s\n", verb, res.Entry.OwnerID, res.Entry.Address))
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "get <address>",
		Short: "Show one registry entry",
		Args:  cobra.ExactArgs(1),
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

			entry, found, err := sess.svc.Get(cmd.Context(), owner, ir.ContentAddress(args[0]))
			if err != nil {
				return out.Fail(err)
			}
			if !found {
				return out.Fail(NewExitError(ExitFailure, fmt.Sprintf("%s/%s is not registered", owner, args[0])))
			}

			var b strings.Builder
			writeEntry(&b, entry)
			fmt.Fprintf(&b, "  signature: %s\n", entry.Signature)
			fmt.Fprintf(&b, "  evidence:  %s\n", entry.Evidence)
			return out.Success(entry, b.String())
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id")
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		owner string
		since string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's registry entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)

			var listOpts signature.ListOptions
			listOpts.Limit = limit
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return out.Fail(ir.NewValidationError("since", fmt.Sprintf("invalid RFC 3339 time %q", since)))
				}
				listOpts.Since = &t
			}

			sess, err := rootOpts.open()
			if err != nil {
				return out.Fail(err)
			}
			defer sess.Close()

			entries, err := sess.svc.List(cmd.Context(), owner, listOpts)
			if err != nil {
				return out.Fail(err)
			}

			var b strings.Builder
			for _, e := range entries {
				writeEntry(&b, e)
			}
			if len(entries) == 0 {
				b.WriteString("no entries\n")
			}
			return out.Success(entries, b.String())
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id")
	cmd.Flags().StringVar(&since, "since", "", "only entries created at or after (RFC 3339)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries (0 = configured default)")
	return cmd
}

func writeEntry(w io.Writer, e ir.RegistryEntry) {
	fmt.Fprintf(w, "%s  %s  %s  %s\n", e.Address, e.OwnerID, e.CreatedAt.Format(time.RFC3339), e.AlgoVersion)
}

package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/snapledger/internal/api"
	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/config"
	"github.com/roach88/snapledger/internal/epoch"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/logger"
	"github.com/roach88/snapledger/internal/mece"
	"github.com/roach88/snapledger/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file path
	DB      string // overrides store.path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the snapledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "snapledger",
		Short: "snapledger - snapshot identity and regime planning",
		Long: `Register canonical query signatures, link equivalent content addresses,
inspect signature families and stored availability, and plan partition
regimes over a day range.`,
		Version:       ir.EngineVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database path (overrides config)")

	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewUnlinkCommand(opts))
	cmd.AddCommand(NewLinksCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewFamiliesCommand(opts))
	cmd.AddCommand(NewAvailabilityCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// session is an opened service with the resources it owns.
type session struct {
	svc   *api.Service
	store *store.Store
	log   *logger.Logger
}

func (s *session) Close() {
	s.log.Sync()
	s.store.Close()
}

// open loads configuration, the optional MECE policy and the store.
func (o *RootOptions) open() (*session, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if o.DB != "" {
		cfg.Store.Path = o.DB
	}
	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}

	log, err := logger.New(cfg.Log.Mode, level)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "create logger", err)
	}

	var oracle epoch.Oracle
	if cfg.Planner.PolicyPath != "" {
		policy, err := mece.Load(cfg.Planner.PolicyPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load policy", err)
		}
		oracle = policy
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}

	svcOpts := api.Options{
		Logger:       log,
		ListLimit:    cfg.Registry.ListLimit,
		MaxListLimit: cfg.Registry.MaxListLimit,
		MaxNodes:     cfg.Equivalence.MaxNodes,
		UnlinkedCap:  cfg.Family.UnlinkedCap,
		Oracle:       oracle,
		Concurrency:  cfg.Availability.Concurrency,
	}
	if cfg.Availability.Dir != "" {
		svcOpts.Source = availability.DirSource{Root: cfg.Availability.Dir}
		svcOpts.Cache = availability.NewCache(cfg.Availability.CacheTTL, nil)
	}
	svc := api.New(st, svcOpts)
	return &session{svc: svc, store: st, log: log}, nil
}

// Package api is the registration and planning surface of snapledger:
// register, createLink, deactivateLink, resolve, listFamilies, availability
// and plan.
//
// Request and response shapes are the contract; transport framing is left
// to callers (the CLI is one). Requests are validated with struct tags and
// failures surface as ir ValidationErrors naming the JSON field.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/snapledger/internal/availability"
	"github.com/roach88/snapledger/internal/clock"
	"github.com/roach88/snapledger/internal/epoch"
	"github.com/roach88/snapledger/internal/family"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/logger"
	"github.com/roach88/snapledger/internal/partition"
	"github.com/roach88/snapledger/internal/signature"
	"github.com/roach88/snapledger/internal/store"
)

// ErrNoObserver is returned when a plan needs availability but the service
// has no Source configured.
var ErrNoObserver = errors.New("no availability source configured")

// Options wires a Service. Zero values select defaults.
type Options struct {
	Clock  clock.Clock
	IDs    signature.IDGenerator
	Logger *logger.Logger

	ListLimit    int
	MaxListLimit int
	MaxNodes     int
	UnlinkedCap  int

	// Oracle decides marginalization; nil refuses every partition.
	Oracle epoch.Oracle

	// Source enables fetching availability; Cache is optional.
	Source      availability.Source
	Cache       *availability.Cache
	Concurrency int
}

// Service composes the registry, link store, resolver, family aggregator
// and planner over one Store.
type Service struct {
	store       *store.Store
	registry    *signature.Registry
	links       *signature.Links
	resolver    *signature.Resolver
	planner     *epoch.Planner
	observer    *availability.Observer
	unlinkedCap int
	log         *logger.Logger
}

// New creates a Service over st.
func New(st *store.Store, opts Options) *Service {
	log := logger.OrNop(opts.Logger)
	s := &Service{
		store: st,
		registry: signature.NewRegistry(st, signature.RegistryOptions{
			Clock:        opts.Clock,
			Logger:       log,
			ListLimit:    opts.ListLimit,
			MaxListLimit: opts.MaxListLimit,
		}),
		links: signature.NewLinks(st, signature.LinkOptions{
			Clock:  opts.Clock,
			IDs:    opts.IDs,
			Logger: log,
		}),
		resolver:    signature.NewResolver(st, opts.MaxNodes, log),
		planner:     epoch.NewPlanner(opts.Oracle, log),
		unlinkedCap: opts.UnlinkedCap,
		log:         log,
	}
	if opts.Source != nil {
		s.observer = availability.NewObserver(opts.Source, availability.ObserverOptions{
			Cache:       opts.Cache,
			Concurrency: opts.Concurrency,
			Logger:      log,
		})
	}
	return s
}

// Register stores a canonical signature under an explicit address.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	if err := validateRequest(req); err != nil {
		return RegisterResponse{}, err
	}
	entry, inserted, err := s.registry.Register(ctx, req.OwnerID, req.ContentAddress, req.CanonicalSignature, req.Evidence)
	if err != nil {
		return RegisterResponse{}, err
	}
	return RegisterResponse{Entry: entry, Inserted: inserted}, nil
}

// Get returns one registry entry; found is false when absent.
func (s *Service) Get(ctx context.Context, ownerID string, addr ir.ContentAddress) (ir.RegistryEntry, bool, error) {
	return s.registry.Get(ctx, ownerID, addr)
}

// List returns an owner's entries newest first.
func (s *Service) List(ctx context.Context, ownerID string, opts signature.ListOptions) ([]ir.RegistryEntry, error) {
	return s.registry.List(ctx, ownerID, opts)
}

// CreateLink asserts an equivalence between two addresses.
func (s *Service) CreateLink(ctx context.Context, req LinkRequest) (LinkResponse, error) {
	if err := validateRequest(req); err != nil {
		return LinkResponse{}, err
	}
	edge, created, err := s.links.CreateLink(ctx, req.toCore())
	if err != nil {
		return LinkResponse{}, err
	}
	return LinkResponse{Link: edge, Created: created}, nil
}

// DeactivateLink withdraws an equivalence.
func (s *Service) DeactivateLink(ctx context.Context, req UnlinkRequest) (UnlinkResponse, error) {
	if err := validateRequest(req); err != nil {
		return UnlinkResponse{}, err
	}
	changed, err := s.links.DeactivateLink(ctx, req.toCore())
	if err != nil {
		return UnlinkResponse{}, err
	}
	return UnlinkResponse{Deactivated: changed}, nil
}

// LinkHistory returns an owner's links, optionally including inactive rows.
func (s *Service) LinkHistory(ctx context.Context, ownerID string, includeInactive bool) ([]ir.EquivalenceEdge, error) {
	return s.links.History(ctx, ownerID, includeInactive)
}

// Resolve returns the equivalence closure of an address.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResponse, error) {
	if err := validateRequest(req); err != nil {
		return ResolveResponse{}, err
	}
	addrs, err := s.resolver.Resolve(ctx, req.OwnerID, req.ContentAddress, req.IncludeEquivalents, req.MaxNodes)
	if err != nil {
		return ResolveResponse{}, err
	}
	return ResolveResponse{Addresses: addrs}, nil
}

// ListFamilies loads the owners' registry entries and active links and
// aggregates them with the supplied fact summaries.
func (s *Service) ListFamilies(ctx context.Context, req ListFamiliesRequest) (family.Result, error) {
	if err := validateRequest(req); err != nil {
		return family.Result{}, err
	}

	entries, err := s.store.SignaturesForOwners(ctx, req.OwnerIDs)
	if err != nil {
		return family.Result{}, fmt.Errorf("list families: %w", err)
	}
	edges, err := s.store.ActiveLinksForOwners(ctx, req.OwnerIDs)
	if err != nil {
		return family.Result{}, fmt.Errorf("list families: %w", err)
	}

	limit := req.UnlinkedCap
	if limit == 0 {
		limit = s.unlinkedCap
	}
	res, err := family.Aggregate(family.Input{
		Owners:      req.OwnerIDs,
		Entries:     entries,
		Edges:       edges,
		Summaries:   req.Summaries,
		Current:     req.Current,
		UnlinkedCap: limit,
	})
	if err != nil {
		return family.Result{}, err
	}

	s.log.Debug("families listed",
		"owners", len(req.OwnerIDs),
		"families", len(res.Families),
		"unlinked", res.Unlinked.Total,
		"unattributed_groups", res.UnattributedGroups,
	)
	return res, nil
}

// Plan computes an epoch plan for one subject.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (epoch.Plan, error) {
	plans, err := s.PlanMany(ctx, []PlanRequest{req})
	if err != nil {
		return epoch.Plan{}, err
	}
	return plans[0], nil
}

// PlanMany plans several subjects. Availability missing from the requests
// is fetched concurrently first; planning starts only after every fetch
// has completed.
func (s *Service) PlanMany(ctx context.Context, reqs []PlanRequest) ([]epoch.Plan, error) {
	var (
		fetch   []availability.Request
		fetchAt []int
	)
	for i, req := range reqs {
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		if req.Availability == nil {
			fetch = append(fetch, availability.Request{Subject: req.Subject, Days: req.Days})
			fetchAt = append(fetchAt, i)
		}
	}

	avail := make([]availability.Availability, len(reqs))
	for i, req := range reqs {
		avail[i] = req.Availability
	}
	if len(fetch) > 0 {
		if s.observer == nil {
			return nil, ErrNoObserver
		}
		fetched, err := s.observer.Preflight(ctx, fetch)
		if err != nil {
			return nil, err
		}
		for k, i := range fetchAt {
			avail[i] = fetched[k]
		}
	}

	plans := make([]epoch.Plan, len(reqs))
	for i, req := range reqs {
		p, err := s.planner.Plan(req.toCore(), avail[i])
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", req.Subject, err)
		}
		plans[i] = p
	}
	return plans, nil
}

// Availability summarizes the partition families stored for one subject on
// each day of req.Days, newest retrieval group first.
func (s *Service) Availability(ctx context.Context, req AvailabilityRequest) (AvailabilityResponse, error) {
	if err := validateRequest(req); err != nil {
		return AvailabilityResponse{}, err
	}
	if err := req.Days.Validate(); err != nil {
		return AvailabilityResponse{}, err
	}

	avail := make(availability.Availability, len(req.Availability))
	if req.Availability != nil {
		for day, groups := range req.Availability {
			if req.Days.Contains(day) {
				avail[day] = groups
			}
		}
	} else {
		if s.observer == nil {
			return AvailabilityResponse{}, ErrNoObserver
		}
		if req.Refresh {
			s.observer.Invalidate(req.Subject)
		}
		fetched, err := s.observer.Observe(ctx, req.Subject, req.Days)
		if err != nil {
			return AvailabilityResponse{}, err
		}
		avail = fetched
	}

	days := availability.Summarize(avail)
	s.log.Debug("availability summarized",
		"subject", req.Subject.String(),
		"days", req.Days.String(),
		"stored_days", len(days),
	)
	return AvailabilityResponse{Subject: req.Subject, Days: days}, nil
}

func partitionSet(names []string) partition.DimensionSet {
	return partition.NewDimensionSet(names...)
}

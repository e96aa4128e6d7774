package signature

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/snapledger/internal/clock"
	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/logger"
)

// Default listing bounds.
const (
	DefaultListLimit    = 100
	DefaultMaxListLimit = 1000
)

// RegistryStore is the persistence the Registry needs.
// Implemented by *store.Store.
type RegistryStore interface {
	InsertSignature(ctx context.Context, e ir.RegistryEntry) (bool, error)
	GetSignature(ctx context.Context, ownerID string, addr ir.ContentAddress) (ir.RegistryEntry, bool, error)
	ListSignatures(ctx context.Context, ownerID string, since *time.Time, limit int) ([]ir.RegistryEntry, error)
}

// RegistryOptions configures a Registry. Zero values select defaults.
type RegistryOptions struct {
	Clock        clock.Clock
	Logger       *logger.Logger
	ListLimit    int // default page size
	MaxListLimit int // hard cap on caller-supplied limits
}

// Registry is the insert-once store of canonical signatures keyed by
// (owner, content address).
type Registry struct {
	store        RegistryStore
	clock        clock.Clock
	log          *logger.Logger
	listLimit    int
	maxListLimit int
}

// NewRegistry creates a Registry over st.
func NewRegistry(st RegistryStore, opts RegistryOptions) *Registry {
	r := &Registry{
		store:        st,
		clock:        clock.OrSystem(opts.Clock),
		log:          logger.OrNop(opts.Logger),
		listLimit:    opts.ListLimit,
		maxListLimit: opts.MaxListLimit,
	}
	if r.maxListLimit <= 0 {
		r.maxListLimit = DefaultMaxListLimit
	}
	if r.listLimit <= 0 {
		r.listLimit = DefaultListLimit
	}
	if r.listLimit > r.maxListLimit {
		r.listLimit = r.maxListLimit
	}
	return r
}

// Register records a canonical signature under (owner, address).
//
// All of ownerID, addr and sig are required; a missing one is a
// ValidationError and nothing is written. evidence is any JSON document
// (may be empty) and is stored in canonical form.
//
// Registration is idempotent: if the key already exists the stored entry is
// returned with inserted=false, even when sig differs. The first write wins.
func (r *Registry) Register(ctx context.Context, ownerID string, addr ir.ContentAddress, sig ir.CanonicalSignature, evidence []byte) (entry ir.RegistryEntry, inserted bool, err error) {
	if strings.TrimSpace(ownerID) == "" {
		return ir.RegistryEntry{}, false, ir.NewValidationError("owner_id", "owner id is required")
	}
	if strings.TrimSpace(string(addr)) == "" {
		return ir.RegistryEntry{}, false, ir.NewValidationError("content_address", "content address is required")
	}
	if strings.TrimSpace(string(sig)) == "" {
		return ir.RegistryEntry{}, false, ir.NewValidationError("canonical_signature", "canonical signature is required")
	}

	canonical, err := ir.CanonicalEvidence(evidence)
	if err != nil {
		return ir.RegistryEntry{}, false, ir.NewValidationError("evidence", err.Error())
	}

	// Callers may hash with an older algorithm; record, don't reject.
	if computed, _ := ir.ContentAddressOf(sig); computed != addr {
		r.log.Warn("content address differs from current algorithm",
			"owner", ownerID,
			"address", addr,
			"computed", computed,
			"algo_version", ir.AlgoVersion,
		)
	}

	entry = ir.RegistryEntry{
		OwnerID:     ownerID,
		Address:     addr,
		Signature:   sig,
		Evidence:    canonical,
		CreatedAt:   r.clock.Now(),
		AlgoVersion: ir.AlgoVersion,
	}

	inserted, err = r.store.InsertSignature(ctx, entry)
	if err != nil {
		return ir.RegistryEntry{}, false, fmt.Errorf("register %s/%s: %w", ownerID, addr, err)
	}

	if !inserted {
		existing, found, err := r.store.GetSignature(ctx, ownerID, addr)
		if err != nil {
			return ir.RegistryEntry{}, false, fmt.Errorf("register %s/%s: read existing: %w", ownerID, addr, err)
		}
		if !found {
			return ir.RegistryEntry{}, false, fmt.Errorf("register %s/%s: conflicting row vanished", ownerID, addr)
		}
		if existing.Signature != sig {
			r.log.Warn("registration kept first signature",
				"owner", ownerID,
				"address", addr,
			)
		} else {
			r.log.Debug("signature already registered", "owner", ownerID, "address", addr)
		}
		return existing, false, nil
	}

	r.log.Info("signature registered",
		"owner", ownerID,
		"address", addr,
		"algo_version", entry.AlgoVersion,
	)
	return entry, true, nil
}

// ListOptions bounds a registry listing.
type ListOptions struct {
	// Since restricts results to entries created at or after this instant.
	Since *time.Time

	// Limit is the maximum number of entries; <= 0 selects the default and
	// larger values are capped.
	Limit int
}

// List returns an owner's entries newest first.
func (r *Registry) List(ctx context.Context, ownerID string, opts ListOptions) ([]ir.RegistryEntry, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ir.NewValidationError("owner_id", "owner id is required")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = r.listLimit
	}
	if limit > r.maxListLimit {
		limit = r.maxListLimit
	}

	entries, err := r.store.ListSignatures(ctx, ownerID, opts.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", ownerID, err)
	}
	return entries, nil
}

// Get returns the entry for (owner, address). found is false when there is
// no such entry; absence is not an error.
func (r *Registry) Get(ctx context.Context, ownerID string, addr ir.ContentAddress) (entry ir.RegistryEntry, found bool, err error) {
	if strings.TrimSpace(ownerID) == "" {
		return ir.RegistryEntry{}, false, ir.NewValidationError("owner_id", "owner id is required")
	}
	if strings.TrimSpace(string(addr)) == "" {
		return ir.RegistryEntry{}, false, ir.NewValidationError("content_address", "content address is required")
	}

	entry, found, err = r.store.GetSignature(ctx, ownerID, addr)
	if err != nil {
		return ir.RegistryEntry{}, false, fmt.Errorf("get %s/%s: %w", ownerID, addr, err)
	}
	return entry, found, nil
}

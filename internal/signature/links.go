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

// LinkStore is the persistence the link service needs.
// Implemented by *store.Store.
type LinkStore interface {
	InsertLink(ctx context.Context, e ir.EquivalenceEdge) (ir.EquivalenceEdge, bool, error)
	DeactivateLink(ctx context.Context, ownerID string, a, b ir.ContentAddress, at time.Time, by, reason string) (bool, error)
	ListLinks(ctx context.Context, ownerID string, includeInactive bool) ([]ir.EquivalenceEdge, error)
}

// LinkRequest asserts that two content addresses denote the same identity.
type LinkRequest struct {
	OwnerID   string
	A, B      ir.ContentAddress
	CreatedBy string
	Reason    string
}

// UnlinkRequest withdraws an equivalence assertion.
type UnlinkRequest struct {
	OwnerID       string
	A, B          ir.ContentAddress
	DeactivatedBy string
	Reason        string
}

// LinkOptions configures a Links service. Zero values select defaults.
type LinkOptions struct {
	Clock  clock.Clock
	IDs    IDGenerator
	Logger *logger.Logger
}

// Links is the append-only, audited equivalence link store.
type Links struct {
	store LinkStore
	clock clock.Clock
	ids   IDGenerator
	log   *logger.Logger
}

// NewLinks creates a Links service over st.
func NewLinks(st LinkStore, opts LinkOptions) *Links {
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Links{
		store: st,
		clock: clock.OrSystem(opts.Clock),
		ids:   ids,
		log:   logger.OrNop(opts.Logger),
	}
}

// CreateLink records an active link between req.A and req.B.
//
// Self-links and missing owner, endpoints, operator or reason are
// ValidationErrors. If an active link for the same unordered pair exists,
// it is returned unchanged with created=false.
func (l *Links) CreateLink(ctx context.Context, req LinkRequest) (edge ir.EquivalenceEdge, created bool, err error) {
	if err := validatePair(req.OwnerID, req.A, req.B); err != nil {
		return ir.EquivalenceEdge{}, false, err
	}
	if req.A == req.B {
		return ir.EquivalenceEdge{}, false, ir.NewValidationError("address_b", "cannot link an address to itself")
	}
	if strings.TrimSpace(req.CreatedBy) == "" {
		return ir.EquivalenceEdge{}, false, ir.NewValidationError("created_by", "created_by is required")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return ir.EquivalenceEdge{}, false, ir.NewValidationError("reason", "reason is required")
	}

	edge, created, err = l.store.InsertLink(ctx, ir.EquivalenceEdge{
		ID:        l.ids.Generate(),
		OwnerID:   req.OwnerID,
		A:         req.A,
		B:         req.B,
		CreatedAt: l.clock.Now(),
		CreatedBy: req.CreatedBy,
		Reason:    req.Reason,
		Active:    true,
	})
	if err != nil {
		return ir.EquivalenceEdge{}, false, fmt.Errorf("create link %s: %w", req.OwnerID, err)
	}

	if created {
		l.log.Info("link created",
			"owner", req.OwnerID,
			"id", edge.ID,
			"a", req.A,
			"b", req.B,
			"created_by", req.CreatedBy,
		)
	} else {
		l.log.Debug("link already active", "owner", req.OwnerID, "id", edge.ID)
	}
	return edge, created, nil
}

// DeactivateLink marks the active link between req.A and req.B inactive.
// Deactivating a link that does not exist or is already inactive is a
// no-op and returns false.
func (l *Links) DeactivateLink(ctx context.Context, req UnlinkRequest) (bool, error) {
	if err := validatePair(req.OwnerID, req.A, req.B); err != nil {
		return false, err
	}
	if strings.TrimSpace(req.DeactivatedBy) == "" {
		return false, ir.NewValidationError("deactivated_by", "deactivated_by is required")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return false, ir.NewValidationError("reason", "reason is required")
	}
	if req.A == req.B {
		return false, nil
	}

	changed, err := l.store.DeactivateLink(ctx, req.OwnerID, req.A, req.B, l.clock.Now(), req.DeactivatedBy, req.Reason)
	if err != nil {
		return false, fmt.Errorf("deactivate link %s: %w", req.OwnerID, err)
	}

	if changed {
		l.log.Info("link deactivated",
			"owner", req.OwnerID,
			"a", req.A,
			"b", req.B,
			"deactivated_by", req.DeactivatedBy,
		)
	}
	return changed, nil
}

// History returns an owner's links oldest first, including inactive rows
// when includeInactive is set.
func (l *Links) History(ctx context.Context, ownerID string, includeInactive bool) ([]ir.EquivalenceEdge, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ir.NewValidationError("owner_id", "owner id is required")
	}
	edges, err := l.store.ListLinks(ctx, ownerID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("link history %s: %w", ownerID, err)
	}
	return edges, nil
}

func validatePair(ownerID string, a, b ir.ContentAddress) error {
	if strings.TrimSpace(ownerID) == "" {
		return ir.NewValidationError("owner_id", "owner id is required")
	}
	if strings.TrimSpace(string(a)) == "" {
		return ir.NewValidationError("address_a", "address_a is required")
	}
	if strings.TrimSpace(string(b)) == "" {
		return ir.NewValidationError("address_b", "address_b is required")
	}
	return nil
}

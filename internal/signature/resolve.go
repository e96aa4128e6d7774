package signature

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/snapledger/internal/ir"
	"github.com/roach88/snapledger/internal/logger"
)

// DefaultMaxNodes caps an equivalence closure when the caller passes no bound.
const DefaultMaxNodes = 500

// NeighborSource returns the addresses directly linked to addr by active
// links, in either stored direction. Implemented by *store.Store.
type NeighborSource interface {
	ActiveNeighbors(ctx context.Context, ownerID string, addr ir.ContentAddress) ([]ir.ContentAddress, error)
}

// Resolver computes equivalence closures.
type Resolver struct {
	source          NeighborSource
	defaultMaxNodes int
	log             *logger.Logger
}

// NewResolver creates a Resolver. defaultMaxNodes <= 0 selects DefaultMaxNodes.
func NewResolver(source NeighborSource, defaultMaxNodes int, log *logger.Logger) *Resolver {
	if defaultMaxNodes <= 0 {
		defaultMaxNodes = DefaultMaxNodes
	}
	return &Resolver{
		source:          source,
		defaultMaxNodes: defaultMaxNodes,
		log:             logger.OrNop(log),
	}
}

// Resolve returns the set of addresses equivalent to addr, sorted ascending.
//
// Without includeEquivalents the result is exactly {addr}. Otherwise a
// breadth-first traversal follows active links in both directions with a
// visited set, so cycles terminate. If the closure would hold more than
// maxNodes addresses (<= 0 selects the resolver default) the traversal stops
// and a TraversalBoundError is returned; the set is never truncated.
func (r *Resolver) Resolve(ctx context.Context, ownerID string, addr ir.ContentAddress, includeEquivalents bool, maxNodes int) ([]ir.ContentAddress, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ir.NewValidationError("owner_id", "owner id is required")
	}
	if strings.TrimSpace(string(addr)) == "" {
		return nil, ir.NewValidationError("content_address", "content address is required")
	}
	if !includeEquivalents {
		return []ir.ContentAddress{addr}, nil
	}
	if maxNodes <= 0 {
		maxNodes = r.defaultMaxNodes
	}

	visited := map[ir.ContentAddress]bool{addr: true}
	queue := []ir.ContentAddress{addr}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]

		neighbors, err := r.source.ActiveNeighbors(ctx, ownerID, current)
		if err != nil {
			return nil, fmt.Errorf("resolve %s/%s: %w", ownerID, addr, err)
		}

		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			if len(visited) >= maxNodes {
				r.log.Warn("equivalence closure exceeds bound",
					"owner", ownerID,
					"address", addr,
					"max_nodes", maxNodes,
				)
				return nil, ir.NewTraversalBoundError(ownerID, addr, maxNodes)
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}

	out := make([]ir.ContentAddress, 0, len(visited))
	for a := range visited {
		out = append(out, a)
	}
	slices.Sort(out)
	return out, nil
}

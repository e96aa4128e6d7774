package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/snapledger/internal/ir"
)

const linkColumns = `id, owner_id, address_a, address_b, created_at, created_by, reason, active,
	deactivated_at, deactivated_by, deactivation_reason`

// InsertLink appends an active equivalence link.
//
// If an active link already exists for the same unordered pair, nothing is
// written and the existing row is returned with inserted=false. The insert
// and the lookup of the existing row run in one transaction.
func (s *Store) InsertLink(ctx context.Context, e ir.EquivalenceEdge) (edge ir.EquivalenceEdge, inserted bool, err error) {
	lo, hi := orderedPair(e.A, e.B)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.EquivalenceEdge{}, false, fmt.Errorf("insert link: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO signature_equivalence
		(id, owner_id, address_a, address_b, pair_lo, pair_hi, created_at, created_by, reason, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT DO NOTHING
	`,
		e.ID,
		e.OwnerID,
		string(e.A),
		string(e.B),
		string(lo),
		string(hi),
		toMicros(e.CreatedAt),
		e.CreatedBy,
		e.Reason,
	)
	if err != nil {
		return ir.EquivalenceEdge{}, false, fmt.Errorf("insert link: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return ir.EquivalenceEdge{}, false, fmt.Errorf("insert link: rows affected: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		SELECT `+linkColumns+`
		FROM signature_equivalence
		WHERE owner_id = ? AND pair_lo = ? AND pair_hi = ? AND active = 1
	`, e.OwnerID, string(lo), string(hi))
	edge, err = scanLink(row)
	if err != nil {
		return ir.EquivalenceEdge{}, false, fmt.Errorf("insert link: select active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ir.EquivalenceEdge{}, false, fmt.Errorf("insert link: commit: %w", err)
	}
	return edge, n > 0, nil
}

// DeactivateLink marks the active link between a and b (either direction)
// inactive, recording when, by whom and why. The row is kept.
// Returns false when there was no active link; that is not an error.
func (s *Store) DeactivateLink(ctx context.Context, ownerID string, a, b ir.ContentAddress, at time.Time, by, reason string) (bool, error) {
	lo, hi := orderedPair(a, b)

	result, err := s.db.ExecContext(ctx, `
		UPDATE signature_equivalence
		SET active = 0, deactivated_at = ?, deactivated_by = ?, deactivation_reason = ?
		WHERE owner_id = ? AND pair_lo = ? AND pair_hi = ? AND active = 1
	`, toMicros(at), by, reason, ownerID, string(lo), string(hi))
	if err != nil {
		return false, fmt.Errorf("deactivate link: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate link: rows affected: %w", err)
	}
	return n > 0, nil
}

// ActiveNeighbors returns the addresses joined to addr by an active link,
// in either stored direction, sorted ascending.
func (s *Store) ActiveNeighbors(ctx context.Context, ownerID string, addr ir.ContentAddress) ([]ir.ContentAddress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address_b AS other FROM signature_equivalence
		WHERE owner_id = ? AND address_a = ? AND active = 1
		UNION
		SELECT address_a AS other FROM signature_equivalence
		WHERE owner_id = ? AND address_b = ? AND active = 1
		ORDER BY other COLLATE BINARY ASC
	`, ownerID, string(addr), ownerID, string(addr))
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	defer rows.Close()

	neighbors := []ir.ContentAddress{}
	for rows.Next() {
		var other string
		if err := rows.Scan(&other); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		neighbors = append(neighbors, ir.ContentAddress(other))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return neighbors, nil
}

// ListLinks returns an owner's links oldest first. Inactive rows are
// included only when includeInactive is set, which makes this the audit view.
func (s *Store) ListLinks(ctx context.Context, ownerID string, includeInactive bool) ([]ir.EquivalenceEdge, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM signature_equivalence
		WHERE owner_id = ?`
	if !includeInactive {
		query += ` AND active = 1`
	}
	query += `
		ORDER BY created_at ASC, id COLLATE BINARY ASC`

	return s.queryLinks(ctx, query, ownerID)
}

// ActiveLinksForOwners returns the active links of every given owner.
func (s *Store) ActiveLinksForOwners(ctx context.Context, ownerIDs []string) ([]ir.EquivalenceEdge, error) {
	if len(ownerIDs) == 0 {
		return []ir.EquivalenceEdge{}, nil
	}

	query := `
		SELECT ` + linkColumns + `
		FROM signature_equivalence
		WHERE active = 1 AND owner_id IN (` + placeholders(len(ownerIDs)) + `)
		ORDER BY owner_id COLLATE BINARY ASC, created_at ASC, id COLLATE BINARY ASC`

	return s.queryLinks(ctx, query, stringArgs(ownerIDs)...)
}

func (s *Store) queryLinks(ctx context.Context, query string, args ...any) ([]ir.EquivalenceEdge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	edges := []ir.EquivalenceEdge{}
	for rows.Next() {
		e, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return edges, nil
}

func scanLink(r rowScanner) (ir.EquivalenceEdge, error) {
	var (
		e             ir.EquivalenceEdge
		a, b          string
		createdAt     int64
		active        int
		deactivatedAt sql.NullInt64
		deactivatedBy sql.NullString
		deactReason   sql.NullString
	)
	if err := r.Scan(
		&e.ID, &e.OwnerID, &a, &b, &createdAt, &e.CreatedBy, &e.Reason, &active,
		&deactivatedAt, &deactivatedBy, &deactReason,
	); err != nil {
		return ir.EquivalenceEdge{}, err
	}
	e.A = ir.ContentAddress(a)
	e.B = ir.ContentAddress(b)
	e.CreatedAt = fromMicros(createdAt)
	e.Active = active == 1
	e.DeactivatedAt = fromNullMicros(deactivatedAt)
	e.DeactivatedBy = deactivatedBy.String
	e.DeactivationReason = deactReason.String
	return e, nil
}

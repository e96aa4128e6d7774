package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/snapledger/internal/ir"
)

const registryColumns = `owner_id, content_address, canonical_signature, evidence, created_at, algo_version`

// InsertSignature writes a registry entry.
// Uses ON CONFLICT DO NOTHING: a second insert for the same (owner, address)
// is silently ignored and the first row wins. Returns whether a row was written.
//
// Evidence must already be canonical JSON; an empty value is stored as "{}".
func (s *Store) InsertSignature(ctx context.Context, e ir.RegistryEntry) (bool, error) {
	evidence := string(e.Evidence)
	if evidence == "" {
		evidence = "{}"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO signature_registry
		(owner_id, content_address, canonical_signature, evidence, created_at, algo_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, content_address) DO NOTHING
	`,
		e.OwnerID,
		string(e.Address),
		string(e.Signature),
		evidence,
		toMicros(e.CreatedAt),
		e.AlgoVersion,
	)
	if err != nil {
		return false, fmt.Errorf("insert signature: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert signature: rows affected: %w", err)
	}
	return n > 0, nil
}

// GetSignature retrieves one registry entry.
// The second result is false when no entry exists; that is not an error.
func (s *Store) GetSignature(ctx context.Context, ownerID string, addr ir.ContentAddress) (ir.RegistryEntry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+registryColumns+`
		FROM signature_registry
		WHERE owner_id = ? AND content_address = ?
	`, ownerID, string(addr))

	e, err := scanSignature(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RegistryEntry{}, false, nil
	}
	if err != nil {
		return ir.RegistryEntry{}, false, fmt.Errorf("get signature: %w", err)
	}
	return e, true, nil
}

// ListSignatures returns an owner's entries newest first, optionally limited
// to entries created at or after since. Ties on created_at are broken by
// address so the order is stable. limit must be positive.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListSignatures(ctx context.Context, ownerID string, since *time.Time, limit int) ([]ir.RegistryEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list signatures: limit must be positive, got %d", limit)
	}

	query := `
		SELECT ` + registryColumns + `
		FROM signature_registry
		WHERE owner_id = ?`
	args := []any{ownerID}
	if since != nil {
		query += ` AND created_at >= ?`
		args = append(args, toMicros(*since))
	}
	query += `
		ORDER BY created_at DESC, content_address COLLATE BINARY ASC
		LIMIT ?`
	args = append(args, limit)

	return s.querySignatures(ctx, query, args...)
}

// SignaturesForOwners returns every registry entry of the given owners,
// ordered by owner, created_at and address.
func (s *Store) SignaturesForOwners(ctx context.Context, ownerIDs []string) ([]ir.RegistryEntry, error) {
	if len(ownerIDs) == 0 {
		return []ir.RegistryEntry{}, nil
	}

	query := `
		SELECT ` + registryColumns + `
		FROM signature_registry
		WHERE owner_id IN (` + placeholders(len(ownerIDs)) + `)
		ORDER BY owner_id COLLATE BINARY ASC, created_at ASC, content_address COLLATE BINARY ASC`

	return s.querySignatures(ctx, query, stringArgs(ownerIDs)...)
}

func (s *Store) querySignatures(ctx context.Context, query string, args ...any) ([]ir.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	entries := []ir.RegistryEntry{}
	for rows.Next() {
		e, err := scanSignature(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return entries, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignature(r rowScanner) (ir.RegistryEntry, error) {
	var (
		e         ir.RegistryEntry
		addr, sig string
		evidence  string
		createdAt int64
	)
	if err := r.Scan(&e.OwnerID, &addr, &sig, &evidence, &createdAt, &e.AlgoVersion); err != nil {
		return ir.RegistryEntry{}, err
	}
	e.Address = ir.ContentAddress(addr)
	e.Signature = ir.CanonicalSignature(sig)
	e.Evidence = json.RawMessage(evidence)
	e.CreatedAt = fromMicros(createdAt)
	return e, nil
}

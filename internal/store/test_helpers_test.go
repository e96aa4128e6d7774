package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/snapledger/internal/ir"
)

// baseTime is a fixed instant used for deterministic created_at values.
var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntry creates a registry entry with minimal required fields.
func createTestEntry(owner, addr, sig string, offset time.Duration) ir.RegistryEntry {
	return ir.RegistryEntry{
		OwnerID:     owner,
		Address:     ir.ContentAddress(addr),
		Signature:   ir.CanonicalSignature(sig),
		Evidence:    []byte(`{}`),
		CreatedAt:   baseTime.Add(offset),
		AlgoVersion: ir.AlgoVersion,
	}
}

// createTestLink creates an active link with minimal required fields.
func createTestLink(id, owner, a, b string, offset time.Duration) ir.EquivalenceEdge {
	return ir.EquivalenceEdge{
		ID:        id,
		OwnerID:   owner,
		A:         ir.ContentAddress(a),
		B:         ir.ContentAddress(b),
		CreatedAt: baseTime.Add(offset),
		CreatedBy: "tester",
		Reason:    "same query after normalization change",
	}
}

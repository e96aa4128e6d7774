package store

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	inserted, err := s.InsertSignature(t.Context(), createTestEntry("o1", "h1", "sig", 0))
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, s.Close())

	for range 2 {
		s, err = Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.GetSignature(t.Context(), "o1", "h1")
	require.NoError(t, err)
	assert.True(t, found, "data survives reopening")
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	inserted, err := s.InsertSignature(t.Context(), createTestEntry("o1", "h1", "sig", 0))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/dir/test.db")
}

func TestClose_ZeroStore(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	want := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"user_version": "1",
	}
	for name, value := range want {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, value, got, name)
	}
}

func TestMigrate_FromVersionZero(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec("DROP INDEX idx_registry_owner_created")
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 0")
	require.NoError(t, err)

	require.NoError(t, migrate(s.db))

	version, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", version)

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_registry_owner_created'",
	).Scan(&name)
	assert.NoError(t, err, "migration recreates the listing index")
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	tests := map[string][]string{
		"signature_registry": {
			"owner_id", "content_address", "canonical_signature", "evidence", "created_at", "algo_version",
		},
		"signature_equivalence": {
			"id", "owner_id", "address_a", "address_b", "pair_lo", "pair_hi", "created_at", "created_by",
			"reason", "active", "deactivated_at", "deactivated_by", "deactivation_reason",
		},
	}
	for table, want := range tests {
		t.Run(table, func(t *testing.T) {
			got := tableColumns(t, s, table)
			for _, col := range want {
				assert.True(t, slices.Contains(got, col), "missing column %q", col)
			}
		})
	}
}

func TestSchema_RejectsSelfLink(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO signature_equivalence
		(id, owner_id, address_a, address_b, pair_lo, pair_hi, created_at, created_by, reason)
		VALUES ('x', 'o1', 'H1', 'H1', 'H1', 'H1', 0, 'me', 'why')
	`)
	assert.Error(t, err, "CHECK constraint rejects a self link")
}

func tableColumns(t *testing.T, s *Store, table string) []string {
	t.Helper()

	rows, err := s.db.Query("SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	return columns
}

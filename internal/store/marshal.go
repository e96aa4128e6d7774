package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/roach88/snapledger/internal/ir"
)

// toMicros converts t to the stored unix-microsecond representation.
func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

// fromMicros converts a stored unix-microsecond value back to UTC time.
func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// fromNullMicros converts a nullable microsecond column.
func fromNullMicros(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicros(v.Int64)
	return &t
}

// orderedPair returns the pair endpoints in lexical order. The equivalence
// uniqueness index keys on this order so A-B and B-A collide.
func orderedPair(a, b ir.ContentAddress) (lo, hi ir.ContentAddress) {
	if a < b {
		return a, b
	}
	return b, a
}

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// stringArgs converts strings to query arguments.
func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// Package ir provides the foundational identity types for snapledger.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps identity (content addresses, registry rows, equivalence edges, days)
// in one leaf layer with no circular dependencies.
//
// Key constraints:
//   - A CanonicalSignature is opaque evidence and is never parsed or normalized
//     before hashing
//   - A ContentAddress is always supplied by the caller on write, never derived
//     downstream as a fallback
//   - Days are ISO calendar dates ("2006-01-02") and compare lexically
//   - All JSON tags use snake_case
package ir

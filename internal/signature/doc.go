// Package signature implements the signature registry, the audited
// equivalence link store and the bounded equivalence resolver.
//
// Writes are append-only and idempotent by construction, so concurrent
// writers need no coordination beyond the atomicity of a single store
// insert. Resolution is read-only.
//
// # Identity rules
//
//   - Every write names its owner and content address explicitly. A missing
//     address is a ValidationError; it is never derived from the signature.
//   - Register is insert-once: a second write for the same (owner, address)
//     returns the stored row unchanged.
//   - Links are undirected for resolution, require an operator and a reason,
//     and are deactivated rather than deleted.
//   - Resolve fails with a TraversalBoundError instead of truncating when a
//     closure grows past its node cap.
package signature

// Package epoch implements the day-granular regime planner.
//
// A regime is one non-mixable representation of a subject's facts: the
// unpartitioned total, or one partition family whose slices can be summed.
// The planner picks exactly one regime per day from the latest retrieval
// group, records days with no eligible regime as gaps, and segments the
// range into epochs of identical selection. Exhaustiveness is decided by an
// injected Oracle.
//
// Plans are recomputed per request and never persisted.
package epoch

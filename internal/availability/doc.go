// Package availability adapts the external calendar API into per-day
// availability: which retrieval groups exist on each day and which
// partition families each group contains.
//
// The package performs no I/O of its own. A Source does the fetching; an
// Observer adds an explicit TTL Cache and a bounded concurrent Preflight
// that is joined before epoch planning starts.
package availability

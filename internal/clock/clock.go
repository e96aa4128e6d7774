// Package clock provides the wall-clock abstraction used for registry
// timestamps, link audit fields and cache expiry.
//
// Components take a Clock instead of calling time.Now so tests can pin
// created_at ordering and drive TTL expiry deterministically.
package clock

import "time"

// Clock reports the current instant.
//
// Thread-safety: implementations must be safe for concurrent use.
type Clock interface {
	Now() time.Time
}

// System is the production Clock backed by time.Now, normalized to UTC.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// OrSystem returns c, or System when c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}

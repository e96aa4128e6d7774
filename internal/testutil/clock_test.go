package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock_Frozen(t *testing.T) {
	c := NewFakeClock(t0)
	assert.Equal(t, t0, c.Now())
	assert.Equal(t, t0, c.Now())
}

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	c := NewFakeClock(t0)

	c.Advance(90 * time.Second)
	assert.Equal(t, t0.Add(90*time.Second), c.Now())

	later := t0.Add(48 * time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestSteppingClock(t *testing.T) {
	c := NewSteppingClock(t0, time.Second)

	assert.Equal(t, t0, c.Now())
	assert.Equal(t, t0.Add(time.Second), c.Now())
	assert.Equal(t, t0.Add(2*time.Second), c.Now())
}

func TestSteppingClock_ConcurrentCallsAreUnique(t *testing.T) {
	c := NewSteppingClock(t0, time.Millisecond)

	const n = 100
	results := make(chan time.Time, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Now()
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[time.Time]bool)
	for ts := range results {
		assert.False(t, seen[ts], "duplicate timestamp %v", ts)
		seen[ts] = true
	}
	assert.Len(t, seen, n)
}

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("link")
	assert.Equal(t, "link-0001", g.Generate())
	assert.Equal(t, "link-0002", g.Generate())

	assert.Equal(t, "id-0001", NewSequentialIDs("").Generate())
}

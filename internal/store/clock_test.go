package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStampClock_StrictlyIncreasing(t *testing.T) {
	var c stampClock
	now := time.UnixMilli(fixedMillis)

	assert.Equal(t, int64(fixedMillis), c.next(now))
	assert.Equal(t, int64(fixedMillis+1), c.next(now))

	// Wall clock stepping back does not step the stamps back.
	assert.Equal(t, int64(fixedMillis+2), c.next(now.Add(-time.Hour)))

	// A later wall clock wins again.
	assert.Equal(t, int64(fixedMillis+5000), c.next(now.Add(5*time.Second)))
}

func TestStampClock_Observe(t *testing.T) {
	var c stampClock
	c.observe(fixedMillis + 10)
	c.observe(fixedMillis) // lower values are ignored

	assert.Equal(t, int64(fixedMillis+11), c.next(time.UnixMilli(fixedMillis)))
}

func TestStampClock_Concurrent(t *testing.T) {
	var c stampClock
	now := time.UnixMilli(fixedMillis)

	const n = 100
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := c.next(now)
			mu.Lock()
			seen[ts] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

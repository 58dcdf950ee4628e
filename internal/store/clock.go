package store

import (
	"sync/atomic"
	"time"
)

// stampClock hands out strictly increasing epoch-millisecond stamps, even when
// several appends land in the same millisecond or the wall clock steps back.
type stampClock struct {
	last atomic.Int64
}

func (c *stampClock) next(now time.Time) int64 {
	ms := now.UnixMilli()
	for {
		last := c.last.Load()
		ts := ms
		if ts <= last {
			ts = last + 1
		}
		if c.last.CompareAndSwap(last, ts) {
			return ts
		}
	}
}

// observe records a stamp chosen elsewhere so later stamps stay above it.
func (c *stampClock) observe(ts int64) {
	for {
		last := c.last.Load()
		if ts <= last || c.last.CompareAndSwap(last, ts) {
			return
		}
	}
}

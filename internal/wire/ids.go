package wire

import (
	"sync/atomic"
	"time"
)

var lastID atomic.Uint64

// NextID returns a process-unique correlation id. Ids track the wall clock in
// milliseconds but are strictly increasing, so concurrent requests issued in
// the same millisecond never collide.
func NextID() uint64 {
	for {
		prev := lastID.Load()
		next := nowMillis()
		if next <= prev {
			next = prev + 1
		}
		if lastID.CompareAndSwap(prev, next) {
			return next
		}
	}
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

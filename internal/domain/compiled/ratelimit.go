package compiled

import (
	"sync/atomic"
	"time"
)

// RateLimiter is per-rule rate-limit state: a tumbling one-minute window
// keyed by the wall-clock minute at first call (spec §9 open question,
// resolved as tumbling rather than sliding — simpler and still satisfies
// every boundary behavior in spec §8). The counter is advanced with a
// single lock-free CAS loop so concurrent callers see at most a one-call
// overshoot, matching the concurrency model's allowance.
type RateLimiter struct {
	limit uint32
	state atomic.Uint64 // high 32 bits: window minute; low 32 bits: count
}

// NewRateLimiter returns a limiter capped at limit calls per minute. A
// limit of 0 means unlimited.
func NewRateLimiter(limit uint32) *RateLimiter {
	return &RateLimiter{limit: limit}
}

// Allow attempts to consume one call from the current window, returning
// whether it was permitted and the calls remaining in the window
// afterward. The caller must call Allow only after the permission check
// has already decided to allow the action (spec §4.5(c): the counter
// increments after allow, before performing the operation).
func (r *RateLimiter) Allow(now time.Time) (bool, uint32) {
	if r.limit == 0 {
		return true, 0
	}
	minute := uint64(now.Unix() / 60)
	for {
		old := r.state.Load()
		oldMinute := old >> 32
		oldCount := uint32(old)

		curMinute := oldMinute
		curCount := oldCount
		if oldMinute != minute {
			curMinute = minute
			curCount = 0
		}
		if curCount >= r.limit {
			return false, 0
		}
		newCount := curCount + 1
		newState := curMinute<<32 | uint64(newCount)
		if r.state.CompareAndSwap(old, newState) {
			return true, r.limit - newCount
		}
	}
}

// Remaining reports the calls left in the current window without
// consuming one, for diagnostics (the "policy explain" debug command).
func (r *RateLimiter) Remaining(now time.Time) uint32 {
	if r.limit == 0 {
		return 0
	}
	minute := uint64(now.Unix() / 60)
	old := r.state.Load()
	if old>>32 != minute {
		return r.limit
	}
	count := uint32(old)
	if count >= r.limit {
		return 0
	}
	return r.limit - count
}

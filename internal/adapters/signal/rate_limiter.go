package signal

import "time"

// RateLimiter is a sliding window over one connection's inbound events.
// Only the read pump touches it.
type RateLimiter struct {
	history  []time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		history:  make([]time.Time, 0, limit),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow() bool {
	now := rl.now()
	windowStart := now.Add(-rl.interval)

	fresh := rl.history[:0]
	for _, t := range rl.history {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	rl.history = fresh

	if len(fresh) >= rl.limit {
		return false
	}
	rl.history = append(rl.history, now)
	return true
}

package websocket

import "time"

// frameLimiter caps inbound frames per connection with a fixed one-minute
// window. Only the owning read loop touches it, so no locking is needed.
type frameLimiter struct {
	limit       int
	count       int
	windowStart time.Time
}

func newFrameLimiter(limit int) *frameLimiter {
	return &frameLimiter{limit: limit, windowStart: time.Now()}
}

// allow reports whether another frame fits in the current window. A limit of
// zero or less disables limiting.
func (l *frameLimiter) allow() bool {
	if l.limit <= 0 {
		return true
	}

	now := time.Now()
	if now.Sub(l.windowStart) >= time.Minute {
		l.count = 0
		l.windowStart = now
	}

	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}

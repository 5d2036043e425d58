package risk

import (
	"time"

	"road-monitor/internal/timeutil"
)

// QueryWindow is the minimum interval between consecutive automatic
// risk-scoring queries. The 5 s cadence doubles as the only retry/backoff
// mechanism after a failed query.
const QueryWindow = 5 * time.Second

// Throttle gates automatic queries on wall-clock time. Suppressed
// attempts are skipped outright; there is no queuing or catch-up.
// Manual triggers bypass the throttle entirely and do not advance it.
//
// Not safe for concurrent use; owned by the session event loop.
type Throttle struct {
	clock       timeutil.Clock
	window      time.Duration
	lastQueryAt time.Time
}

func NewThrottle(clock timeutil.Clock, window time.Duration) *Throttle {
	return &Throttle{clock: clock, window: window}
}

// Allow reports whether a query may fire now, and records the fire time
// when it may. The first attempt after construction or Reset always
// fires.
func (t *Throttle) Allow() bool {
	now := t.clock.Now()
	if !t.lastQueryAt.IsZero() && now.Sub(t.lastQueryAt) <= t.window {
		return false
	}
	t.lastQueryAt = now
	return true
}

// Reset clears the window so the next attempt fires immediately.
func (t *Throttle) Reset() {
	t.lastQueryAt = time.Time{}
}

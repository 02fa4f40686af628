package ws

import (
	"sync"
	"time"
)

// AttemptLimiter bounds connection attempts per source address inside a
// rolling window. It only throttles reconnect storms; normal churn stays
// well under the threshold.
type AttemptLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	attempts map[string]*attemptWindow
	now      func() time.Time
}

type attemptWindow struct {
	count int
	start time.Time
}

func NewAttemptLimiter(limit int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string]*attemptWindow),
		now:      time.Now,
	}
}

// Allow records one attempt from addr and reports whether it is admitted.
// Once an address exceeds the limit, every further attempt is refused until
// its window elapses.
func (l *AttemptLimiter) Allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.attempts[addr]
	if w == nil || now.Sub(w.start) >= l.window {
		l.attempts[addr] = &attemptWindow{count: 1, start: now}
		return true
	}

	w.count++
	return w.count <= l.limit
}

// sweep drops windows that have elapsed so the map stays bounded by the set
// of recently active addresses.
func (l *AttemptLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for addr, w := range l.attempts {
		if now.Sub(w.start) >= l.window {
			delete(l.attempts, addr)
		}
	}
}

// RunSweeper prunes expired windows until stop is closed. Scoped to the
// hub's lifetime so the goroutine cannot leak past shutdown.
func (l *AttemptLimiter) RunSweeper(stop <-chan struct{}) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-stop:
			return
		}
	}
}

package authn

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles sign-in attempts per key (normally the email address).
type Limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*limiterEntry
	stopCh  chan struct{}
	stop    sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows perMinute attempts per key with the given burst.
// Idle keys are forgotten after ten minutes.
func NewLimiter(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		clients: map[string]*limiterEntry{},
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop(time.Minute)
	return l
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			l.mu.Lock()
			for k, v := range l.clients {
				if v.lastSeen.Before(cutoff) {
					delete(l.clients, k)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

// Allow consumes one attempt for key and reports whether it was permitted.
func (l *Limiter) Allow(key string) bool {
	key = strings.ToLower(key)
	l.mu.Lock()
	e, ok := l.clients[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Stop ends the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stop.Do(func() { close(l.stopCh) })
}

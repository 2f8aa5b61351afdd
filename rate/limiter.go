// Package rate throttles per-key work. The cart engine uses it to
// debounce reconciliation loads per website so a burst of cart edits
// does not hammer the backend with refetches.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	expiry time.Duration
	burst  int
	rps    float64
	mu     sync.Mutex
	keys   map[string]*keyLimiter
	done   chan struct{}
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLimiter(burst int, expiry time.Duration, limitRPS float64) *Limiter {
	l := &Limiter{
		expiry: expiry,
		burst:  burst,
		rps:    limitRPS,
		keys:   make(map[string]*keyLimiter),
		done:   make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.keys[key] = kl
	}
	kl.lastSeen = time.Now()
	return kl.limiter.Allow()
}

// Stop ends the background sweep. The limiter keeps working after
// Stop, it just no longer evicts idle keys.
func (l *Limiter) Stop() {
	close(l.done)
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}

		l.mu.Lock()
		for key, kl := range l.keys {
			if time.Since(kl.lastSeen) > l.expiry {
				delete(l.keys, key)
			}
		}
		l.mu.Unlock()
	}
}

func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}

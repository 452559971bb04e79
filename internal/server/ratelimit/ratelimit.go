// Package ratelimit provides per-client rate limiting using a token bucket.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// tokenBucket holds up to capacity tokens and refills at rate tokens per second.
type tokenBucket struct {
	capacity   float64
	rate       float64
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

func newTokenBucket(capacity int, rate float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		rate:       rate,
		tokens:     float64(capacity),
		lastRefill: now,
		lastAccess: now,
	}
}

func (tb *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.rate)
	}
	tb.lastRefill = now
}

// take consumes one token if available.
func (tb *tokenBucket) take(now time.Time) bool {
	tb.refill(now)
	tb.lastAccess = now
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// until returns how long it takes to hold n tokens.
func (tb *tokenBucket) until(n float64) time.Duration {
	if tb.tokens >= n {
		return 0
	}
	return time.Duration((n - tb.tokens) / tb.rate * float64(time.Second))
}

// Info describes the limit state after a request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Rate            float64 // tokens per second
	Burst           int
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	Exempt          map[string]bool // request paths never limited
}

// DefaultConfig limits each client to rate requests per second with the given burst.
// Health checks and metrics scrapes are exempt.
func DefaultConfig(rate float64, burst int) *Config {
	return &Config{
		Enabled:         true,
		Rate:            rate,
		Burst:           burst,
		IdleTTL:         time.Hour,
		CleanupInterval: 5 * time.Minute,
		Exempt:          map[string]bool{"/health": true, "/metrics": true},
	}
}

// Limiter manages one token bucket per client. It is safe for concurrent use.
type Limiter struct {
	config  *Config
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter. A nil config disables limiting.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{}
	}
	if config.Burst < 1 {
		config.Burst = 1
	}

	l := &Limiter{
		config:  config,
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow reports whether clientID may make a request to path now.
func (l *Limiter) Allow(clientID, path string) Info {
	if !l.config.Enabled || l.config.Rate <= 0 || l.config.Exempt[path] {
		return Info{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.buckets[clientID]
	if !ok {
		bucket = newTokenBucket(l.config.Burst, l.config.Rate, now)
		l.buckets[clientID] = bucket
	}

	allowed := bucket.take(now)
	info := Info{
		Allowed:   allowed,
		Limit:     l.config.Burst,
		Remaining: int(bucket.tokens),
		ResetTime: now.Add(bucket.until(bucket.capacity)),
	}
	if !allowed {
		info.RetryAfter = bucket.until(1)
	}
	return info
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

// evictIdle drops buckets untouched for longer than IdleTTL.
func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.config.IdleTTL)
	for id, bucket := range l.buckets {
		if bucket.lastAccess.Before(cutoff) {
			delete(l.buckets, id)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

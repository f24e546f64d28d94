// Package ratelimit implements per-client request throttling with token
// buckets and endpoint-specific tiers.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// bucket is a token bucket. Callers must hold the owning entry's lock.
type bucket struct {
	capacity float64 // burst ceiling
	rate     float64 // tokens per second
	level    float64
	updated  time.Time
}

func newBucket(capacity int, rate float64, now time.Time) bucket {
	return bucket{
		capacity: float64(capacity),
		rate:     rate,
		level:    float64(capacity),
		updated:  now,
	}
}

// take refills the bucket to now, consumes one token when available, and
// reports the resulting state.
func (b *bucket) take(now time.Time) (allowed bool, remaining int, reset time.Time) {
	b.level = math.Min(b.capacity, b.level+now.Sub(b.updated).Seconds()*b.rate)
	b.updated = now

	if b.level >= 1 {
		b.level--
		allowed = true
	}
	remaining = int(b.level)

	if b.level < b.capacity {
		untilFull := (b.capacity - b.level) / b.rate
		reset = now.Add(time.Duration(untilFull * float64(time.Second)))
	} else {
		reset = now
	}
	return allowed, remaining, reset
}

// nextToken reports how long until one token becomes available.
func (b *bucket) nextToken() time.Duration {
	if b.level >= 1 {
		return 0
	}
	return time.Duration((1 - b.level) / b.rate * float64(time.Second))
}

// Info describes the rate limit state returned with each decision.
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
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// entry pairs a bucket with its last use, for idle eviction.
type entry struct {
	mu       sync.Mutex
	b        bucket
	lastSeen time.Time
}

// Limiter tracks one bucket per (client, endpoint, method) key.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	config  *Config
	ticker  *time.Ticker
	done    chan struct{}
}

// NewLimiter creates a rate limiter. A nil config enables the limiter with
// package defaults.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		}
	}

	l := &Limiter{
		entries: make(map[string]*entry),
		config:  config,
	}

	if config.Enabled && config.CleanupInterval > 0 {
		l.ticker = time.NewTicker(config.CleanupInterval)
		l.done = make(chan struct{})
		go l.evictLoop()
	}

	return l
}

// Allow decides whether a request from clientID to the given endpoint and
// method may proceed.
func (l *Limiter) Allow(clientID, endpoint, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	tier := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if tier == nil {
		tier = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}
	if tier.Limit <= 0 {
		// Unlimited tier, e.g. the health check.
		return true, Info{Allowed: true}
	}

	key := clientID + ":" + endpoint + ":" + method
	e := l.entry(key, tier)

	now := time.Now()
	e.mu.Lock()
	allowed, remaining, reset := e.b.take(now)
	var retryAfter time.Duration
	if !allowed {
		retryAfter = e.b.nextToken()
	}
	e.lastSeen = now
	e.mu.Unlock()

	return allowed, Info{
		Allowed:    allowed,
		Limit:      tier.Limit,
		Remaining:  remaining,
		ResetTime:  reset,
		RetryAfter: retryAfter,
	}
}

// entry returns the bucket entry for key, creating it on first use.
func (l *Limiter) entry(key string, tier *EndpointConfig) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		return e
	}

	capacity := tier.Burst
	if capacity <= 0 {
		capacity = tier.Limit
	}
	rate := float64(tier.Limit) / tier.Window.Seconds()

	now := time.Now()
	e := &entry{b: newBucket(capacity, rate, now), lastSeen: now}
	l.entries[key] = e
	return e
}

func (l *Limiter) evictLoop() {
	for {
		select {
		case <-l.ticker.C:
			l.evictIdle(time.Now().Add(-1 * time.Hour))
		case <-l.done:
			return
		}
	}
}

// evictIdle drops buckets that have not been used since the cutoff.
func (l *Limiter) evictIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		e.mu.Lock()
		idle := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(l.entries, key)
		}
	}
}

// Stop halts the background eviction goroutine.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
	if l.done != nil {
		close(l.done)
	}
}

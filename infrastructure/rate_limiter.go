package infrastructure

import (
	"context"
	"sync"
	"time"

	"croupier/domain/entities"
	"croupier/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type rateLimitEntry struct {
	attempts     int
	windowStart  time.Time
	blockedUntil time.Time // zero while not blocked
}

// MemoryRateLimiter is a process-local sliding-window rate limiter with
// escalating lockout. It is an abuse deterrent, not a security boundary:
// state resets on restart and lost increments under extreme concurrency
// only weaken limiting slightly. A shared-cache implementation can replace
// it behind interfaces.RateLimiter without touching the orchestrator.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	window        time.Duration
	block         time.Duration
	maxAttempts   int
	failureWeight int
}

// NewMemoryRateLimiter creates an in-memory rate limiter
func NewMemoryRateLimiter(window, block time.Duration, maxAttempts, failureWeight int) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		entries:       make(map[string]*rateLimitEntry),
		window:        window,
		block:         block,
		maxAttempts:   maxAttempts,
		failureWeight: failureWeight,
	}
}

var _ interfaces.RateLimiter = (*MemoryRateLimiter)(nil)

// CheckAndRecord counts one attempt for (actorID, action) and decides
// whether it may proceed. Crossing maxAttempts trips a block for the full
// block duration.
func (l *MemoryRateLimiter) CheckAndRecord(actorID, action string) *entities.RateDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	key := actorID + ":" + action
	entry := l.entries[key]

	if entry != nil {
		if !entry.blockedUntil.IsZero() {
			if now.Before(entry.blockedUntil) {
				return &entities.RateDecision{
					Allowed:    false,
					RetryAfter: entry.blockedUntil.Sub(now),
				}
			}
			// Block served, start fresh
			delete(l.entries, key)
			entry = nil
		} else if now.Sub(entry.windowStart) > l.window {
			// Window aged out without a block
			delete(l.entries, key)
			entry = nil
		}
	}

	if entry == nil {
		entry = &rateLimitEntry{windowStart: now}
		l.entries[key] = entry
	}

	entry.attempts++
	if entry.attempts > l.maxAttempts {
		entry.blockedUntil = now.Add(l.block)
		log.WithFields(log.Fields{
			"actorId": actorID,
			"action":  action,
			"block":   l.block,
		}).Warn("Rate limit exceeded, actor blocked")
		return &entities.RateDecision{
			Allowed:    false,
			RetryAfter: l.block,
		}
	}

	return &entities.RateDecision{Allowed: true}
}

// RecordFailure penalizes the counter beyond a normal attempt so failed
// payment checks throttle brute-force polling harder
func (l *MemoryRateLimiter) RecordFailure(actorID, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	key := actorID + ":" + action
	entry := l.entries[key]

	if entry == nil {
		entry = &rateLimitEntry{windowStart: now}
		l.entries[key] = entry
	}
	if !entry.blockedUntil.IsZero() {
		return
	}

	entry.attempts += l.failureWeight
	if entry.attempts > l.maxAttempts {
		entry.blockedUntil = now.Add(l.block)
		log.WithFields(log.Fields{
			"actorId": actorID,
			"action":  action,
			"block":   l.block,
		}).Warn("Rate limit exceeded after failures, actor blocked")
	}
}

// Clear resets state after a successful settlement
func (l *MemoryRateLimiter) Clear(actorID, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, actorID+":"+action)
}

// Sweep removes entries whose window or block has expired, bounding memory
func (l *MemoryRateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range l.entries {
		expired := false
		if !entry.blockedUntil.IsZero() {
			expired = now.After(entry.blockedUntil)
		} else {
			expired = now.Sub(entry.windowStart) > l.window
		}
		if expired {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep periodically until the context is cancelled.
// Returns a stop function for graceful shutdown.
func (l *MemoryRateLimiter) StartSweeper(ctx context.Context, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	stopChan := make(chan struct{})

	go func() {
		log.Info("Rate limiter sweeper started")
		for {
			select {
			case <-ctx.Done():
				log.Info("Rate limiter sweeper shutting down (context cancelled)...")
				ticker.Stop()
				return
			case <-stopChan:
				log.Info("Rate limiter sweeper shutting down (stop requested)...")
				ticker.Stop()
				return
			case <-ticker.C:
				if removed := l.Sweep(); removed > 0 {
					log.WithField("removed", removed).Debug("Swept stale rate limit entries")
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRateLimiter_AdmitsWithinWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter(time.Minute, 5*time.Minute, 3, 2)

	for i := 0; i < 3; i++ {
		decision := limiter.CheckAndRecord("alice", "place_wager")
		assert.True(t, decision.Allowed, "attempt %d should be admitted", i+1)
	}
}

func TestMemoryRateLimiter_BlocksBurstOverLimit(t *testing.T) {
	limiter := NewMemoryRateLimiter(time.Minute, 5*time.Minute, 3, 2)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
	}

	decision := limiter.CheckAndRecord("alice", "place_wager")
	assert.False(t, decision.Allowed, "4th attempt in a burst must be blocked")
	assert.Greater(t, decision.RetryAfter, time.Duration(0))

	// Still blocked while the lockout is active
	decision = limiter.CheckAndRecord("alice", "place_wager")
	assert.False(t, decision.Allowed)
}

func TestMemoryRateLimiter_AdmitsAfterBlockExpires(t *testing.T) {
	limiter := NewMemoryRateLimiter(time.Minute, 20*time.Millisecond, 1, 2)

	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
	assert.False(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)

	time.Sleep(30 * time.Millisecond)

	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed,
		"expired block must reset to a fresh window")
}

func TestMemoryRateLimiter_WindowAgesOut(t *testing.T) {
	limiter := NewMemoryRateLimiter(20*time.Millisecond, 5*time.Minute, 2, 2)

	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)

	time.Sleep(30 * time.Millisecond)

	// A fresh window starts, so the counter no longer carries over
	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
}

func TestMemoryRateLimiter_FailuresCountExtra(t *testing.T) {
	limiter := NewMemoryRateLimiter(time.Minute, 5*time.Minute, 3, 2)

	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
	limiter.RecordFailure("alice", "place_wager")
	limiter.RecordFailure("alice", "place_wager")

	// 1 attempt + 2 weighted failures = 5 > 3
	decision := limiter.CheckAndRecord("alice", "place_wager")
	assert.False(t, decision.Allowed, "weighted failures must trip the limit sooner")
}

func TestMemoryRateLimiter_ClearResets(t *testing.T) {
	limiter := NewMemoryRateLimiter(time.Minute, 5*time.Minute, 2, 2)

	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)

	limiter.Clear("alice", "place_wager")

	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
}

func TestMemoryRateLimiter_ActorsAreIndependent(t *testing.T) {
	limiter := NewMemoryRateLimiter(time.Minute, 5*time.Minute, 1, 2)

	assert.True(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)
	assert.False(t, limiter.CheckAndRecord("alice", "place_wager").Allowed)

	assert.True(t, limiter.CheckAndRecord("bob", "place_wager").Allowed,
		"blocking one actor must not affect another")
}

func TestMemoryRateLimiter_Sweep(t *testing.T) {
	limiter := NewMemoryRateLimiter(10*time.Millisecond, 10*time.Millisecond, 1, 2)

	limiter.CheckAndRecord("alice", "place_wager") // stays within window
	limiter.CheckAndRecord("bob", "place_wager")
	limiter.CheckAndRecord("bob", "place_wager") // trips the block

	time.Sleep(20 * time.Millisecond)

	removed := limiter.Sweep()
	assert.Equal(t, 2, removed, "both the aged window and the expired block must be swept")
}

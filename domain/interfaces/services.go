package interfaces

import (
	"context"

	"croupier/domain/entities"
	"croupier/domain/events"
)

// WagerService drives one wager request from intake to settlement
type WagerService interface {
	// PlaceWager runs the full pipeline: validation, risk check, rate check,
	// payment verification, outcome resolution and payout. Rejections come
	// back as *entities.WagerRejection errors.
	PlaceWager(ctx context.Context, actorID string, game entities.GameType, betAmount int64) (*entities.WagerReceipt, error)
}

// BankrollService evaluates house risk limits from the live balance
type BankrollService interface {
	Evaluate(ctx context.Context) (*entities.BankrollEvaluation, error)
}

// PaymentVerifier matches a pending wager to an inbound on-chain transfer
// and atomically claims it
type PaymentVerifier interface {
	Verify(ctx context.Context, pending *entities.PendingWager) (*entities.VerifiedPayment, error)
}

// RateLimiter is per-(actor, action) admission control. Implementations may
// be process-local or distributed; the orchestrator only depends on this
// contract.
type RateLimiter interface {
	// CheckAndRecord counts one attempt and decides whether it may proceed
	CheckAndRecord(actorID, action string) *entities.RateDecision

	// RecordFailure penalizes the counter beyond a normal attempt, so failed
	// payment checks throttle harder than successful ones
	RecordFailure(actorID, action string)

	// Clear resets state after a successful settlement
	Clear(actorID, action string)
}

// EventPublisher publishes domain events for downstream consumers
type EventPublisher interface {
	Publish(event events.Event) error
}

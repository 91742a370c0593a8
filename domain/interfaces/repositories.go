package interfaces

import (
	"context"
	"time"

	"croupier/domain/entities"
)

// ConsumedTransactionRepository is the anti-replay ledger: a durable,
// append-only record of on-chain transactions that have already funded a
// wager.
type ConsumedTransactionRepository interface {
	// TryConsume atomically claims a transaction hash. It returns false when
	// the hash was already consumed, which callers must treat as "keep
	// scanning", never as an error. The uniqueness constraint on tx_hash is
	// the only synchronization between concurrent claimants.
	TryConsume(ctx context.Context, txHash, actorID string, amount int64, game entities.GameType) (bool, error)

	// GetByTxHash retrieves a consumed transaction, or nil if unclaimed
	GetByTxHash(ctx context.Context, txHash string) (*entities.ConsumedTransaction, error)

	// DeleteOlderThan removes rows consumed more than age ago and returns
	// the number deleted
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// JackpotRepository accumulates the house-edge share of losing bets per game
type JackpotRepository interface {
	// AddContribution adds amount to the game's pool and returns the new total
	AddContribution(ctx context.Context, game entities.GameType, amount int64) (int64, error)

	// GetPool returns the current pool for a game (zero if none yet)
	GetPool(ctx context.Context, game entities.GameType) (int64, error)
}

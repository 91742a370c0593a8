package repository

import (
	"context"
	"fmt"
	"time"

	"croupier/database"
	"croupier/domain/entities"
	"croupier/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type consumedTransactionRepository struct {
	q Queryable
}

// NewConsumedTransactionRepository creates a new consumed transaction repository
func NewConsumedTransactionRepository(db *database.DB) interfaces.ConsumedTransactionRepository {
	return &consumedTransactionRepository{q: db.Pool}
}

// TryConsume claims a transaction hash with a single constrained insert.
// Zero rows affected means another wager already consumed the hash; that is
// a normal outcome under concurrency, not an error. No pre-check is done:
// the uniqueness constraint closes the race window.
func (r *consumedTransactionRepository) TryConsume(ctx context.Context, txHash, actorID string, amount int64, game entities.GameType) (bool, error) {
	query := `
		INSERT INTO consumed_transactions (tx_hash, actor_id, amount, game_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tx_hash) DO NOTHING`

	tag, err := r.q.Exec(ctx, query, txHash, actorID, amount, string(game))
	if err != nil {
		return false, fmt.Errorf("failed to claim transaction %s: %w", txHash, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *consumedTransactionRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.ConsumedTransaction, error) {
	query := `
		SELECT id, tx_hash, actor_id, amount, game_type, consumed_at
		FROM consumed_transactions
		WHERE tx_hash = $1`

	var tx entities.ConsumedTransaction
	err := r.q.QueryRow(ctx, query, txHash).Scan(
		&tx.ID,
		&tx.TxHash,
		&tx.ActorID,
		&tx.Amount,
		&tx.Game,
		&tx.ConsumedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consumed transaction: %w", err)
	}

	return &tx, nil
}

func (r *consumedTransactionRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	query := `DELETE FROM consumed_transactions WHERE consumed_at < $1`

	tag, err := r.q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete consumed transactions before %v: %w", cutoff, err)
	}

	return tag.RowsAffected(), nil
}

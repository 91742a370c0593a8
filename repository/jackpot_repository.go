package repository

import (
	"context"
	"fmt"

	"croupier/database"
	"croupier/domain/entities"
	"croupier/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type jackpotRepository struct {
	q Queryable
}

// NewJackpotRepository creates a new jackpot repository
func NewJackpotRepository(db *database.DB) interfaces.JackpotRepository {
	return &jackpotRepository{q: db.Pool}
}

func (r *jackpotRepository) AddContribution(ctx context.Context, game entities.GameType, amount int64) (int64, error) {
	query := `
		INSERT INTO jackpot_pools (game_type, amount, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (game_type) DO UPDATE
		SET amount = jackpot_pools.amount + EXCLUDED.amount, updated_at = now()
		RETURNING amount`

	var pool int64
	err := r.q.QueryRow(ctx, query, string(game), amount).Scan(&pool)
	if err != nil {
		return 0, fmt.Errorf("failed to add jackpot contribution for %s: %w", game, err)
	}

	return pool, nil
}

func (r *jackpotRepository) GetPool(ctx context.Context, game entities.GameType) (int64, error) {
	query := `SELECT amount FROM jackpot_pools WHERE game_type = $1`

	var pool int64
	err := r.q.QueryRow(ctx, query, string(game)).Scan(&pool)

	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get jackpot pool for %s: %w", game, err)
	}

	return pool, nil
}

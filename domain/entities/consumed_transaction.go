package entities

import "time"

// ConsumedTransaction is one row of the anti-replay ledger: an inbound
// on-chain transaction that has funded a wager. Rows are append-only and
// unique by TxHash, which is what guarantees a transaction settles at most
// one wager.
type ConsumedTransaction struct {
	ID         int64     `db:"id"`
	TxHash     string    `db:"tx_hash"`
	ActorID    string    `db:"actor_id"`
	Amount     int64     `db:"amount"`
	Game       GameType  `db:"game_type"`
	ConsumedAt time.Time `db:"consumed_at"`
}

package events

import "croupier/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeTransactionClaimed EventType = "transaction_claimed"
	EventTypeWagerSettled       EventType = "wager_settled"
	EventTypeSettlementFailed   EventType = "settlement_failed"
	EventTypeBankrollStatus     EventType = "bankroll_status"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// TransactionClaimedEvent fires when an inbound transfer is matched to a
// wager and consumed in the anti-replay ledger
type TransactionClaimedEvent struct {
	ActorID string
	TxHash  string
	Amount  int64
	Game    entities.GameType
}

func (e TransactionClaimedEvent) Type() EventType {
	return EventTypeTransactionClaimed
}

// WagerSettledEvent fires once per completed wager, win or lose
type WagerSettledEvent struct {
	ActorID       string
	Game          entities.GameType
	BetAmount     int64
	Draw          int
	Multiplier    float64
	PayoutAmount  int64
	TxHash        string
	SettlementRef string
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// SettlementFailedEvent fires when the payout transfer failed after the
// outcome was already resolved. This is the loud error class: the draw is
// never re-rolled and the transfer is never blindly retried, so a human has
// to reconcile it.
type SettlementFailedEvent struct {
	ActorID      string
	Game         entities.GameType
	PayoutAmount int64
	PayerAddress string
	TxHash       string
	Reason       string
}

func (e SettlementFailedEvent) Type() EventType {
	return EventTypeSettlementFailed
}

// BankrollStatusEvent fires when a bankroll evaluation comes back degraded
type BankrollStatusEvent struct {
	Status  entities.BankrollStatus
	Balance int64
	MaxBet  int64
}

func (e BankrollStatusEvent) Type() EventType {
	return EventTypeBankrollStatus
}

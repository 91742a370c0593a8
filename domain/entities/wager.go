package entities

import (
	"time"
)

// WagerState tracks where a wager request is in the settlement pipeline
type WagerState string

const (
	WagerStateIntake          WagerState = "intake"
	WagerStateRiskCheck       WagerState = "risk_check"
	WagerStateRateCheck       WagerState = "rate_check"
	WagerStateAwaitingPayment WagerState = "awaiting_payment"
	WagerStateResolving       WagerState = "resolving"
	WagerStateSettling        WagerState = "settling"
	WagerStateDone            WagerState = "done"
	WagerStateRejected        WagerState = "rejected"
)

// PendingWager is the in-flight state of one wager request. It lives only for
// the duration of the request and is never persisted: if the process dies
// mid-verification the caller resubmits and the still-unclaimed on-chain
// transaction can satisfy the new request.
type PendingWager struct {
	ActorID       string
	Game          GameType
	BetAmount     int64 // nanotons
	RequestedAt   time.Time
	WalletAddress string // house wallet the payment must arrive at
	State         WagerState
}

// VerifiedPayment is the result of matching and claiming an inbound transfer
type VerifiedPayment struct {
	TxHash       string
	Amount       int64 // nanotons actually received
	PayerAddress string
}

// WagerReceipt is the full settlement record returned to the caller
type WagerReceipt struct {
	ActorID         string
	Game            GameType
	BetAmount       int64
	Draw            int
	Multiplier      float64
	OutcomeLabel    string
	PayoutAmount    int64
	TxHash          string // claimed inbound transaction
	SettlementRef   string // outbound transfer reference, empty on a loss
	SettlementError string // set when the payout transfer failed after the draw
}

// Won reports whether the wager resolved to a paying tier
func (r *WagerReceipt) Won() bool {
	return r.Multiplier > 0
}

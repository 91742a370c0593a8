package entities

import (
	"errors"
	"fmt"
	"time"
)

// RejectReason is the machine-readable cause of a wager rejection
type RejectReason string

const (
	ReasonInvalidBet       RejectReason = "invalid_bet"
	ReasonRiskRejected     RejectReason = "risk_rejected"
	ReasonRateLimited      RejectReason = "rate_limited"
	ReasonPaymentNotFound  RejectReason = "payment_not_found"
	ReasonPaymentExpired   RejectReason = "payment_expired"
	ReasonSettlementFailed RejectReason = "settlement_failed"
)

// WagerRejection is the typed error surfaced to callers when a wager cannot
// proceed. The message is written for the human at the other end of the chat.
type WagerRejection struct {
	Reason     RejectReason
	Message    string
	RetryAfter time.Duration // nonzero only for rate-limited rejections
}

func (r *WagerRejection) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("%s: %s (retry after %s)", r.Reason, r.Message, r.RetryAfter)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

// NewRejection creates a rejection with the given reason and message
func NewRejection(reason RejectReason, format string, args ...any) *WagerRejection {
	return &WagerRejection{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsRejection unwraps err into a WagerRejection if it is one
func AsRejection(err error) (*WagerRejection, bool) {
	var rejection *WagerRejection
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}

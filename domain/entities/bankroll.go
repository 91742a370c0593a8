package entities

import (
	"errors"
	"time"
)

// BankrollStatus classifies the health of the house balance
type BankrollStatus string

const (
	BankrollHealthy  BankrollStatus = "healthy"
	BankrollWarning  BankrollStatus = "warning"
	BankrollCritical BankrollStatus = "critical"
)

// ErrInvalidBalance is returned when the bankroll balance cannot be evaluated
var ErrInvalidBalance = errors.New("invalid bankroll balance")

// BankrollEvaluation is a point-in-time risk assessment derived from the live
// balance. It has no identity beyond the call that produced it.
type BankrollEvaluation struct {
	Status        BankrollStatus
	CanAcceptBets bool
	MaxBet        int64 // nanotons
	MinBet        int64 // nanotons
	Balance       int64 // nanotons, the snapshot the evaluation was made from
}

// RateDecision is the rate limiter's answer for one attempt
type RateDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

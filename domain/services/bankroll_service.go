package services

import (
	"context"
	"fmt"
	"math"

	"croupier/domain/entities"
	"croupier/domain/interfaces"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// RiskConfig holds the bankroll thresholds the risk calculator works from
type RiskConfig struct {
	MinBet              int64 // nanotons
	MinBankroll         int64 // nanotons
	MaxBetPercent       float64
	MaxPayoutMultiplier float64 // highest multiplier across all payout tables
}

// EvaluateBankroll is the pure risk calculation: it maps a balance snapshot
// to a health status and a maximum admissible bet. The coverage term keeps
// the bankroll able to pay the worst-case outcome of the bet being
// evaluated: MaxBet * MaxPayoutMultiplier never exceeds the balance.
func EvaluateBankroll(balance int64, cfg RiskConfig) (*entities.BankrollEvaluation, error) {
	if balance < 0 {
		return nil, fmt.Errorf("%w: %d", entities.ErrInvalidBalance, balance)
	}
	if math.IsNaN(cfg.MaxBetPercent) || cfg.MaxBetPercent < 0 {
		return nil, fmt.Errorf("%w: max bet percent %v", entities.ErrInvalidBalance, cfg.MaxBetPercent)
	}

	multiplier := cfg.MaxPayoutMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	status := entities.BankrollHealthy
	switch {
	case balance < cfg.MinBankroll/2:
		status = entities.BankrollCritical
	case balance < cfg.MinBankroll:
		status = entities.BankrollWarning
	}

	byPercent := int64(float64(balance) * cfg.MaxBetPercent / 100)
	byCoverage := int64(float64(balance) / multiplier)
	maxBet := byPercent
	if byCoverage < maxBet {
		maxBet = byCoverage
	}

	return &entities.BankrollEvaluation{
		Status:        status,
		CanAcceptBets: status != entities.BankrollCritical,
		MaxBet:        maxBet,
		MinBet:        cfg.MinBet,
		Balance:       balance,
	}, nil
}

type bankrollService struct {
	chain         interfaces.ChainReader
	walletAddress string
	cfg           RiskConfig
}

// NewBankrollService creates a bankroll service reading the live balance of
// the house wallet. The balance is an unsynchronized snapshot used as an
// advisory ceiling, not a reservation.
func NewBankrollService(chain interfaces.ChainReader, walletAddress string, cfg RiskConfig) interfaces.BankrollService {
	return &bankrollService{
		chain:         chain,
		walletAddress: walletAddress,
		cfg:           cfg,
	}
}

func (s *bankrollService) Evaluate(ctx context.Context) (*entities.BankrollEvaluation, error) {
	// Transient ledger read failures get a bounded retry; the balance read is
	// idempotent, so re-asking is always safe.
	var balance int64
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	err := backoff.Retry(func() error {
		var readErr error
		balance, readErr = s.chain.GetBalance(ctx, s.walletAddress)
		if readErr != nil {
			log.WithFields(log.Fields{
				"wallet": s.walletAddress,
				"error":  readErr,
			}).Warn("Bankroll balance read failed, will retry")
		}
		return readErr
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to read bankroll balance: %w", err)
	}

	eval, err := EvaluateBankroll(balance, s.cfg)
	if err != nil {
		return nil, err
	}

	if eval.Status != entities.BankrollHealthy {
		log.WithFields(log.Fields{
			"status":  eval.Status,
			"balance": eval.Balance,
			"maxBet":  eval.MaxBet,
		}).Warn("Bankroll below configured threshold")
	}

	return eval, nil
}

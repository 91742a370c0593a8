package services

import (
	"context"
	"fmt"
	"time"

	"croupier/domain/entities"
	"croupier/domain/interfaces"
	"croupier/domain/utils"
	"croupier/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// VerifierConfig parameterizes the payment polling loop
type VerifierConfig struct {
	TolerancePercent int64         // accept transfers down to this percent of the bet
	MaxPaymentAge    time.Duration // transactions older than this cannot fund a wager
	PollInterval     time.Duration
	MaxAttempts      int
	TxScanLimit      int // how many recent ledger entries to scan per poll
}

type paymentVerifier struct {
	chain    interfaces.ChainReader
	consumed interfaces.ConsumedTransactionRepository
	cfg      VerifierConfig
}

// NewPaymentVerifier creates a payment verifier polling the external ledger
func NewPaymentVerifier(chain interfaces.ChainReader, consumed interfaces.ConsumedTransactionRepository, cfg VerifierConfig) interfaces.PaymentVerifier {
	return &paymentVerifier{
		chain:    chain,
		consumed: consumed,
		cfg:      cfg,
	}
}

// Verify polls the house wallet's transaction feed until a matching,
// unclaimed inbound transfer appears or the attempt budget runs out. A
// candidate is matched by amount, freshness and memo, never by sender
// address: players pay from wallets the system has never seen, so the memo
// is the correlation token. Ledger read failures are absorbed and consume
// attempts; only Verified or the expired rejection crosses this boundary.
func (v *paymentVerifier) Verify(ctx context.Context, pending *entities.PendingWager) (*entities.VerifiedPayment, error) {
	minAmount := pending.BetAmount * v.cfg.TolerancePercent / 100
	started := time.Now()

	logger := log.WithFields(log.Fields{
		"actorId":   pending.ActorID,
		"game":      pending.Game,
		"betAmount": pending.BetAmount,
		"wallet":    pending.WalletAddress,
	})

	sawConsumed := false
	for attempt := 1; attempt <= v.cfg.MaxAttempts; attempt++ {
		txs, err := v.chain.GetRecentTransactions(ctx, pending.WalletAddress, v.cfg.TxScanLimit)
		if err != nil {
			logger.WithFields(log.Fields{
				"attempt": attempt,
				"error":   err,
			}).Warn("Ledger read failed, will retry")
		} else {
			payment, consumed, err := v.scan(ctx, pending, txs, minAmount)
			if err != nil {
				return nil, err
			}
			sawConsumed = sawConsumed || consumed
			if payment != nil {
				observability.GetMetrics().RecordVerificationDuration(string(pending.Game), time.Since(started))
				logger.WithFields(log.Fields{
					"txHash": payment.TxHash,
					"amount": payment.Amount,
					"payer":  payment.PayerAddress,
				}).Info("Payment verified and claimed")
				return payment, nil
			}
		}

		if attempt == v.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(v.cfg.PollInterval):
		}
	}

	if sawConsumed {
		logger.Info("Every matching transfer was already consumed")
		return nil, entities.NewRejection(entities.ReasonPaymentNotFound,
			"the matching transfer has already funded another wager. Send a new payment of at least %s to %s with the comment %q and resubmit.",
			utils.FormatTON(minAmount),
			pending.WalletAddress,
			utils.NormalizeMemo(pending.ActorID),
		)
	}
	logger.Info("Payment verification expired")
	return nil, v.expiredRejection(pending, minAmount)
}

// scan walks the candidate list and tries to claim the first match. A hash
// already consumed by another wager means keep scanning, never an error;
// the consumed flag distinguishes "a transfer matched but was spent" from
// "nothing matched at all" when the attempt budget runs out.
func (v *paymentVerifier) scan(ctx context.Context, pending *entities.PendingWager, txs []*entities.ChainTransaction, minAmount int64) (*entities.VerifiedPayment, bool, error) {
	sawConsumed := false
	for _, tx := range txs {
		if !v.matches(pending, tx, minAmount) {
			continue
		}

		claimed, err := v.consumed.TryConsume(ctx, tx.Hash, pending.ActorID, tx.Amount, pending.Game)
		if err != nil {
			return nil, sawConsumed, fmt.Errorf("failed to claim transaction %s: %w", tx.Hash, err)
		}
		if !claimed {
			observability.GetMetrics().RecordReplayRejection(string(pending.Game))
			log.WithFields(log.Fields{
				"txHash":  tx.Hash,
				"actorId": pending.ActorID,
			}).Debug("Transaction already consumed, continuing scan")
			sawConsumed = true
			continue
		}

		return &entities.VerifiedPayment{
			TxHash:       tx.Hash,
			Amount:       tx.Amount,
			PayerAddress: tx.SenderAddress,
		}, sawConsumed, nil
	}
	return nil, sawConsumed, nil
}

// clockSkewAllowance tolerates chain nodes whose clocks run slightly ahead
const clockSkewAllowance = 30 * time.Second

// matches applies the acceptance filters in order: inbound, amount within
// tolerance, fresh relative to the request but not from the future, and memo
// identifying the actor.
func (v *paymentVerifier) matches(pending *entities.PendingWager, tx *entities.ChainTransaction, minAmount int64) bool {
	if !tx.Inbound {
		return false
	}
	if tx.Amount < minAmount {
		return false
	}
	if tx.Timestamp.Before(pending.RequestedAt) {
		return false
	}
	if tx.Timestamp.After(time.Now().Add(clockSkewAllowance)) {
		return false
	}
	if time.Since(tx.Timestamp) > v.cfg.MaxPaymentAge {
		return false
	}
	return utils.MemoMatches(tx.Memo, pending.ActorID)
}

// expiredRejection spells out the exact acceptance criteria so the player
// can self-correct and resubmit; a resubmission re-scans and can still claim
// the same transaction if it is within the freshness window.
func (v *paymentVerifier) expiredRejection(pending *entities.PendingWager, minAmount int64) *entities.WagerRejection {
	return entities.NewRejection(entities.ReasonPaymentExpired,
		"payment not found. To fund this wager, send at least %s to %s with the comment %q, within %s of placing the bet. If you already paid, resubmit the wager and the transfer will be picked up.",
		utils.FormatTON(minAmount),
		pending.WalletAddress,
		utils.NormalizeMemo(pending.ActorID),
		v.cfg.MaxPaymentAge,
	)
}

package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"croupier/domain/entities"
	"croupier/domain/events"
	"croupier/domain/interfaces"
	"croupier/domain/utils"
	"croupier/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// ActionPlaceWager is the rate-limit action key for wager placement
const ActionPlaceWager = "place_wager"

// WagerConfig holds the orchestrator's own knobs
type WagerConfig struct {
	MinBet             int64
	HouseEdgePercent   int64 // share of a losing bet diverted to the jackpot pool
	HouseWalletAddress string
	Games              map[entities.GameType]*entities.GameConfig
}

type wagerService struct {
	bankroll  interfaces.BankrollService
	limiter   interfaces.RateLimiter
	verifier  interfaces.PaymentVerifier
	wallet    interfaces.WalletSender
	jackpots  interfaces.JackpotRepository
	publisher interfaces.EventPublisher
	cfg       WagerConfig

	// draw returns a uniform value in [1, n]; swapped out in tests
	draw func(n int) int
}

// NewWagerService creates the wager orchestrator
func NewWagerService(
	bankroll interfaces.BankrollService,
	limiter interfaces.RateLimiter,
	verifier interfaces.PaymentVerifier,
	wallet interfaces.WalletSender,
	jackpots interfaces.JackpotRepository,
	publisher interfaces.EventPublisher,
	cfg WagerConfig,
) interfaces.WagerService {
	return &wagerService{
		bankroll:  bankroll,
		limiter:   limiter,
		verifier:  verifier,
		wallet:    wallet,
		jackpots:  jackpots,
		publisher: publisher,
		cfg:       cfg,
		draw: func(n int) int {
			return rand.Intn(n) + 1
		},
	}
}

// PlaceWager drives one wager through intake, risk check, rate check,
// payment verification, outcome resolution and settlement. Steps within a
// wager are strictly sequential; across wagers the only synchronization is
// the anti-replay ledger's atomic claim.
func (s *wagerService) PlaceWager(ctx context.Context, actorID string, game entities.GameType, betAmount int64) (*entities.WagerReceipt, error) {
	pending := &entities.PendingWager{
		ActorID:       actorID,
		Game:          game,
		BetAmount:     betAmount,
		RequestedAt:   time.Now(),
		WalletAddress: s.cfg.HouseWalletAddress,
		State:         entities.WagerStateIntake,
	}

	logger := log.WithFields(log.Fields{
		"actorId":   actorID,
		"game":      game,
		"betAmount": betAmount,
	})

	// Intake
	gameCfg, ok := s.cfg.Games[game]
	if !ok {
		return nil, s.reject(pending, entities.NewRejection(entities.ReasonInvalidBet, "unknown game %q", game))
	}
	if betAmount < s.cfg.MinBet {
		return nil, s.reject(pending, entities.NewRejection(entities.ReasonInvalidBet,
			"minimum bet is %s", utils.FormatTON(s.cfg.MinBet)))
	}

	// RiskCheck
	pending.State = entities.WagerStateRiskCheck
	eval, err := s.bankroll.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate bankroll: %w", err)
	}
	if eval.Status != entities.BankrollHealthy {
		s.publish(events.BankrollStatusEvent{
			Status:  eval.Status,
			Balance: eval.Balance,
			MaxBet:  eval.MaxBet,
		})
	}
	if !eval.CanAcceptBets {
		return nil, s.reject(pending, entities.NewRejection(entities.ReasonRiskRejected,
			"the house is not accepting bets right now, try again later"))
	}
	if betAmount > eval.MaxBet {
		return nil, s.reject(pending, entities.NewRejection(entities.ReasonRiskRejected,
			"bet exceeds the current table limit of %s", utils.FormatTON(eval.MaxBet)))
	}

	// RateCheck
	pending.State = entities.WagerStateRateCheck
	decision := s.limiter.CheckAndRecord(actorID, ActionPlaceWager)
	if !decision.Allowed {
		rejection := entities.NewRejection(entities.ReasonRateLimited,
			"too many attempts, slow down")
		rejection.RetryAfter = decision.RetryAfter
		return nil, s.reject(pending, rejection)
	}

	// AwaitingPayment
	pending.State = entities.WagerStateAwaitingPayment
	payment, err := s.verifier.Verify(ctx, pending)
	if err != nil {
		// Failed payment checks count extra against the rate limit to
		// throttle brute-force polling.
		s.limiter.RecordFailure(actorID, ActionPlaceWager)
		pending.State = entities.WagerStateRejected
		return nil, err
	}

	observability.GetMetrics().RecordPaymentVerified(string(game))
	s.publish(events.TransactionClaimedEvent{
		ActorID: actorID,
		TxHash:  payment.TxHash,
		Amount:  payment.Amount,
		Game:    game,
	})

	// Resolving
	pending.State = entities.WagerStateResolving
	drawn := s.draw(gameCfg.SpaceSize)
	outcome, err := gameCfg.Resolve(drawn)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve outcome: %w", err)
	}
	payout := int64(float64(betAmount) * outcome.Multiplier)

	receipt := &entities.WagerReceipt{
		ActorID:      actorID,
		Game:         game,
		BetAmount:    betAmount,
		Draw:         outcome.Draw,
		Multiplier:   outcome.Multiplier,
		OutcomeLabel: outcome.Label,
		PayoutAmount: payout,
		TxHash:       payment.TxHash,
	}

	logger.WithFields(log.Fields{
		"draw":       outcome.Draw,
		"multiplier": outcome.Multiplier,
		"payout":     payout,
	}).Info("Wager resolved")

	// Settling. The draw already happened and is never re-rolled: a payout
	// failure is recorded on the receipt and escalated, not retried.
	pending.State = entities.WagerStateSettling
	if payout > 0 {
		s.settleWin(ctx, pending, payment, receipt)
	} else {
		s.settleLoss(ctx, pending, logger)
	}

	// Done
	pending.State = entities.WagerStateDone
	s.limiter.Clear(actorID, ActionPlaceWager)

	result := "lost"
	if receipt.Won() {
		result = "won"
	}
	observability.GetMetrics().RecordWagerSettled(string(game), result)

	s.publish(events.WagerSettledEvent{
		ActorID:       actorID,
		Game:          game,
		BetAmount:     betAmount,
		Draw:          receipt.Draw,
		Multiplier:    receipt.Multiplier,
		PayoutAmount:  receipt.PayoutAmount,
		TxHash:        receipt.TxHash,
		SettlementRef: receipt.SettlementRef,
	})

	return receipt, nil
}

// settleWin issues the single outbound payout transfer to the address the
// payment came from
func (s *wagerService) settleWin(ctx context.Context, pending *entities.PendingWager, payment *entities.VerifiedPayment, receipt *entities.WagerReceipt) {
	memo := fmt.Sprintf("%s %s x%g", pending.Game, receipt.OutcomeLabel, receipt.Multiplier)

	ref, err := s.wallet.SendTransfer(ctx, payment.PayerAddress, receipt.PayoutAmount, memo)
	if err != nil {
		receipt.SettlementError = err.Error()
		observability.GetMetrics().RecordSettlementFailure(string(pending.Game))
		log.WithFields(log.Fields{
			"actorId": pending.ActorID,
			"game":    pending.Game,
			"payout":  receipt.PayoutAmount,
			"payer":   payment.PayerAddress,
			"txHash":  payment.TxHash,
			"error":   err,
		}).Error("Settlement transfer failed, manual reconciliation required")
		s.publish(events.SettlementFailedEvent{
			ActorID:      pending.ActorID,
			Game:         pending.Game,
			PayoutAmount: receipt.PayoutAmount,
			PayerAddress: payment.PayerAddress,
			TxHash:       payment.TxHash,
			Reason:       err.Error(),
		})
		return
	}

	receipt.SettlementRef = ref
}

// settleLoss diverts the configured house-edge share of the bet into the
// game's jackpot pool. The rest stays in the house wallet where the payment
// already landed.
func (s *wagerService) settleLoss(ctx context.Context, pending *entities.PendingWager, logger *log.Entry) {
	contribution := pending.BetAmount * s.cfg.HouseEdgePercent / 100
	if contribution <= 0 {
		return
	}

	pool, err := s.jackpots.AddContribution(ctx, pending.Game, contribution)
	if err != nil {
		logger.WithField("error", err).Error("Failed to record jackpot contribution")
		return
	}
	logger.WithFields(log.Fields{
		"contribution": contribution,
		"pool":         pool,
	}).Debug("Jackpot contribution recorded")
}

func (s *wagerService) reject(pending *entities.PendingWager, rejection *entities.WagerRejection) error {
	pending.State = entities.WagerStateRejected
	observability.GetMetrics().RecordWagerRejected(string(pending.Game), string(rejection.Reason))
	log.WithFields(log.Fields{
		"actorId": pending.ActorID,
		"game":    pending.Game,
		"reason":  rejection.Reason,
	}).Info("Wager rejected")
	return rejection
}

// publish is best-effort: event delivery must never affect settlement
func (s *wagerService) publish(event events.Event) {
	if err := s.publisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Warn("Failed to publish event")
	}
}

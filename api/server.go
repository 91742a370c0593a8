// Package api exposes the settlement engine over HTTP for the chat
// transports and back-office tooling that drive it.
package api

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"croupier/domain/entities"
	"croupier/domain/interfaces"
)

// Server hosts the HTTP surface of the engine
type Server struct {
	app      *fiber.App
	wagers   interfaces.WagerService
	bankroll interfaces.BankrollService
	jackpots interfaces.JackpotRepository
}

// NewServer wires the routes onto a fiber app
func NewServer(wagers interfaces.WagerService, bankroll interfaces.BankrollService, jackpots interfaces.JackpotRepository) *Server {
	s := &Server{
		app:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		wagers:   wagers,
		bankroll: bankroll,
		jackpots: jackpots,
	}

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := s.app.Group("/v1")
	v1.Post("/wagers", s.handlePlaceWager)
	v1.Get("/bankroll", s.handleBankroll)
	v1.Get("/jackpots/:game", s.handleJackpot)

	return s
}

type placeWagerRequest struct {
	ActorID   string `json:"actor_id"`
	Game      string `json:"game"`
	BetAmount int64  `json:"bet_amount"` // nanotons
}

// handlePlaceWager runs one wager to completion. The request blocks for the
// duration of payment verification, so callers should budget for the full
// poll window.
func (s *Server) handlePlaceWager(c *fiber.Ctx) error {
	var body placeWagerRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}
	if body.ActorID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "actor_id is required"})
	}

	receipt, err := s.wagers.PlaceWager(c.UserContext(), body.ActorID, entities.GameType(body.Game), body.BetAmount)
	if err != nil {
		if rejection, ok := entities.AsRejection(err); ok {
			resp := fiber.Map{
				"reason":  rejection.Reason,
				"message": rejection.Message,
			}
			if rejection.RetryAfter > 0 {
				resp["retry_after_seconds"] = int64(rejection.RetryAfter.Seconds())
			}
			return c.Status(rejectionStatus(rejection.Reason)).JSON(resp)
		}
		log.WithFields(log.Fields{
			"actorId": body.ActorID,
			"error":   err,
		}).Error("Wager failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	return c.JSON(fiber.Map{
		"actor_id":         receipt.ActorID,
		"game":             receipt.Game,
		"bet_amount":       receipt.BetAmount,
		"draw":             receipt.Draw,
		"multiplier":       receipt.Multiplier,
		"outcome":          receipt.OutcomeLabel,
		"payout_amount":    receipt.PayoutAmount,
		"tx_hash":          receipt.TxHash,
		"settlement_ref":   receipt.SettlementRef,
		"settlement_error": receipt.SettlementError,
	})
}

func (s *Server) handleBankroll(c *fiber.Ctx) error {
	eval, err := s.bankroll.Evaluate(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"status":          eval.Status,
		"can_accept_bets": eval.CanAcceptBets,
		"max_bet":         eval.MaxBet,
		"min_bet":         eval.MinBet,
		"balance":         eval.Balance,
	})
}

func (s *Server) handleJackpot(c *fiber.Ctx) error {
	game := entities.GameType(c.Params("game"))
	pool, err := s.jackpots.GetPool(c.UserContext(), game)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{
		"game": game,
		"pool": pool,
	})
}

func rejectionStatus(reason entities.RejectReason) int {
	switch reason {
	case entities.ReasonRateLimited:
		return fiber.StatusTooManyRequests
	case entities.ReasonPaymentExpired, entities.ReasonPaymentNotFound:
		return fiber.StatusPaymentRequired
	case entities.ReasonRiskRejected:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

// Listen serves until Shutdown is called
func (s *Server) Listen(addr string) error {
	log.WithField("addr", addr).Info("HTTP API listening")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

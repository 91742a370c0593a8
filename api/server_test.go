package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"croupier/domain/entities"
	"croupier/domain/testhelpers"
)

type serverFixture struct {
	wagers   *testhelpers.MockWagerService
	bankroll *testhelpers.MockBankrollService
	jackpots *testhelpers.MockJackpotRepository
	server   *Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := &serverFixture{
		wagers:   new(testhelpers.MockWagerService),
		bankroll: new(testhelpers.MockBankrollService),
		jackpots: new(testhelpers.MockJackpotRepository),
	}
	f.server = NewServer(f.wagers, f.bankroll, f.jackpots)
	return f
}

func postJSON(t *testing.T, f *serverFixture, path string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.server.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

func TestServer_PlaceWager(t *testing.T) {
	f := newServerFixture(t)
	f.wagers.On("PlaceWager", mock.Anything, "alice", entities.GameTypeSlots, int64(1_000_000_000)).
		Return(&entities.WagerReceipt{
			ActorID:       "alice",
			Game:          entities.GameTypeSlots,
			BetAmount:     1_000_000_000,
			Draw:          64,
			Multiplier:    10,
			OutcomeLabel:  "jackpot 777",
			PayoutAmount:  10_000_000_000,
			TxHash:        "tx1",
			SettlementRef: "lt:1:hash:out",
		}, nil)

	status, body := postJSON(t, f, "/v1/wagers", placeWagerRequest{
		ActorID:   "alice",
		Game:      "slots",
		BetAmount: 1_000_000_000,
	})

	assert.Equal(t, 200, status)
	assert.Equal(t, "jackpot 777", body["outcome"])
	assert.Equal(t, float64(10_000_000_000), body["payout_amount"])
	f.wagers.AssertExpectations(t)
}

func TestServer_PlaceWager_RateLimited(t *testing.T) {
	f := newServerFixture(t)
	rejection := entities.NewRejection(entities.ReasonRateLimited, "too many attempts, slow down")
	rejection.RetryAfter = 5 * time.Minute
	f.wagers.On("PlaceWager", mock.Anything, "alice", entities.GameTypeSlots, int64(1_000_000_000)).
		Return(nil, rejection)

	status, body := postJSON(t, f, "/v1/wagers", placeWagerRequest{
		ActorID:   "alice",
		Game:      "slots",
		BetAmount: 1_000_000_000,
	})

	assert.Equal(t, 429, status)
	assert.Equal(t, "rate_limited", body["reason"])
	assert.Equal(t, float64(300), body["retry_after_seconds"])
}

func TestServer_PlaceWager_PaymentExpired(t *testing.T) {
	f := newServerFixture(t)
	f.wagers.On("PlaceWager", mock.Anything, "alice", entities.GameTypeSlots, int64(1_000_000_000)).
		Return(nil, entities.NewRejection(entities.ReasonPaymentExpired, "payment not found"))

	status, body := postJSON(t, f, "/v1/wagers", placeWagerRequest{
		ActorID:   "alice",
		Game:      "slots",
		BetAmount: 1_000_000_000,
	})

	assert.Equal(t, 402, status)
	assert.Equal(t, "payment_expired", body["reason"])
}

func TestServer_PlaceWager_MissingActor(t *testing.T) {
	f := newServerFixture(t)

	status, _ := postJSON(t, f, "/v1/wagers", placeWagerRequest{Game: "slots", BetAmount: 1})

	assert.Equal(t, 400, status)
	f.wagers.AssertNotCalled(t, "PlaceWager", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestServer_Bankroll(t *testing.T) {
	f := newServerFixture(t)
	f.bankroll.On("Evaluate", mock.Anything).Return(&entities.BankrollEvaluation{
		Status:        entities.BankrollHealthy,
		CanAcceptBets: true,
		MaxBet:        5_000_000_000,
		MinBet:        100_000_000,
		Balance:       100_000_000_000,
	}, nil)

	req := httptest.NewRequest("GET", "/v1/bankroll", nil)
	resp, err := f.server.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["can_accept_bets"])
}

func TestServer_Jackpot(t *testing.T) {
	f := newServerFixture(t)
	f.jackpots.On("GetPool", mock.Anything, entities.GameTypeSlots).Return(int64(400_000_000), nil)

	req := httptest.NewRequest("GET", "/v1/jackpots/slots", nil)
	resp, err := f.server.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(400_000_000), body["pool"])
}

func TestServer_Health(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := f.server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"croupier/domain/entities"
	"croupier/domain/testhelpers"
)

func testVerifierConfig() VerifierConfig {
	return VerifierConfig{
		TolerancePercent: 99,
		MaxPaymentAge:    15 * time.Minute,
		PollInterval:     time.Millisecond,
		MaxAttempts:      2,
		TxScanLimit:      20,
	}
}

func testPendingWager() *entities.PendingWager {
	return &entities.PendingWager{
		ActorID:       "alice",
		Game:          entities.GameTypeSlots,
		BetAmount:     1_000_000_000, // 1 TON
		RequestedAt:   time.Now().Add(-time.Minute),
		WalletAddress: "EQHouse",
		State:         entities.WagerStateAwaitingPayment,
	}
}

func inboundTx(hash string, amount int64, memo string) *entities.ChainTransaction {
	return &entities.ChainTransaction{
		Hash:          hash,
		Inbound:       true,
		Amount:        amount,
		SenderAddress: "EQPayer",
		Memo:          memo,
		Timestamp:     time.Now().Add(-10 * time.Second),
	}
}

func TestPaymentVerifier_VerifiesAndClaims(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{inboundTx("tx1", 1_000_000_000, "alice")}, nil)
	consumed.On("TryConsume", mock.Anything, "tx1", "alice", int64(1_000_000_000), entities.GameTypeSlots).
		Return(true, nil)

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	payment, err := verifier.Verify(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, "tx1", payment.TxHash)
	assert.Equal(t, int64(1_000_000_000), payment.Amount)
	assert.Equal(t, "EQPayer", payment.PayerAddress)
	consumed.AssertExpectations(t)
}

func TestPaymentVerifier_ToleranceAcceptsSlightUnderpayment(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	// 0.99 TON against a 1 TON bet passes at 99% tolerance
	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{inboundTx("tx1", 990_000_000, "alice")}, nil)
	consumed.On("TryConsume", mock.Anything, "tx1", "alice", int64(990_000_000), entities.GameTypeSlots).
		Return(true, nil)

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	payment, err := verifier.Verify(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, int64(990_000_000), payment.Amount)
}

func TestPaymentVerifier_RejectsBelowTolerance(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{inboundTx("tx1", 980_000_000, "alice")}, nil)

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	_, err := verifier.Verify(context.Background(), pending)
	require.Error(t, err)

	rejection, ok := entities.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, entities.ReasonPaymentExpired, rejection.Reason)
	consumed.AssertNotCalled(t, "TryConsume", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentVerifier_AlreadyConsumedKeepsScanning(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{
			inboundTx("replayed", 1_000_000_000, "alice"),
			inboundTx("fresh", 1_000_000_000, "alice"),
		}, nil)
	consumed.On("TryConsume", mock.Anything, "replayed", "alice", int64(1_000_000_000), entities.GameTypeSlots).
		Return(false, nil)
	consumed.On("TryConsume", mock.Anything, "fresh", "alice", int64(1_000_000_000), entities.GameTypeSlots).
		Return(true, nil)

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	payment, err := verifier.Verify(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, "fresh", payment.TxHash,
		"a hash lost to another claimant must not abort the scan")
}

func TestPaymentVerifier_AllCandidatesConsumedIsPaymentNotFound(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{inboundTx("replayed", 1_000_000_000, "alice")}, nil)
	consumed.On("TryConsume", mock.Anything, "replayed", "alice", int64(1_000_000_000), entities.GameTypeSlots).
		Return(false, nil)

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	_, err := verifier.Verify(context.Background(), pending)
	require.Error(t, err)

	rejection, ok := entities.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, entities.ReasonPaymentNotFound, rejection.Reason,
		"a transfer that matched but was already spent is a distinct failure from no transfer at all")
	assert.Contains(t, rejection.Message, "already funded another wager")
}

func TestPaymentVerifier_FiltersNonMatching(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	outbound := inboundTx("outbound", 1_000_000_000, "alice")
	outbound.Inbound = false

	beforeRequest := inboundTx("early", 1_000_000_000, "alice")
	beforeRequest.Timestamp = pending.RequestedAt.Add(-time.Second)

	stale := inboundTx("stale", 1_000_000_000, "alice")
	stale.Timestamp = time.Now().Add(-16 * time.Minute)

	wrongMemo := inboundTx("wrongmemo", 1_000_000_000, "bob")

	futureDated := inboundTx("future", 1_000_000_000, "alice")
	futureDated.Timestamp = time.Now().Add(time.Hour)

	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{outbound, beforeRequest, stale, wrongMemo, futureDated}, nil)

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	_, err := verifier.Verify(context.Background(), pending)
	require.Error(t, err)

	rejection, ok := entities.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, entities.ReasonPaymentExpired, rejection.Reason)
	consumed.AssertNotCalled(t, "TryConsume", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentVerifier_MemoMatchingIsLenient(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	// Wallet apps love prepending @ and changing case
	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{inboundTx("tx1", 1_000_000_000, "@Alice ")}, nil)
	consumed.On("TryConsume", mock.Anything, "tx1", "alice", int64(1_000_000_000), entities.GameTypeSlots).
		Return(true, nil)

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	payment, err := verifier.Verify(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, "tx1", payment.TxHash)
}

func TestPaymentVerifier_LedgerFailureAbsorbedThenRecovered(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return(nil, errors.New("toncenter 503")).Once()
	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{inboundTx("tx1", 1_000_000_000, "alice")}, nil).Once()
	consumed.On("TryConsume", mock.Anything, "tx1", "alice", int64(1_000_000_000), entities.GameTypeSlots).
		Return(true, nil)

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	payment, err := verifier.Verify(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, "tx1", payment.TxHash)
	chain.AssertExpectations(t)
}

func TestPaymentVerifier_ClaimErrorPropagates(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{inboundTx("tx1", 1_000_000_000, "alice")}, nil)
	consumed.On("TryConsume", mock.Anything, "tx1", "alice", int64(1_000_000_000), entities.GameTypeSlots).
		Return(false, errors.New("connection refused"))

	verifier := NewPaymentVerifier(chain, consumed, testVerifierConfig())

	_, err := verifier.Verify(context.Background(), pending)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to claim transaction")
}

func TestPaymentVerifier_ContextCancellation(t *testing.T) {
	pending := testPendingWager()
	chain := new(testhelpers.MockChainReader)
	consumed := new(testhelpers.MockConsumedTransactionRepository)

	chain.On("GetRecentTransactions", mock.Anything, "EQHouse", 20).
		Return([]*entities.ChainTransaction{}, nil)

	cfg := testVerifierConfig()
	cfg.PollInterval = time.Minute // force the wait branch
	verifier := NewPaymentVerifier(chain, consumed, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := verifier.Verify(ctx, pending)
	assert.ErrorIs(t, err, context.Canceled)
}

package testhelpers

import (
	"context"
	"time"

	"croupier/domain/entities"
	"croupier/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockConsumedTransactionRepository is a mock implementation of ConsumedTransactionRepository
type MockConsumedTransactionRepository struct {
	mock.Mock
}

func (m *MockConsumedTransactionRepository) TryConsume(ctx context.Context, txHash, actorID string, amount int64, game entities.GameType) (bool, error) {
	args := m.Called(ctx, txHash, actorID, amount, game)
	return args.Bool(0), args.Error(1)
}

func (m *MockConsumedTransactionRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.ConsumedTransaction, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ConsumedTransaction), args.Error(1)
}

func (m *MockConsumedTransactionRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	args := m.Called(ctx, age)
	return args.Get(0).(int64), args.Error(1)
}

// MockJackpotRepository is a mock implementation of JackpotRepository
type MockJackpotRepository struct {
	mock.Mock
}

func (m *MockJackpotRepository) AddContribution(ctx context.Context, game entities.GameType, amount int64) (int64, error) {
	args := m.Called(ctx, game, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJackpotRepository) GetPool(ctx context.Context, game entities.GameType) (int64, error) {
	args := m.Called(ctx, game)
	return args.Get(0).(int64), args.Error(1)
}

// MockChainReader is a mock implementation of ChainReader
type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) GetBalance(ctx context.Context, address string) (int64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChainReader) GetRecentTransactions(ctx context.Context, address string, limit int) ([]*entities.ChainTransaction, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ChainTransaction), args.Error(1)
}

// MockWalletSender is a mock implementation of WalletSender
type MockWalletSender struct {
	mock.Mock
}

func (m *MockWalletSender) SendTransfer(ctx context.Context, toAddress string, amount int64, memo string) (string, error) {
	args := m.Called(ctx, toAddress, amount, memo)
	return args.String(0), args.Error(1)
}

// MockRateLimiter is a mock implementation of RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) CheckAndRecord(actorID, action string) *entities.RateDecision {
	args := m.Called(actorID, action)
	return args.Get(0).(*entities.RateDecision)
}

func (m *MockRateLimiter) RecordFailure(actorID, action string) {
	m.Called(actorID, action)
}

func (m *MockRateLimiter) Clear(actorID, action string) {
	m.Called(actorID, action)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockBankrollService is a mock implementation of BankrollService
type MockBankrollService struct {
	mock.Mock
}

func (m *MockBankrollService) Evaluate(ctx context.Context) (*entities.BankrollEvaluation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BankrollEvaluation), args.Error(1)
}

// MockWagerService is a mock implementation of WagerService
type MockWagerService struct {
	mock.Mock
}

func (m *MockWagerService) PlaceWager(ctx context.Context, actorID string, game entities.GameType, betAmount int64) (*entities.WagerReceipt, error) {
	args := m.Called(ctx, actorID, game, betAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WagerReceipt), args.Error(1)
}

// MockPaymentVerifier is a mock implementation of PaymentVerifier
type MockPaymentVerifier struct {
	mock.Mock
}

func (m *MockPaymentVerifier) Verify(ctx context.Context, pending *entities.PendingWager) (*entities.VerifiedPayment, error) {
	args := m.Called(ctx, pending)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VerifiedPayment), args.Error(1)
}

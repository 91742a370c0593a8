package interfaces

import (
	"context"

	"croupier/domain/entities"
)

// ChainReader reads the external on-chain ledger for a wallet. The ledger is
// append-only and outside our control; reads are polled, never pushed.
type ChainReader interface {
	// GetBalance returns the wallet balance in nanotons
	GetBalance(ctx context.Context, address string) (int64, error)

	// GetRecentTransactions returns the most recent entries of the wallet's
	// transaction history, newest first
	GetRecentTransactions(ctx context.Context, address string, limit int) ([]*entities.ChainTransaction, error)
}

// WalletSender signs and broadcasts an outbound transfer. Key management
// lives behind this interface; the engine only ever asks for a transfer.
type WalletSender interface {
	// SendTransfer sends amount nanotons to toAddress with the given memo
	// and returns a reference for the broadcast transfer
	SendTransfer(ctx context.Context, toAddress string, amount int64, memo string) (string, error)
}

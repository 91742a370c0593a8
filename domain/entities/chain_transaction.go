package entities

import "time"

// ChainTransaction is one entry from a wallet's on-chain transaction history
// as reported by the ledger reader.
type ChainTransaction struct {
	Hash          string
	Amount        int64 // nanotons
	Inbound       bool
	SenderAddress string
	Timestamp     time.Time
	Memo          string
}

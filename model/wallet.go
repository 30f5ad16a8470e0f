// model/wallet.go
package model

import "time"

type LedgerType string

const (
	LedgerTopup       LedgerType = "TOPUP"
	LedgerTransferIn  LedgerType = "TRANSFER_IN"
	LedgerTransferOut LedgerType = "TRANSFER_OUT"
)

// WalletLedger is one append-only entry in an account's money trail.
// Amount is signed: positive for credit, negative for debit.
type WalletLedger struct {
	ID           int64      `json:"id"`
	Account      Identity   `json:"account"`
	Counterparty Identity   `json:"counterparty,omitempty"`
	EntryType    LedgerType `json:"entry_type"`
	Amount       int64      `json:"amount"`
	BalanceAfter uint64     `json:"balance_after"`
	CreatedAt    time.Time  `json:"created_at"`
}

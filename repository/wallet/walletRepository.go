// repository/wallet/walletRepository.go
package walletrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
	"github.com/drstrox/Decentralised-Book-Rental-System/util/money"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Bank holds per-identity balances and an append-only ledger trail. It is
// the in-process payment provider behind the rental engine: a failed
// Transfer leaves both accounts untouched.
type Bank struct {
	mu       sync.RWMutex
	balances map[model.Identity]uint64
	rows     []model.WalletLedger
	nextRow  int64
}

func NewBank() *Bank {
	return &Bank{balances: make(map[model.Identity]uint64)}
}

// Credit adds funds to an account (wallet top-up), creating the account on
// first use. Returns the new balance.
func (b *Bank) Credit(account model.Identity, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	newBal, err := money.Add(b.balances[account], amount)
	if err != nil {
		return 0, ErrBalanceOverflow
	}
	b.balances[account] = newBal
	b.append(account, "", model.LedgerTopup, int64(amount), newBal)
	return newBal, nil
}

// Transfer moves amount from one account to another, atomically: the debit
// and credit commit together or not at all.
func (b *Bank) Transfer(ctx context.Context, from, to model.Identity, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	src := b.balances[from]
	if src < amount {
		return ErrInsufficientFunds
	}
	dst, err := money.Add(b.balances[to], amount)
	if err != nil {
		return ErrBalanceOverflow
	}

	b.balances[from] = src - amount
	b.balances[to] = dst
	b.append(from, to, model.LedgerTransferOut, -int64(amount), src-amount)
	b.append(to, from, model.LedgerTransferIn, int64(amount), dst)
	return nil
}

func (b *Bank) Balance(account model.Identity) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[account]
}

// Ledger returns an account's entries, newest first.
func (b *Bank) Ledger(account model.Identity) []model.WalletLedger {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []model.WalletLedger
	for i := len(b.rows) - 1; i >= 0; i-- {
		if b.rows[i].Account == account {
			out = append(out, b.rows[i])
		}
	}
	return out
}

func (b *Bank) append(account, counterparty model.Identity, typ model.LedgerType, amount int64, balanceAfter uint64) {
	b.nextRow++
	b.rows = append(b.rows, model.WalletLedger{
		ID:           b.nextRow,
		Account:      account,
		Counterparty: counterparty,
		EntryType:    typ,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now().UTC(),
	})
}

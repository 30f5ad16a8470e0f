package wallet

import (
	"context"
	"errors"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
)

var ErrInvalidAmount = errors.New("invalid amount")

type Service interface {
	// Topup credits an account directly and returns the new balance.
	Topup(ctx context.Context, account model.Identity, amount uint64) (uint64, error)
	Balance(ctx context.Context, account model.Identity) (uint64, error)
	Ledger(ctx context.Context, account model.Identity) ([]model.WalletLedger, error)
}

type Bank interface {
	Credit(account model.Identity, amount uint64) (uint64, error)
	Balance(account model.Identity) uint64
	Ledger(account model.Identity) []model.WalletLedger
}

type service struct{ b Bank }

func New(b Bank) Service { return &service{b: b} }

func (s *service) Topup(ctx context.Context, account model.Identity, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	return s.b.Credit(account, amount)
}

func (s *service) Balance(ctx context.Context, account model.Identity) (uint64, error) {
	return s.b.Balance(account), nil
}

func (s *service) Ledger(ctx context.Context, account model.Identity) ([]model.WalletLedger, error) {
	return s.b.Ledger(account), nil
}

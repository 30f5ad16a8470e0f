// service/catalog/catalogService.go
//
// Read-only projections over the ledger store. No side effects; each call
// observes one consistent snapshot.
package catalogsvc

import (
	"context"
	"errors"

	itemrepo "github.com/drstrox/Decentralised-Book-Rental-System/repository/item"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
)

type Store interface {
	Snapshot() []model.Item
	HeldItems(holder model.Identity) []model.Item
	Get(id uint64) (model.Item, error)
}

type Service interface {
	// ListAll returns every item, ascending by ID.
	ListAll(ctx context.Context) ([]model.Item, error)

	// HeldBy returns the items a holder currently rents. Order is not
	// guaranteed.
	HeldBy(ctx context.Context, holder model.Identity) ([]model.Item, error)

	// Detail returns one item, or nil when the ID is unknown.
	Detail(ctx context.Context, id uint64) (*model.Item, error)
}

type service struct{ s Store }

func New(s Store) Service { return &service{s: s} }

func (c *service) ListAll(ctx context.Context) ([]model.Item, error) {
	return c.s.Snapshot(), nil
}

func (c *service) HeldBy(ctx context.Context, holder model.Identity) ([]model.Item, error) {
	return c.s.HeldItems(holder), nil
}

func (c *service) Detail(ctx context.Context, id uint64) (*model.Item, error) {
	it, err := c.s.Get(id)
	if err != nil {
		if errors.Is(err, itemrepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

// repository/item/itemRepository.go
//
// Authoritative in-memory ledger store. Owns every Item record plus the
// holder index (identity -> held item IDs). All mutation flows through
// Update so the index bookkeeping always happens in the same critical
// section as the item mutation that caused it.
package itemrepo

import (
	"errors"
	"math"
	"sync"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
)

var (
	ErrNotFound        = errors.New("item not found")
	ErrCounterOverflow = errors.New("item id counter overflow")
)

type Store struct {
	mu     sync.RWMutex
	items  map[uint64]model.Item
	heldBy map[model.Identity][]uint64
	nextID uint64
}

func New() *Store {
	return &Store{
		items:  make(map[uint64]model.Item),
		heldBy: make(map[model.Identity][]uint64),
	}
}

// Insert assigns the next sequential ID, starting at 0. IDs are never
// reused; the counter overflowing is fatal and unreachable in practice.
func (s *Store) Insert(it model.Item) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextID == math.MaxUint64 {
		return 0, ErrCounterOverflow
	}
	id := s.nextID
	s.nextID++

	it.ID = id
	it.IsAvailable = it.Available()
	s.items[id] = it
	if it.Renter != model.NoRenter {
		s.index(it.Renter, id)
	}
	return id, nil
}

// Get returns a copy of the record; callers never alias store state.
func (s *Store) Get(id uint64) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return model.Item{}, ErrNotFound
	}
	return it, nil
}

// Update applies mutate to the stored record. If mutate errors, nothing is
// committed. The holder index is reconciled against any renter change
// before the lock is released: same transaction, by construction.
func (s *Store) Update(id uint64, mutate func(*model.Item) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	before := it.Renter

	if err := mutate(&it); err != nil {
		return err
	}
	it.ID = id // the ID is not a mutable field
	it.IsAvailable = it.Available()
	s.items[id] = it

	if before != it.Renter {
		if before != model.NoRenter {
			s.unindex(before, id)
		}
		if it.Renter != model.NoRenter {
			s.index(it.Renter, id)
		}
	}
	return nil
}

// AllIDs returns every item ID in ascending order. IDs are dense and
// sequential, so walking the counter is the natural order.
func (s *Store) AllIDs() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]uint64, 0, len(s.items))
	for id := uint64(0); id < s.nextID; id++ {
		if _, ok := s.items[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Snapshot returns copies of every item in ascending ID order under a
// single read lock, so readers observe a consistent state.
func (s *Store) Snapshot() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Item, 0, len(s.items))
	for id := uint64(0); id < s.nextID; id++ {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// HeldItems resolves the holder index to item copies in one consistent read.
func (s *Store) HeldItems(holder model.Identity) []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.heldBy[holder]
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// HeldIDs returns the raw index entry for a holder. Order is not a
// contract guarantee (removal is swap-remove).
func (s *Store) HeldIDs(holder model.Identity) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]uint64(nil), s.heldBy[holder]...)
}

func (s *Store) index(holder model.Identity, id uint64) {
	s.heldBy[holder] = append(s.heldBy[holder], id)
}

// unindex removes id from a holder's set with an unordered swap-remove:
// the found slot takes the last element, then the last slot is dropped.
func (s *Store) unindex(holder model.Identity, id uint64) {
	ids := s.heldBy[holder]
	for i, v := range ids {
		if v == id {
			last := len(ids) - 1
			ids[i] = ids[last]
			ids = ids[:last]
			break
		}
	}
	if len(ids) == 0 {
		delete(s.heldBy, holder)
		return
	}
	s.heldBy[holder] = ids
}

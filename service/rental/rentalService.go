// service/rental/rentalService.go
//
// The rental state machine. Items move available -> rented -> available;
// every mutating operation is all-or-nothing: money moves first, staged
// with compensation, and the item record only commits once every transfer
// has succeeded. Failures of any kind leave the ledger unchanged.
package rental

import (
	"context"
	"errors"
	"sync"
	"time"

	itemrepo "github.com/drstrox/Decentralised-Book-Rental-System/repository/item"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
	"github.com/drstrox/Decentralised-Book-Rental-System/util/money"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidAmount       ErrCode = "INVALID_AMOUNT"
	ErrNotFound            ErrCode = "NOT_FOUND"
	ErrNotAvailable        ErrCode = "NOT_AVAILABLE"
	ErrSelfRental          ErrCode = "SELF_RENTAL_FORBIDDEN"
	ErrInsufficientPayment ErrCode = "INSUFFICIENT_PAYMENT"
	ErrNotHolder           ErrCode = "NOT_HOLDER"
	ErrOverflow            ErrCode = "ARITHMETIC_OVERFLOW"
	ErrTransferFailed      ErrCode = "TRANSFER_FAILED"
	ErrReentrant           ErrCode = "REENTRANT"
)

type codedError struct {
	code  ErrCode
	cause error
}

func (e codedError) Error() string {
	if e.cause != nil {
		return string(e.code) + ": " + e.cause.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.cause }

func makeErr(c ErrCode) error              { return codedError{code: c} }
func wrapErr(c ErrCode, cause error) error { return codedError{code: c, cause: cause} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// collaborators

// Store is the slice of the ledger store the state machine mutates.
type Store interface {
	Insert(it model.Item) (uint64, error)
	Get(id uint64) (model.Item, error)
	Update(id uint64, mutate func(*model.Item) error) error
}

// PaymentProvider executes value transfers. A returned error means no
// money moved for that call; the engine aborts the whole operation.
type PaymentProvider interface {
	Transfer(ctx context.Context, from, to model.Identity, amount uint64) error
}

// Clock supplies the ledger's notion of now.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// EventSink receives ledger events, fire-and-forget.
type EventSink interface {
	Emit(ev model.Event)
}

type Service interface {
	// List creates a new available item. dailyPrice and deposit must be
	// positive.
	List(ctx context.Context, title string, dailyPrice, deposit uint64, owner model.Identity, metadataURI string) (uint64, error)

	// Rent hands the item to renter for at least one day. payment must
	// cover deposit + one day's price; the first day goes to the owner
	// immediately, the deposit stays in escrow, any excess is returned.
	Rent(ctx context.Context, id uint64, renter model.Identity, payment uint64) (*model.RentalReceipt, error)

	// Return settles the rental: prorated fees and late penalties are paid
	// to the owner out of the deposit, the remainder refunds to the renter,
	// and the item becomes available again.
	Return(ctx context.Context, id uint64, renter model.Identity) (*model.ReturnReceipt, error)
}

// ----- Service implementation -----

type service struct {
	mu     sync.Mutex
	store  Store
	pay    PaymentProvider
	clock  Clock
	sink   EventSink
	escrow model.Identity
}

func New(store Store, pay PaymentProvider, clock Clock, sink EventSink, escrow model.Identity) Service {
	return &service{store: store, pay: pay, clock: clock, sink: sink, escrow: escrow}
}

// Reentrancy guard. Mutating operations stamp the context they hand to the
// payment provider; a nested mutating call carrying the stamp is rejected
// instead of deadlocking on the serialization mutex.

type txMarkKey struct{}

func markTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txMarkKey{}, true)
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txMarkKey{}).(bool)
	return v
}

func (s *service) List(ctx context.Context, title string, dailyPrice, deposit uint64, owner model.Identity, metadataURI string) (uint64, error) {
	if inTx(ctx) {
		return 0, makeErr(ErrReentrant)
	}
	if dailyPrice == 0 || deposit == 0 {
		return 0, makeErr(ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.Insert(model.Item{
		Title:       title,
		DailyPrice:  dailyPrice,
		Deposit:     deposit,
		Owner:       owner,
		MetadataURI: metadataURI,
	})
	if err != nil {
		return 0, err
	}

	s.sink.Emit(model.Listed{
		ItemID:      id,
		Title:       title,
		DailyPrice:  dailyPrice,
		Deposit:     deposit,
		Owner:       owner,
		MetadataURI: metadataURI,
	})
	return id, nil
}

func (s *service) Rent(ctx context.Context, id uint64, renter model.Identity, payment uint64) (*model.RentalReceipt, error) {
	if inTx(ctx) {
		return nil, makeErr(ErrReentrant)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.store.Get(id)
	if err != nil {
		return nil, makeErr(ErrNotFound)
	}
	if !it.Available() {
		return nil, makeErr(ErrNotAvailable)
	}
	if renter == it.Owner {
		return nil, makeErr(ErrSelfRental)
	}

	required, err := money.Add(it.Deposit, it.DailyPrice)
	if err != nil {
		return nil, wrapErr(ErrOverflow, err)
	}
	if payment < required {
		return nil, makeErr(ErrInsufficientPayment)
	}
	change := payment - required

	now := s.clock.Now().Unix()
	due := now + money.DaySeconds

	// Stage the money first: the full payment lands in escrow, then the
	// first day forwards to the owner and any change goes back. The item
	// record does not move until all of it has succeeded.
	steps := []transfer{
		{from: renter, to: s.escrow, amount: payment},
		{from: s.escrow, to: it.Owner, amount: it.DailyPrice},
		{from: s.escrow, to: renter, amount: change},
	}
	if err := s.runTransfers(markTx(ctx), steps); err != nil {
		return nil, err
	}

	if err := s.store.Update(id, func(m *model.Item) error {
		m.Renter = renter
		m.RentedAt = now
		m.RentalDueAt = due
		return nil
	}); err != nil {
		// The item vanished mid-operation, which the mutex rules out.
		// Unwind the money anyway rather than strand it in escrow.
		s.reverse(markTx(ctx), steps)
		return nil, wrapErr(ErrTransferFailed, err)
	}

	s.sink.Emit(model.Rented{ItemID: id, Renter: renter, RentedAt: now, Deposit: it.Deposit})

	return &model.RentalReceipt{
		ItemID:      id,
		Renter:      renter,
		RentedAt:    now,
		RentalDueAt: due,
		PaidToOwner: it.DailyPrice,
		DepositHeld: it.Deposit,
		Change:      change,
	}, nil
}

func (s *service) Return(ctx context.Context, id uint64, renter model.Identity) (*model.ReturnReceipt, error) {
	if inTx(ctx) {
		return nil, makeErr(ErrReentrant)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.store.Get(id)
	if err != nil {
		return nil, makeErr(ErrNotFound)
	}
	if it.Available() {
		return nil, makeErr(ErrNotAvailable)
	}
	if it.Renter != renter {
		return nil, makeErr(ErrNotHolder)
	}

	now := s.clock.Now().Unix()

	// At least one day is always billed; that day was paid at rent time.
	rentalDays := money.Days(now - it.RentedAt)
	if rentalDays == 0 {
		rentalDays = 1
	}
	var lateDays uint64
	if now > it.RentalDueAt {
		lateDays = money.Days(now - it.RentalDueAt)
	}

	lateFee, err := money.Mul(it.DailyPrice, lateDays)
	if err != nil {
		return nil, wrapErr(ErrOverflow, err)
	}
	extra, err := money.Mul(it.DailyPrice, rentalDays-1)
	if err != nil {
		return nil, wrapErr(ErrOverflow, err)
	}
	owed, err := money.Add(extra, lateFee)
	if err != nil {
		return nil, wrapErr(ErrOverflow, err)
	}

	// The deposit caps what the owner can collect; the renter is never
	// chased beyond it.
	toOwner, refund := owed, uint64(0)
	if owed < it.Deposit {
		refund = it.Deposit - owed
	} else {
		toOwner = it.Deposit
	}

	steps := []transfer{
		{from: s.escrow, to: it.Owner, amount: toOwner},
		{from: s.escrow, to: renter, amount: refund},
	}
	if err := s.runTransfers(markTx(ctx), steps); err != nil {
		return nil, err
	}

	if err := s.store.Update(id, func(m *model.Item) error {
		m.Renter = model.NoRenter
		m.RentedAt = 0
		m.RentalDueAt = 0
		return nil
	}); err != nil {
		s.reverse(markTx(ctx), steps)
		return nil, wrapErr(ErrTransferFailed, err)
	}

	s.sink.Emit(model.Returned{ItemID: id, Renter: renter, ReturnedAt: now, Refund: refund, LateFee: lateFee})

	return &model.ReturnReceipt{
		ItemID:      id,
		Renter:      renter,
		ReturnedAt:  now,
		RentalDays:  rentalDays,
		LateDays:    lateDays,
		LateFee:     lateFee,
		OwnerPayout: toOwner,
		Refund:      refund,
	}, nil
}

// transfer staging

type transfer struct {
	from, to model.Identity
	amount   uint64
}

// runTransfers executes steps in order. On failure, completed steps are
// compensated in reverse before the coded error surfaces, so a mid-sequence
// provider failure cannot strand funds.
func (s *service) runTransfers(ctx context.Context, steps []transfer) error {
	var done []transfer
	for _, st := range steps {
		if st.amount == 0 {
			continue
		}
		if err := s.pay.Transfer(ctx, st.from, st.to, st.amount); err != nil {
			s.reverse(ctx, done)
			return wrapErr(ErrTransferFailed, err)
		}
		done = append(done, st)
	}
	return nil
}

func (s *service) reverse(ctx context.Context, done []transfer) {
	for i := len(done) - 1; i >= 0; i-- {
		d := done[i]
		if d.amount == 0 {
			continue
		}
		// Best effort: the funds just left this account, so the reversal
		// only fails if the provider itself is broken.
		_ = s.pay.Transfer(ctx, d.to, d.from, d.amount)
	}
}

var _ Store = (*itemrepo.Store)(nil)

package rental_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	eventsink "github.com/drstrox/Decentralised-Book-Rental-System/repository/events"
	itemrepo "github.com/drstrox/Decentralised-Book-Rental-System/repository/item"
	walletrepo "github.com/drstrox/Decentralised-Book-Rental-System/repository/wallet"
	rental "github.com/drstrox/Decentralised-Book-Rental-System/service/rental"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
	"github.com/drstrox/Decentralised-Book-Rental-System/util/money"

	"github.com/stretchr/testify/require"
)

const escrow = "ledger.escrow"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *fakeClock) advanceDays(n int64) {
	c.advance(time.Duration(n*money.DaySeconds) * time.Second)
}

type fixture struct {
	store *itemrepo.Store
	bank  *walletrepo.Bank
	clock *fakeClock
	sink  *eventsink.Recorder
	svc   rental.Service
}

func newFixture() *fixture {
	f := &fixture{
		store: itemrepo.New(),
		bank:  walletrepo.NewBank(),
		clock: &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()},
		sink:  eventsink.NewRecorder(),
	}
	f.svc = rental.New(f.store, f.bank, f.clock, f.sink, escrow)
	return f
}

// listDune lists the canonical test item: 100/day, 1000 deposit.
func (f *fixture) listDune(t *testing.T, owner string) uint64 {
	t.Helper()
	id, err := f.svc.List(context.Background(), "Dune", 100, 1000, owner, "ipfs://dune")
	require.NoError(t, err)
	return id
}

func TestList_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.List(ctx, "Dune", 0, 1000, "alice", "")
	require.Equal(t, rental.ErrInvalidAmount, rental.Code(err))

	_, err = f.svc.List(ctx, "Dune", 100, 0, "alice", "")
	require.Equal(t, rental.ErrInvalidAmount, rental.Code(err))

	require.Empty(t, f.store.AllIDs())
	require.Empty(t, f.sink.Events())
}

func TestList_FirstIDIsZero(t *testing.T) {
	f := newFixture()

	id := f.listDune(t, "alice")
	require.Equal(t, uint64(0), id)

	it, err := f.store.Get(id)
	require.NoError(t, err)
	require.True(t, it.IsAvailable)
	require.Equal(t, model.NoRenter, it.Renter)
	require.Equal(t, "alice", it.Owner)
	require.Equal(t, "ipfs://dune", it.MetadataURI)

	events := f.sink.Events()
	require.Len(t, events, 1)
	listed, ok := events[0].(model.Listed)
	require.True(t, ok)
	require.Equal(t, uint64(0), listed.ItemID)
	require.Equal(t, uint64(100), listed.DailyPrice)
	require.Equal(t, uint64(1000), listed.Deposit)
}

// Scenario A: rent pays the owner the first day immediately and holds the
// deposit in escrow.
func TestRent_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)

	receipt, err := f.svc.Rent(ctx, id, "bob", 1100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), receipt.PaidToOwner)
	require.Equal(t, uint64(1000), receipt.DepositHeld)
	require.Equal(t, uint64(0), receipt.Change)
	require.Equal(t, receipt.RentedAt+money.DaySeconds, receipt.RentalDueAt)

	require.Equal(t, uint64(0), f.bank.Balance("bob"))
	require.Equal(t, uint64(100), f.bank.Balance("alice"))
	require.Equal(t, uint64(1000), f.bank.Balance(escrow))

	it, _ := f.store.Get(id)
	require.False(t, it.IsAvailable)
	require.Equal(t, "bob", it.Renter)
	require.Equal(t, []uint64{id}, f.store.HeldIDs("bob"))
	require.Empty(t, f.store.HeldIDs("alice"))
}

func TestRent_OverpaymentRefundedImmediately(t *testing.T) {
	f := newFixture()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1500)

	receipt, err := f.svc.Rent(context.Background(), id, "bob", 1500)
	require.NoError(t, err)
	require.Equal(t, uint64(400), receipt.Change)
	require.Equal(t, uint64(400), f.bank.Balance("bob"))
	require.Equal(t, uint64(100), f.bank.Balance("alice"))
	require.Equal(t, uint64(1000), f.bank.Balance(escrow))
}

// Scenario B: an underfunded rent changes nothing.
func TestRent_InsufficientPayment(t *testing.T) {
	f := newFixture()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1050)
	before, _ := f.store.Get(id)

	_, err := f.svc.Rent(context.Background(), id, "bob", 1050)
	require.Equal(t, rental.ErrInsufficientPayment, rental.Code(err))

	after, _ := f.store.Get(id)
	require.Equal(t, before, after)
	require.Empty(t, f.store.HeldIDs("bob"))
	require.Equal(t, uint64(1050), f.bank.Balance("bob"))
	require.Equal(t, uint64(0), f.bank.Balance(escrow))
}

func TestRent_UnknownItem(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Rent(context.Background(), 99, "bob", 1100)
	require.Equal(t, rental.ErrNotFound, rental.Code(err))
}

func TestRent_AlreadyRented(t *testing.T) {
	f := newFixture()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)
	_, _ = f.bank.Credit("carol", 1100)

	_, err := f.svc.Rent(context.Background(), id, "bob", 1100)
	require.NoError(t, err)

	_, err = f.svc.Rent(context.Background(), id, "carol", 1100)
	require.Equal(t, rental.ErrNotAvailable, rental.Code(err))
	require.Equal(t, uint64(1100), f.bank.Balance("carol"))
}

// Scenario F: owners cannot rent their own listings.
func TestRent_SelfRentalForbidden(t *testing.T) {
	f := newFixture()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("alice", 5000)

	_, err := f.svc.Rent(context.Background(), id, "alice", 1100)
	require.Equal(t, rental.ErrSelfRental, rental.Code(err))
	require.Equal(t, uint64(5000), f.bank.Balance("alice"))
}

func TestRent_RequiredAmountOverflow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, err := f.svc.List(ctx, "gold bar", 1, math.MaxUint64, "alice", "")
	require.NoError(t, err)

	_, err = f.svc.Rent(ctx, id, "bob", math.MaxUint64)
	require.Equal(t, rental.ErrOverflow, rental.Code(err))

	it, _ := f.store.Get(id)
	require.True(t, it.IsAvailable)
}

// Scenario C: on-time return after exactly one day refunds the whole
// deposit; the first day was already paid at rent time.
func TestReturn_OnTime(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)
	_, err := f.svc.Rent(ctx, id, "bob", 1100)
	require.NoError(t, err)

	f.clock.advanceDays(1)

	receipt, err := f.svc.Return(ctx, id, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.RentalDays)
	require.Equal(t, uint64(0), receipt.LateDays)
	require.Equal(t, uint64(0), receipt.LateFee)
	require.Equal(t, uint64(0), receipt.OwnerPayout)
	require.Equal(t, uint64(1000), receipt.Refund)

	require.Equal(t, uint64(1000), f.bank.Balance("bob"))
	require.Equal(t, uint64(100), f.bank.Balance("alice"))
	require.Equal(t, uint64(0), f.bank.Balance(escrow))

	it, _ := f.store.Get(id)
	require.True(t, it.IsAvailable)
	require.Equal(t, model.NoRenter, it.Renter)
	require.Zero(t, it.RentedAt)
	require.Zero(t, it.RentalDueAt)
	require.Empty(t, f.store.HeldIDs("bob"))
}

// An immediate return still bills the one-day minimum, which rent already
// collected, so the deposit comes back whole.
func TestReturn_SameInstant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)
	_, _ = f.svc.Rent(ctx, id, "bob", 1100)

	receipt, err := f.svc.Return(ctx, id, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.RentalDays)
	require.Equal(t, uint64(1000), receipt.Refund)
}

// Scenario D: three days out, due after one: two extra days plus two late
// days come out of the deposit.
func TestReturn_Late(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)
	_, _ = f.svc.Rent(ctx, id, "bob", 1100)

	f.clock.advanceDays(3)

	receipt, err := f.svc.Return(ctx, id, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(3), receipt.RentalDays)
	require.Equal(t, uint64(2), receipt.LateDays)
	require.Equal(t, uint64(200), receipt.LateFee)
	require.Equal(t, uint64(400), receipt.OwnerPayout)
	require.Equal(t, uint64(600), receipt.Refund)

	require.Equal(t, uint64(600), f.bank.Balance("bob"))
	require.Equal(t, uint64(500), f.bank.Balance("alice"))
	require.Equal(t, uint64(0), f.bank.Balance(escrow))
}

// Scenario E: the deposit caps the owner's collection; the renter owes
// nothing beyond it.
func TestReturn_OwedExceedsDeposit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)
	_, _ = f.svc.Rent(ctx, id, "bob", 1100)

	// 7 days: 600 extra + 600 late = 1200 owed > 1000 deposit
	f.clock.advanceDays(7)

	receipt, err := f.svc.Return(ctx, id, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(1200), receipt.LateFee+100*(receipt.RentalDays-1))
	require.Equal(t, uint64(1000), receipt.OwnerPayout)
	require.Equal(t, uint64(0), receipt.Refund)

	require.Equal(t, uint64(0), f.bank.Balance("bob"))
	require.Equal(t, uint64(1100), f.bank.Balance("alice"))
	require.Equal(t, uint64(0), f.bank.Balance(escrow))
}

func TestReturn_NotHolder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)
	_, _ = f.svc.Rent(ctx, id, "bob", 1100)

	_, err := f.svc.Return(ctx, id, "carol")
	require.Equal(t, rental.ErrNotHolder, rental.Code(err))

	it, _ := f.store.Get(id)
	require.Equal(t, "bob", it.Renter)
}

func TestReturn_NotRented(t *testing.T) {
	f := newFixture()
	id := f.listDune(t, "alice")

	_, err := f.svc.Return(context.Background(), id, "bob")
	require.Equal(t, rental.ErrNotAvailable, rental.Code(err))
}

func TestReturn_FeeOverflowAbortsCleanly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	price := uint64(1) << 62
	id, err := f.svc.List(ctx, "vault", price, 10, "alice", "")
	require.NoError(t, err)

	_, _ = f.bank.Credit("bob", price+10)
	_, err = f.svc.Rent(ctx, id, "bob", price+10)
	require.NoError(t, err)
	bobAfterRent := f.bank.Balance("bob")

	f.clock.advanceDays(5)

	_, err = f.svc.Return(ctx, id, "bob")
	require.Equal(t, rental.ErrOverflow, rental.Code(err))

	it, _ := f.store.Get(id)
	require.Equal(t, "bob", it.Renter)
	require.Equal(t, bobAfterRent, f.bank.Balance("bob"))
	require.Equal(t, uint64(10), f.bank.Balance(escrow))
}

// Items cycle available -> rented -> available indefinitely; IDs are never
// reused.
func TestRoundTrip_RentReturnRent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)
	_, _ = f.bank.Credit("carol", 1100)

	_, err := f.svc.Rent(ctx, id, "bob", 1100)
	require.NoError(t, err)
	f.clock.advanceDays(1)
	_, err = f.svc.Return(ctx, id, "bob")
	require.NoError(t, err)

	_, err = f.svc.Rent(ctx, id, "carol", 1100)
	require.NoError(t, err)
	require.Equal(t, []uint64{id}, f.store.HeldIDs("carol"))
	require.Empty(t, f.store.HeldIDs("bob"))

	next := f.listDune(t, "alice")
	require.Equal(t, uint64(1), next)
}

func TestEvents_EmittedPerOperation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 1100)
	_, _ = f.svc.Rent(ctx, id, "bob", 1100)
	f.clock.advanceDays(3)
	_, err := f.svc.Return(ctx, id, "bob")
	require.NoError(t, err)

	events := f.sink.Events()
	require.Len(t, events, 3)
	require.Equal(t, "LISTED", events[0].Kind())
	require.Equal(t, "RENTED", events[1].Kind())
	require.Equal(t, "RETURNED", events[2].Kind())

	returned := events[2].(model.Returned)
	require.Equal(t, uint64(600), returned.Refund)
	require.Equal(t, uint64(200), returned.LateFee)
	require.Equal(t, "bob", returned.Renter)
}

// flakyProvider delegates to the bank but fails the nth Transfer call.
type flakyProvider struct {
	bank   *walletrepo.Bank
	failOn int
	calls  int
}

func (p *flakyProvider) Transfer(ctx context.Context, from, to model.Identity, amount uint64) error {
	p.calls++
	if p.calls == p.failOn {
		return errors.New("provider down")
	}
	return p.bank.Transfer(ctx, from, to, amount)
}

func TestRent_TransferFailureRollsBack(t *testing.T) {
	for _, failOn := range []int{1, 2} {
		store := itemrepo.New()
		bank := walletrepo.NewBank()
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
		provider := &flakyProvider{bank: bank, failOn: failOn}
		svc := rental.New(store, provider, clock, eventsink.NewRecorder(), escrow)
		ctx := context.Background()

		id, err := svc.List(ctx, "Dune", 100, 1000, "alice", "")
		require.NoError(t, err)
		_, _ = bank.Credit("bob", 1100)

		_, err = svc.Rent(ctx, id, "bob", 1100)
		require.Equal(t, rental.ErrTransferFailed, rental.Code(err), "failOn=%d", failOn)

		it, _ := store.Get(id)
		require.True(t, it.IsAvailable, "failOn=%d", failOn)
		require.Empty(t, store.HeldIDs("bob"))
		require.Equal(t, uint64(1100), bank.Balance("bob"), "failOn=%d", failOn)
		require.Equal(t, uint64(0), bank.Balance(escrow), "failOn=%d", failOn)
		require.Equal(t, uint64(0), bank.Balance("alice"), "failOn=%d", failOn)
	}
}

func TestReturn_TransferFailureRollsBack(t *testing.T) {
	store := itemrepo.New()
	bank := walletrepo.NewBank()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	provider := &flakyProvider{bank: bank, failOn: 3}
	svc := rental.New(store, provider, clock, eventsink.NewRecorder(), escrow)
	ctx := context.Background()

	id, err := svc.List(ctx, "Dune", 100, 1000, "alice", "")
	require.NoError(t, err)
	_, _ = bank.Credit("bob", 1100)
	_, err = svc.Rent(ctx, id, "bob", 1100)
	require.NoError(t, err)

	clock.advanceDays(1)

	// on-time return: the owner payout is zero, so call 3 is the refund
	_, err = svc.Return(ctx, id, "bob")
	require.Equal(t, rental.ErrTransferFailed, rental.Code(err))

	it, _ := store.Get(id)
	require.Equal(t, "bob", it.Renter)
	require.Equal(t, []uint64{id}, store.HeldIDs("bob"))
	require.Equal(t, uint64(1000), bank.Balance(escrow))
	require.Equal(t, uint64(0), bank.Balance("bob"))
}

// reentrantProvider attacks the ledger from inside a transfer: a nested
// mutating call must be rejected, the outer operation must still commit.
type reentrantProvider struct {
	bank      *walletrepo.Bank
	svc       rental.Service
	targetID  uint64
	attempted bool
	nestedErr error
}

func (p *reentrantProvider) Transfer(ctx context.Context, from, to model.Identity, amount uint64) error {
	if !p.attempted {
		p.attempted = true
		_, p.nestedErr = p.svc.Rent(ctx, p.targetID, "mallory", 1100)
	}
	return p.bank.Transfer(ctx, from, to, amount)
}

func TestRent_ReentrantCallRejected(t *testing.T) {
	store := itemrepo.New()
	bank := walletrepo.NewBank()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	provider := &reentrantProvider{bank: bank}
	svc := rental.New(store, provider, clock, eventsink.NewRecorder(), escrow)
	provider.svc = svc
	ctx := context.Background()

	id, err := svc.List(ctx, "Dune", 100, 1000, "alice", "")
	require.NoError(t, err)
	provider.targetID = id
	_, _ = bank.Credit("bob", 1100)
	_, _ = bank.Credit("mallory", 1100)

	_, err = svc.Rent(ctx, id, "bob", 1100)
	require.NoError(t, err)

	require.True(t, provider.attempted)
	require.Equal(t, rental.ErrReentrant, rental.Code(provider.nestedErr))

	it, _ := store.Get(id)
	require.Equal(t, "bob", it.Renter)
	require.Equal(t, uint64(1100), bank.Balance("mallory"))
}

// The availability flag always mirrors the renter field.
func TestInvariant_AvailabilityMirrorsRenter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.listDune(t, "alice")
	_, _ = f.bank.Credit("bob", 2500)

	check := func() {
		t.Helper()
		for _, it := range f.store.Snapshot() {
			require.Equal(t, it.Renter == model.NoRenter, it.IsAvailable)
		}
	}

	check()
	_, _ = f.svc.Rent(ctx, id, "bob", 1100)
	check()
	f.clock.advanceDays(2)
	_, err := f.svc.Return(ctx, id, "bob")
	require.NoError(t, err)
	check()
}

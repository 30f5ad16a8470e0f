// model/item.go
package model

// Identity is an opaque account name. The ledger never interprets it.
type Identity = string

// NoRenter marks an item with no current holder.
const NoRenter Identity = ""

// Item is the rentable unit. Monetary amounts are integers in the smallest
// unit; timestamps are unix seconds. DailyPrice, Deposit and Owner are fixed
// at listing time.
type Item struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	DailyPrice  uint64   `json:"daily_price"`
	Deposit     uint64   `json:"deposit"`
	Owner       Identity `json:"owner"`
	Renter      Identity `json:"renter,omitempty"`
	RentedAt    int64    `json:"rented_at,omitempty"`
	RentalDueAt int64    `json:"rental_due_at,omitempty"`
	IsAvailable bool     `json:"is_available"`
	MetadataURI string   `json:"metadata_uri,omitempty"`
}

// Available reports whether the item has no holder. IsAvailable is kept in
// sync with this by the store; Available is the source of truth.
func (i *Item) Available() bool { return i.Renter == NoRenter }

// RentalReceipt summarizes a successful rent.
type RentalReceipt struct {
	ItemID      uint64   `json:"item_id"`
	Renter      Identity `json:"renter"`
	RentedAt    int64    `json:"rented_at"`
	RentalDueAt int64    `json:"rental_due_at"`
	PaidToOwner uint64   `json:"paid_to_owner"`
	DepositHeld uint64   `json:"deposit_held"`
	Change      uint64   `json:"change"`
}

// ReturnReceipt summarizes a successful return.
type ReturnReceipt struct {
	ItemID      uint64   `json:"item_id"`
	Renter      Identity `json:"renter"`
	ReturnedAt  int64    `json:"returned_at"`
	RentalDays  uint64   `json:"rental_days"`
	LateDays    uint64   `json:"late_days"`
	LateFee     uint64   `json:"late_fee"`
	OwnerPayout uint64   `json:"owner_payout"`
	Refund      uint64   `json:"refund"`
}

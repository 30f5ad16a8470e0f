// model/event.go
package model

// Event is a ledger notification consumed by external indexers. Emission is
// fire-and-forget; the ledger never waits on a sink.
type Event interface {
	Kind() string
}

type Listed struct {
	ItemID      uint64   `json:"item_id"`
	Title       string   `json:"title"`
	DailyPrice  uint64   `json:"daily_price"`
	Deposit     uint64   `json:"deposit"`
	Owner       Identity `json:"owner"`
	MetadataURI string   `json:"metadata_uri,omitempty"`
}

type Rented struct {
	ItemID   uint64   `json:"item_id"`
	Renter   Identity `json:"renter"`
	RentedAt int64    `json:"rented_at"`
	Deposit  uint64   `json:"deposit"`
}

type Returned struct {
	ItemID     uint64   `json:"item_id"`
	Renter     Identity `json:"renter"`
	ReturnedAt int64    `json:"returned_at"`
	Refund     uint64   `json:"refund"`
	LateFee    uint64   `json:"late_fee"`
}

func (Listed) Kind() string   { return "LISTED" }
func (Rented) Kind() string   { return "RENTED" }
func (Returned) Kind() string { return "RETURNED" }

package rental

type RentReq struct {
	Payment uint64 `json:"payment" validate:"required,gt=0"`
}

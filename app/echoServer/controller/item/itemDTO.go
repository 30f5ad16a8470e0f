package item

type ListItemReq struct {
	Title       string `json:"title" validate:"required"`
	DailyPrice  uint64 `json:"daily_price" validate:"required,gt=0"`
	Deposit     uint64 `json:"deposit" validate:"required,gt=0"`
	MetadataURI string `json:"metadata_uri" validate:"omitempty,max=2048"`
}

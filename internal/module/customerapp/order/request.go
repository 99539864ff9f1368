package order

type PlaceOrderRequest struct {
	EventID  string `json:"event_id" validate:"required"`
	TierID   string `json:"tier_id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,gt=0,lte=10"`
}

type GetManyOrderRequest struct {
	Page int64 `json:"page" validate:"required,gt=0"`
	Size int64 `json:"size" validate:"required,gt=0,lte=50"`
}

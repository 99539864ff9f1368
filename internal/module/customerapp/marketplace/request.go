package marketplace

import "time"

type CreateListingRequest struct {
	TicketID    string     `json:"ticket_id" validate:"required"`
	AskingPrice float64    `json:"asking_price" validate:"required,gt=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type PurchaseRequest struct {
	ListingID    string   `json:"listing_id" validate:"required"`
	OfferedPrice *float64 `json:"offered_price" validate:"omitempty,gt=0"`
}

type GetManyListingRequest struct {
	EventID string `json:"event_id"`
	Status  string `json:"status" validate:"omitempty,oneof=ACTIVE SOLD CANCELLED EXPIRED"`
	Page    int64  `json:"page" validate:"required,gt=0"`
	Size    int64  `json:"size" validate:"required,gt=0,lte=50"`
}

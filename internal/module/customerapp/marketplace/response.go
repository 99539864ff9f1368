package marketplace

import "time"

type GetManyListingResponse []ListingResponse

type ListingResponse struct {
	ID          string     `json:"id"`
	SellerID    int64      `json:"seller_id"`
	BuyerID     *int64     `json:"buyer_id"`
	TicketID    string     `json:"ticket_id"`
	EventID     string     `json:"event_id"`
	AskingPrice float64    `json:"asking_price"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	FinalPrice  *float64   `json:"final_price"`
	ExpiresAt   *time.Time `json:"expires_at"`
	SoldAt      *time.Time `json:"sold_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (r *ListingResponse) PopulateFromEntity(l Listing) {
	r.ID = l.ID
	r.SellerID = l.SellerID
	r.BuyerID = l.BuyerID
	r.TicketID = l.TicketID
	r.EventID = l.EventID
	r.AskingPrice = l.AskingPrice
	r.Currency = l.Currency
	r.Status = l.Status
	r.FinalPrice = l.FinalPrice
	r.ExpiresAt = l.ExpiresAt
	r.SoldAt = l.SoldAt
	r.CreatedAt = l.CreatedAt
	r.UpdatedAt = l.UpdatedAt
}

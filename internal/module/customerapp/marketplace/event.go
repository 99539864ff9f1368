package marketplace

type ListingCreatedEvent struct {
	ListingID   string  `json:"listing_id"`
	TicketID    string  `json:"ticket_id"`
	EventID     string  `json:"event_id"`
	SellerID    int64   `json:"seller_id"`
	AskingPrice float64 `json:"asking_price"`
}

type ListingSoldEvent struct {
	ListingID  string  `json:"listing_id"`
	TicketID   string  `json:"ticket_id"`
	EventID    string  `json:"event_id"`
	SellerID   int64   `json:"seller_id"`
	BuyerID    int64   `json:"buyer_id"`
	FinalPrice float64 `json:"final_price"`
}

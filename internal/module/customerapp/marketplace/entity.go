package marketplace

import "time"

const (
	ListingStatusActive    = "ACTIVE"
	ListingStatusSold      = "SOLD"
	ListingStatusCancelled = "CANCELLED"
	ListingStatusExpired   = "EXPIRED"
)

// Listing is a resale offer for a single ticket. ACTIVE is the only
// non-terminal status; settlement flips it to SOLD with one conditional
// update so two buyers can never both win.
type Listing struct {
	ID          string
	SellerID    int64
	BuyerID     *int64
	TicketID    string
	EventID     string
	AskingPrice float64
	Currency    string
	Status      string
	FinalPrice  *float64
	ExpiresAt   *time.Time
	SoldAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListingStats is the aggregate consumed by reporting.
type ListingStats struct {
	TotalListings int64
	SoldListings  int64
	Volume        float64
}

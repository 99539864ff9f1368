package inventory

import "time"

const (
	ReservationStatusHeld      = "HELD"
	ReservationStatusReleased  = "RELEASED"
	ReservationStatusCommitted = "COMMITTED"
)

// Tier is a named class of admission with its own price and capacity.
type Tier struct {
	ID        string
	EventID   string
	Name      string
	Price     float64
	Currency  string
	Capacity  int64
	Sold      int64
	SaleStart time.Time
	SaleEnd   time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Tier) Remaining() int64 {
	return t.Capacity - t.Sold
}

// IsOnSale reports whether the tier can be ordered at the given moment.
func (t Tier) IsOnSale(now time.Time) bool {
	if !t.Active {
		return false
	}

	return !now.Before(t.SaleStart) && !now.After(t.SaleEnd)
}

// Reservation is a durable claim on tier inventory, created at order time
// and released on payment failure or committed on payment success.
type Reservation struct {
	ID        string
	TierID    string
	OrderID   string
	Quantity  int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

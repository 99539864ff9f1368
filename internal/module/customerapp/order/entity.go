package order

import "time"

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// Order is one checkout attempt. PENDING is the only non-terminal status;
// COMPLETED may still move to REFUNDED, everything else is absorbing.
type Order struct {
	ID                      string
	CustomerID              int64
	CustomerName            string
	CustomerEmail           string
	EventID                 string
	TierID                  string
	TierName                string
	Quantity                int64
	UnitPrice               float64
	Currency                string
	ServiceChargePercentage float64
	ServiceCharge           float64
	Subtotal                float64
	TotalAmount             float64
	Status                  string
	PaymentIntentID         *string
	ReservationID           string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

package order

type OrderCompletedEvent struct {
	OrderID     string  `json:"order_id"`
	EventID     string  `json:"event_id"`
	CustomerID  int64   `json:"customer_id"`
	Quantity    int64   `json:"quantity"`
	TotalAmount float64 `json:"total_amount"`
}

type OrderRefundedEvent struct {
	OrderID     string  `json:"order_id"`
	EventID     string  `json:"event_id"`
	CustomerID  int64   `json:"customer_id"`
	TotalAmount float64 `json:"total_amount"`
}

// ExpireOrderEvent is the deferred task payload that sweeps an unpaid
// order back to CANCELLED.
type ExpireOrderEvent struct {
	ID string `json:"id"`
}

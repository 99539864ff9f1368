package reporting

// RevenueReport aggregates completed orders for one event.
type RevenueReport struct {
	EventID    string
	OrderCount int64
	Revenue    float64
}

// TierInventoryReport is the remaining capacity per tier.
type TierInventoryReport struct {
	TierID    string
	TierName  string
	Capacity  int64
	Sold      int64
	Remaining int64
}

// TicketStatusReport counts tickets per status for one event.
type TicketStatusReport struct {
	Status string
	Count  int64
}

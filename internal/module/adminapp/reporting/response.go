package reporting

import (
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/marketplace"
)

type EventReportResponse struct {
	EventID string                `json:"event_id"`
	Revenue RevenueResponse       `json:"revenue"`
	Tiers   []TierResponse        `json:"tiers"`
	Tickets []TicketCountResponse `json:"tickets"`
	Resale  ResaleResponse        `json:"resale"`
}

type RevenueResponse struct {
	OrderCount int64   `json:"order_count"`
	Total      float64 `json:"total"`
}

type TierResponse struct {
	TierID    string `json:"tier_id"`
	TierName  string `json:"tier_name"`
	Capacity  int64  `json:"capacity"`
	Sold      int64  `json:"sold"`
	Remaining int64  `json:"remaining"`
}

type TicketCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type ResaleResponse struct {
	TotalListings int64   `json:"total_listings"`
	SoldListings  int64   `json:"sold_listings"`
	Volume        float64 `json:"volume"`
}

func (r *EventReportResponse) Populate(revenue RevenueReport, tiers []TierInventoryReport, tickets []TicketStatusReport, resale marketplace.ListingStats) {
	r.EventID = revenue.EventID
	r.Revenue = RevenueResponse{
		OrderCount: revenue.OrderCount,
		Total:      revenue.Revenue,
	}

	r.Tiers = make([]TierResponse, len(tiers))
	for k, tier := range tiers {
		r.Tiers[k] = TierResponse{
			TierID:    tier.TierID,
			TierName:  tier.TierName,
			Capacity:  tier.Capacity,
			Sold:      tier.Sold,
			Remaining: tier.Remaining,
		}
	}

	r.Tickets = make([]TicketCountResponse, len(tickets))
	for k, ticket := range tickets {
		r.Tickets[k] = TicketCountResponse{
			Status: ticket.Status,
			Count:  ticket.Count,
		}
	}

	r.Resale = ResaleResponse{
		TotalListings: resale.TotalListings,
		SoldListings:  resale.SoldListings,
		Volume:        resale.Volume,
	}
}

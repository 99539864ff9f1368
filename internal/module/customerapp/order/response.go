package order

import "time"

type GetManyOrderResponse []OrderResponse

type OrderResponse struct {
	ID                      string    `json:"id"`
	CustomerID              int64     `json:"customer_id"`
	CustomerName            string    `json:"customer_name"`
	CustomerEmail           string    `json:"customer_email"`
	EventID                 string    `json:"event_id"`
	TierID                  string    `json:"tier_id"`
	TierName                string    `json:"tier_name"`
	Quantity                int64     `json:"quantity"`
	UnitPrice               float64   `json:"unit_price"`
	Currency                string    `json:"currency"`
	ServiceChargePercentage float64   `json:"service_charge_percentage"`
	ServiceCharge           float64   `json:"service_charge"`
	Subtotal                float64   `json:"subtotal"`
	TotalAmount             float64   `json:"total_amount"`
	Status                  string    `json:"status"`
	PaymentIntentID         *string   `json:"payment_intent_id"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (r *OrderResponse) PopulateFromEntity(o Order) {
	r.ID = o.ID
	r.CustomerID = o.CustomerID
	r.CustomerName = o.CustomerName
	r.CustomerEmail = o.CustomerEmail
	r.EventID = o.EventID
	r.TierID = o.TierID
	r.TierName = o.TierName
	r.Quantity = o.Quantity
	r.UnitPrice = o.UnitPrice
	r.Currency = o.Currency
	r.ServiceChargePercentage = o.ServiceChargePercentage
	r.ServiceCharge = o.ServiceCharge
	r.Subtotal = o.Subtotal
	r.TotalAmount = o.TotalAmount
	r.Status = o.Status
	r.PaymentIntentID = o.PaymentIntentID
	r.CreatedAt = o.CreatedAt
	r.UpdatedAt = o.UpdatedAt
}

type PlaceOrderResponse struct {
	OrderResponse
	ClientSecret string `json:"client_secret"`
}

package ticket

import "time"

type GetManyTicketResponse []TicketResponse

type TicketResponse struct {
	ID                  string     `json:"id"`
	Number              string     `json:"number"`
	VerificationPayload string     `json:"verification_payload"`
	OrderID             string     `json:"order_id"`
	HolderID            int64      `json:"holder_id"`
	EventID             string     `json:"event_id"`
	Tier                string     `json:"tier"`
	Price               float64    `json:"price"`
	ServiceFee          float64    `json:"service_fee"`
	Currency            string     `json:"currency"`
	Status              string     `json:"status"`
	AttendeeName        *string    `json:"attendee_name"`
	AttendeeEmail       *string    `json:"attendee_email"`
	CheckInAt           *time.Time `json:"check_in_at"`
	TransferredTo       *string    `json:"transferred_to"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (r *TicketResponse) PopulateFromEntity(t Ticket) {
	r.ID = t.ID
	r.Number = t.Number
	r.VerificationPayload = t.VerificationPayload
	r.OrderID = t.OrderID
	r.HolderID = t.HolderID
	r.EventID = t.EventID
	r.Tier = t.Tier
	r.Price = t.Price
	r.ServiceFee = t.ServiceFee
	r.Currency = t.Currency
	r.Status = t.Status
	r.AttendeeName = t.AttendeeName
	r.AttendeeEmail = t.AttendeeEmail
	r.CheckInAt = t.CheckInAt
	r.TransferredTo = t.TransferredTo
	r.CreatedAt = t.CreatedAt
	r.UpdatedAt = t.UpdatedAt
}

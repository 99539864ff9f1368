package ticket

// TicketIssuedEvent is published once per issued batch.
type TicketIssuedEvent struct {
	OrderID       string   `json:"order_id"`
	EventID       string   `json:"event_id"`
	HolderID      int64    `json:"holder_id"`
	TicketIDs     []string `json:"ticket_ids"`
	TicketNumbers []string `json:"ticket_numbers"`
}

type TicketCancelledEvent struct {
	TicketID string `json:"ticket_id"`
	Number   string `json:"number"`
	EventID  string `json:"event_id"`
}

type TicketTransferredEvent struct {
	TicketID       string `json:"ticket_id"`
	Number         string `json:"number"`
	EventID        string `json:"event_id"`
	RecipientEmail string `json:"recipient_email"`
}

package ticket

type CheckInRequest struct {
	TicketNumber string `json:"ticket_number" validate:"required"`
}

type TransferRequest struct {
	TicketID       string `json:"ticket_id" validate:"required"`
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
}

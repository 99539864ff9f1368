package ticket

import "time"

const (
	StatusActive      = "ACTIVE"
	StatusUsed        = "USED"
	StatusCancelled   = "CANCELLED"
	StatusRefunded    = "REFUNDED"
	StatusTransferred = "TRANSFERRED"
)

// Ticket is one admission right. It is minted exactly once by the issuer
// and never deleted; terminal statuses are absorbing.
type Ticket struct {
	ID                  string
	Number              string
	VerificationPayload string
	OrderID             string
	HolderID            int64
	EventID             string
	Tier                string
	Price               float64
	ServiceFee          float64
	Currency            string
	Status              string
	AttendeeName        *string
	AttendeeEmail       *string
	CheckInAt           *time.Time
	TransferredTo       *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

package stripe

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

type CreateIntentRequest struct {
	AmountMinorUnits int64
	Currency         string
	CustomerEmail    string
	Metadata         map[string]string
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// WebhookEvent is the gateway's callback reduced to the parts the
// fulfillment pipeline acts on. Kinds other than the two payment outcomes
// are acknowledged and ignored.
type WebhookEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	IntentID string `json:"-"`
}

type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

package ticket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// VerificationClaims is the content of a ticket's verification payload.
// The signature binds the claims to the issuer's signing secret; a
// rendered ticket alone is not enough to forge one.
type VerificationClaims struct {
	TicketNumber string `json:"ticket_number"`
	EventID      string `json:"event_id"`
	HolderID     int64  `json:"holder_id"`
	IssuedAt     int64  `json:"issued_at"`
	Signature    string `json:"signature"`
}

func sign(secret, ticketNumber, eventID string, holderID int64, issuedAt int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s|%d|%d", ticketNumber, eventID, holderID, issuedAt)

	return hex.EncodeToString(mac.Sum(nil))
}

// BuildVerificationPayload derives the opaque payload embedded in a
// ticket. It is deterministic for a given ticket and issuance time.
func BuildVerificationPayload(secret, ticketNumber, eventID string, holderID int64, issuedAt time.Time) string {
	claims := VerificationClaims{
		TicketNumber: ticketNumber,
		EventID:      eventID,
		HolderID:     holderID,
		IssuedAt:     issuedAt.Unix(),
		Signature:    sign(secret, ticketNumber, eventID, holderID, issuedAt.Unix()),
	}

	raw, _ := json.Marshal(claims)

	return base64.StdEncoding.EncodeToString(raw)
}

// VerifyVerificationPayload decodes a payload and checks its signature.
func VerifyVerificationPayload(secret, payload string) (VerificationClaims, bool) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return VerificationClaims{}, false
	}

	var claims VerificationClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return VerificationClaims{}, false
	}

	expected := sign(secret, claims.TicketNumber, claims.EventID, claims.HolderID, claims.IssuedAt)
	if !hmac.Equal([]byte(expected), []byte(claims.Signature)) {
		return VerificationClaims{}, false
	}

	return claims, true
}

package ticket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationPayloadRoundTrip(t *testing.T) {
	issuedAt := time.Now()
	payload := BuildVerificationPayload("secret", "TKT-ABC-12345", "event-001", 42, issuedAt)

	claims, ok := VerifyVerificationPayload("secret", payload)
	require.True(t, ok)
	assert.Equal(t, "TKT-ABC-12345", claims.TicketNumber)
	assert.Equal(t, "event-001", claims.EventID)
	assert.Equal(t, int64(42), claims.HolderID)
	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt)
}

func TestVerificationPayloadRejectsWrongSecret(t *testing.T) {
	payload := BuildVerificationPayload("secret", "TKT-ABC-12345", "event-001", 42, time.Now())

	_, ok := VerifyVerificationPayload("other-secret", payload)
	assert.False(t, ok)
}

func TestVerificationPayloadRejectsGarbage(t *testing.T) {
	_, ok := VerifyVerificationPayload("secret", "not-base64!!!")
	assert.False(t, ok)
}

package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignatureAcceptsValid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	header := SignPayload(payload, "whsec_test", time.Now().Unix())

	err := verifySignature(payload, header, "whsec_test", nil)
	assert.NoError(t, err)
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, "whsec_other", time.Now().Unix())

	err := verifySignature(payload, header, "whsec_test", nil)
	assert.Error(t, err)
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, "whsec_test", time.Now().Unix())

	err := verifySignature([]byte(`{"id":"evt_2"}`), header, "whsec_test", nil)
	assert.Error(t, err)
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	err := verifySignature([]byte(`{}`), "garbage", "whsec_test", nil)
	assert.Error(t, err)

	err = verifySignature([]byte(`{}`), "t=,v1=", "whsec_test", nil)
	assert.Error(t, err)
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	stale := time.Now().Add(-time.Hour).Unix()
	header := SignPayload(payload, "whsec_test", stale)

	tolerance := func(timestamp int64) bool {
		return time.Since(time.Unix(timestamp, 0)) <= 5*time.Minute
	}

	err := verifySignature(payload, header, "whsec_test", tolerance)
	assert.Error(t, err)
}

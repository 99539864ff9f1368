package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

// verifySignature checks a "t=<unix>,v1=<hex hmac>" header against the
// HMAC-SHA256 of "<t>.<payload>" keyed by the webhook secret.
func verifySignature(rawPayload []byte, signatureHeader, secret string, tolerance func(timestamp int64) bool) error {
	var timestamp int64
	var signatures [][]byte

	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}

		switch key {
		case "t":
			timestamp, _ = strconv.ParseInt(value, 10, 64)
		case "v1":
			if sig, err := hex.DecodeString(value); err == nil {
				signatures = append(signatures, sig)
			}
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return errors.New(http.StatusBadRequest, status.INVALID_SIGNATURE, "webhook signature header is malformed")
	}

	if tolerance != nil && !tolerance(timestamp) {
		return errors.New(http.StatusBadRequest, status.INVALID_SIGNATURE, "webhook signature timestamp is outside the tolerance window")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(rawPayload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}

	return errors.New(http.StatusBadRequest, status.INVALID_SIGNATURE, "webhook signature does not match")
}

// SignPayload builds a signature header for a payload. Exposed for
// gateway simulators and tests.
func SignPayload(rawPayload []byte, secret string, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(rawPayload)

	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

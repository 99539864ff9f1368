package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/applogger"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

func TestCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "15747", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "TO-1", r.PostForm.Get("metadata[order_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	repo := NewStripeRepository(srv.URL, "sk_test", "whsec_test", nil, applogger.GetLogrus(), srv.Client())

	intent, err := repo.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinorUnits: 15747,
		Currency:         "USD",
		CustomerEmail:    "john@doe.com",
		Metadata:         map[string]string{"order_id": "TO-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
}

func TestCreateIntentGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer srv.Close()

	repo := NewStripeRepository(srv.URL, "sk_test", "whsec_test", nil, applogger.GetLogrus(), srv.Client())

	_, err := repo.CreateIntent(context.Background(), CreateIntentRequest{AmountMinorUnits: 100, Currency: "USD"})
	require.Error(t, err)
	assert.Equal(t, status.GATEWAY_UNAVAILABLE, errors.Destruct(err).Status)
}

func TestRefundIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_123", r.PostForm.Get("payment_intent"))

		w.Write([]byte(`{"id":"re_123","status":"succeeded"}`))
	}))
	defer srv.Close()

	repo := NewStripeRepository(srv.URL, "sk_test", "whsec_test", nil, applogger.GetLogrus(), srv.Client())

	refund, err := repo.RefundIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "re_123", refund.ID)
}

func TestVerifyWebhook(t *testing.T) {
	repo := NewStripeRepository("http://localhost", "sk_test", "whsec_test", nil, applogger.GetLogrus(), http.DefaultClient)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	header := SignPayload(payload, "whsec_test", time.Now().Unix())

	event, err := repo.VerifyWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, "pi_123", event.IntentID)
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	repo := NewStripeRepository("http://localhost", "sk_test", "whsec_test", nil, applogger.GetLogrus(), http.DefaultClient)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	header := SignPayload(payload, "whsec_wrong", time.Now().Unix())

	_, err := repo.VerifyWebhook(payload, header)
	require.Error(t, err)
	assert.Equal(t, status.INVALID_SIGNATURE, errors.Destruct(err).Status)
}

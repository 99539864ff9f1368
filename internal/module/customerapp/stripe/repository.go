package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type StripeRepository interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (PaymentIntent, error)
	RefundIntent(ctx context.Context, intentID string) (Refund, error)
	VerifyWebhook(rawPayload []byte, signatureHeader string) (WebhookEvent, error)
}

type stripeRepository struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	tolerance     func(timestamp int64) bool
	logger        *logrus.Logger
	hc            *http.Client
}

func NewStripeRepository(baseURL, secretKey, webhookSecret string, tolerance func(timestamp int64) bool, logger *logrus.Logger, hc *http.Client) StripeRepository {
	return &stripeRepository{
		baseURL:       baseURL,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		tolerance:     tolerance,
		logger:        logger,
		hc:            hc,
	}
}

func (r *stripeRepository) post(ctx context.Context, path string, form url.Values, dest interface{}) error {
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", r.baseURL, path), strings.NewReader(form.Encode()))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusBadGateway, status.GATEWAY_UNAVAILABLE, "an error occurred while calling the payment gateway")
	}

	hr.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	hr.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.secretKey))

	hresp, err := r.hc.Do(hr)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusBadGateway, status.GATEWAY_UNAVAILABLE, "an error occurred while calling the payment gateway")
	}
	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusBadGateway, status.GATEWAY_UNAVAILABLE, "an error occurred while calling the payment gateway")
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		r.logger.WithContext(ctx).WithFields(logrus.Fields{
			"path":        path,
			"status_code": hresp.StatusCode,
			"body":        string(respBody),
		}).Error("payment gateway rejected the request")
		return errors.New(http.StatusBadGateway, status.GATEWAY_UNAVAILABLE, "the payment gateway rejected the request")
	}

	if err := json.Unmarshal(respBody, dest); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusBadGateway, status.GATEWAY_UNAVAILABLE, "an error occurred while decoding the payment gateway response")
	}

	return nil
}

// CreateIntent implements StripeRepository.
func (r *stripeRepository) CreateIntent(ctx context.Context, req CreateIntentRequest) (PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinorUnits, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("receipt_email", req.CustomerEmail)
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent PaymentIntent
	if err := r.post(ctx, "/v1/payment_intents", form, &intent); err != nil {
		return PaymentIntent{}, err
	}

	return intent, nil
}

// RefundIntent implements StripeRepository.
func (r *stripeRepository) RefundIntent(ctx context.Context, intentID string) (Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", intentID)

	var refund Refund
	if err := r.post(ctx, "/v1/refunds", form, &refund); err != nil {
		return Refund{}, err
	}

	return refund, nil
}

// VerifyWebhook implements StripeRepository. The payload is only
// interpreted after its signature has been verified against the shared
// webhook secret.
func (r *stripeRepository) VerifyWebhook(rawPayload []byte, signatureHeader string) (WebhookEvent, error) {
	if err := verifySignature(rawPayload, signatureHeader, r.webhookSecret, r.tolerance); err != nil {
		return WebhookEvent{}, err
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return WebhookEvent{}, errors.New(http.StatusBadRequest, status.INVALID_SIGNATURE, "webhook payload is not decodable")
	}

	return WebhookEvent{
		ID:       payload.ID,
		Type:     payload.Type,
		IntentID: payload.Data.Object.ID,
	}, nil
}

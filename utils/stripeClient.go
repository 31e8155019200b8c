package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrMissingEventObject = errors.New("stripe event has no data object")

// ConstructStripeEvent verifies the Stripe-Signature header against payload and
// decodes the event. Events pinned to another API version are accepted; only
// the checkout session fields below are read.
func ConstructStripeEvent(payload []byte, header, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

// CheckoutSessionFromEvent decodes the checkout session carried by event.
func CheckoutSessionFromEvent(event stripe.Event) (*stripe.CheckoutSession, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, ErrMissingEventObject
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &session, nil
}

func SessionPaid(s *stripe.CheckoutSession) bool {
	return s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// StripeClient reads checkout sessions from the Stripe REST API.
type StripeClient struct {
	http *resty.Client
}

func NewStripeClient(baseURL, apiKey string) *StripeClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Stripe-Version", stripe.APIVersion).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &StripeClient{http: client}
}

// CheckoutSession fetches a checkout session by id.
func (s *StripeClient) CheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	var apiErr stripeError
	resp, err := s.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&session).
		SetError(&apiErr).
		Get("/v1/checkout/sessions/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetch checkout session: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch checkout session: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	return &session, nil
}

package stripegw

import (
	"encoding/json"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

// WebhookParser verifies Stripe webhook signatures and normalizes checkout
// events into the shape the reconciler consumes.
type WebhookParser struct {
	signingSecret string
}

// NewWebhookParser returns a parser bound to the endpoint's signing secret.
func NewWebhookParser(signingSecret string) (*WebhookParser, error) {
	if strings.TrimSpace(signingSecret) == "" {
		return nil, fmt.Errorf("%w: webhook signing secret is empty", booking.ErrInvalidServiceConfig)
	}
	return &WebhookParser{signingSecret: signingSecret}, nil
}

// VerifyAndParse checks the Stripe-Signature header against the raw payload
// and returns the normalized event. A failed signature check is the only
// condition callers should reject the delivery for.
func (parser *WebhookParser) VerifyAndParse(payload []byte, signatureHeader string) (booking.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, parser.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return booking.GatewayEvent{}, fmt.Errorf("%w: %v", booking.ErrSignatureVerification, err)
	}

	normalized := booking.GatewayEvent{
		EventID:    event.ID,
		Type:       booking.GatewayEventType(event.Type),
		RawPayload: payload,
	}
	switch normalized.Type {
	case booking.EventCheckoutCompleted, booking.EventCheckoutExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return booking.GatewayEvent{}, fmt.Errorf("decode checkout session: %w", err)
		}
		normalized.BookingID = session.Metadata[metadataBookingID]
		normalized.Amount = session.AmountTotal
		normalized.Currency = string(session.Currency)
		if session.PaymentIntent != nil {
			normalized.PaymentIntentID = session.PaymentIntent.ID
		}
	}
	return normalized, nil
}

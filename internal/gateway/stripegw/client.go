package stripegw

import (
	"context"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

const (
	metadataBookingID   = "booking_id"
	metadataPaymentType = "type"
)

// Gateway implements booking.PaymentGateway against the Stripe API. Deposits
// are collected through Checkout with the platform fee carved out of the
// transfer to the instructor's connected account.
type Gateway struct {
	api *client.API
}

// New returns a Gateway authenticated with the given secret key.
func New(secretKey string) (*Gateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("%w: stripe secret key is empty", booking.ErrInvalidServiceConfig)
	}
	return &Gateway{api: client.New(secretKey, nil)}, nil
}

// CreateCheckoutSession opens a hosted checkout for the deposit. Amounts are
// passed through unscaled: AMD is a zero-decimal-like whole-unit currency in
// this marketplace.
func (gateway *Gateway) CreateCheckoutSession(ctx context.Context, spec booking.CheckoutSpec) (booking.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(spec.Currency)),
					UnitAmount: stripe.Int64(spec.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(spec.ProductName),
						Description: stripe.String(spec.ProductDescription),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(spec.ApplicationFee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(spec.ConnectedAccountID),
			},
		},
		SuccessURL: stripe.String(spec.SuccessURL),
		CancelURL:  stripe.String(spec.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataBookingID, spec.BookingID)
	params.AddMetadata(metadataPaymentType, booking.PaymentDeposit.String())

	session, err := gateway.api.CheckoutSessions.New(params)
	if err != nil {
		return booking.CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	return booking.CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}

// RefundPaymentIntent refunds the full captured amount of a payment intent
// and returns the refund identifier.
func (gateway *Gateway) RefundPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	refund, err := gateway.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe refund: %w", err)
	}
	return refund.ID, nil
}

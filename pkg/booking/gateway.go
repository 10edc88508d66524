package booking

import "context"

// CheckoutSpec describes the hosted deposit checkout to create.
type CheckoutSpec struct {
	BookingID          string
	Amount             int64
	Currency           string
	ProductName        string
	ProductDescription string
	ConnectedAccountID string
	ApplicationFee     int64
	SuccessURL         string
	CancelURL          string
}

// CheckoutSession is the processor's handle for a created checkout.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// PaymentGateway is the payment processor contract. A single configured
// client is constructed at process start and shared across requests.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, spec CheckoutSpec) (CheckoutSession, error)
	RefundPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
}

// GatewayEventType discriminates normalized webhook events.
type GatewayEventType string

const (
	EventCheckoutCompleted GatewayEventType = "checkout.session.completed"
	EventCheckoutExpired   GatewayEventType = "checkout.session.expired"
)

// GatewayEvent is a signature-verified, normalized processor notification.
// BookingID comes from the checkout metadata and may be empty for checkouts
// unrelated to bookings. Amount and Currency are the processor-reported
// settled values, never recomputed locally.
type GatewayEvent struct {
	EventID         string
	Type            GatewayEventType
	BookingID       string
	PaymentIntentID string
	Amount          int64
	Currency        string
	RawPayload      []byte
}

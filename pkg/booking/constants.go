package booking

import "time"

// Currency is the single supported deployment currency. AMD amounts are
// whole-unit integers and are passed to the payment processor unscaled.
const Currency = "AMD"

const (
	depositRate     = 0.20
	platformFeeRate = 0.10

	// refundWindow is how far before lesson start a cancellation still
	// qualifies for a deposit refund.
	refundWindow = 48 * time.Hour

	dateLayout = "2006-01-02"

	expiredSessionReason = "Payment session expired"

	operationCreate    = "create_booking"
	operationCancel    = "cancel_booking"
	operationReview    = "submit_review"
	operationReconcile = "reconcile_event"

	operationStatusOK    = "ok"
	operationStatusError = "error"
)

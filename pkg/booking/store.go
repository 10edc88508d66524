package booking

import "context"

// Store is the persistence contract used by Service and Reconciler.
//
// Conditional semantics the implementation must uphold:
//   - ClaimSlot flips is_booked only when it is still false, atomically;
//     a lost race surfaces as ErrSlotUnavailable.
//   - MarkConfirmed and MarkCancelled are compare-and-set on the current
//     status; a guard miss surfaces as ErrInvalidState.
//   - InsertPayment, InsertReview, and RecordGatewayEvent report constraint
//     collisions as their ErrDuplicate* sentinel.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	ClaimSlot(ctx context.Context, slotID string) (Slot, error)
	GetActiveInstructor(ctx context.Context, instructorID string) (Instructor, error)

	InsertBooking(ctx context.Context, record Booking) error
	GetBooking(ctx context.Context, bookingID string) (Booking, error)
	GetBookingForStudent(ctx context.Context, bookingID string, studentID string) (Booking, error)
	ListBookingsForStudent(ctx context.Context, studentID string) ([]Booking, error)
	SetCheckoutSession(ctx context.Context, bookingID string, sessionID string) error
	MarkConfirmed(ctx context.Context, bookingID string, paymentIntentID string) error
	MarkCancelled(ctx context.Context, bookingID string, reason string, cancelledUnixUTC int64) error

	InsertPayment(ctx context.Context, record Payment) error
	ListPayments(ctx context.Context, bookingID string) ([]Payment, error)

	ReviewExists(ctx context.Context, bookingID string) (bool, error)
	InsertReview(ctx context.Context, record Review) error

	RecordGatewayEvent(ctx context.Context, record GatewayEventRecord) error
}

// GatewayEventRecord is the processed-event marker persisted for webhook
// delivery deduplication.
type GatewayEventRecord struct {
	EventID         string
	Type            string
	Payload         []byte
	ReceivedUnixUTC int64
}

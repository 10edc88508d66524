package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reconciler applies verified payment-processor notifications to booking
// state. It is stateless and safe to invoke more than once for the same
// event: deliveries are deduplicated on the processor's event identifier,
// and every transition it applies is a compare-and-set.
type Reconciler struct {
	store  Store
	nowFn  func() time.Time
	logger OperationLogger
}

// NewReconciler wires a Reconciler. The logger may be nil.
func NewReconciler(store Store, now func() time.Time, logger OperationLogger) (*Reconciler, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	return &Reconciler{store: store, nowFn: now, logger: logger}, nil
}

// Process applies one signature-verified event. Unrecognized event types and
// redelivered events are accepted no-ops. Returned errors are for server-side
// reporting; the webhook endpoint still acknowledges the delivery.
func (reconciler *Reconciler) Process(ctx context.Context, event GatewayEvent) error {
	operationError := reconciler.process(ctx, event)
	reconciler.logOperation(ctx, OperationLog{
		Operation: operationReconcile,
		BookingID: event.BookingID,
		EventID:   event.EventID,
		Amount:    event.Amount,
		Error:     operationError,
	})
	return operationError
}

func (reconciler *Reconciler) process(ctx context.Context, event GatewayEvent) error {
	if event.EventID != "" {
		err := reconciler.store.RecordGatewayEvent(ctx, GatewayEventRecord{
			EventID:         event.EventID,
			Type:            string(event.Type),
			Payload:         event.RawPayload,
			ReceivedUnixUTC: reconciler.nowFn().Unix(),
		})
		if errors.Is(err, ErrDuplicateEvent) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	switch event.Type {
	case EventCheckoutCompleted:
		return reconciler.applyCheckoutCompleted(ctx, event)
	case EventCheckoutExpired:
		return reconciler.applyCheckoutExpired(ctx, event)
	default:
		// Unrecognized kinds are accepted and ignored.
		return nil
	}
}

func (reconciler *Reconciler) applyCheckoutCompleted(ctx context.Context, event GatewayEvent) error {
	if event.BookingID == "" {
		// A checkout unrelated to bookings; nothing to reconcile.
		return nil
	}

	// Confirmation is the higher-priority side effect; the ledger insert is
	// attempted even when it fails, and each failure is reported on its own.
	confirmErr := reconciler.confirmBooking(ctx, event)
	ledgerErr := reconciler.recordDeposit(ctx, event)
	return errors.Join(confirmErr, ledgerErr)
}

func (reconciler *Reconciler) confirmBooking(ctx context.Context, event GatewayEvent) error {
	err := reconciler.store.MarkConfirmed(ctx, event.BookingID, event.PaymentIntentID)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidState) {
		record, getErr := reconciler.store.GetBooking(ctx, event.BookingID)
		if getErr == nil && record.Status != StatusPending && record.Status != StatusCancelled {
			// Redelivery after a successful confirmation.
			return nil
		}
	}
	return err
}

func (reconciler *Reconciler) recordDeposit(ctx context.Context, event GatewayEvent) error {
	currency := strings.ToUpper(strings.TrimSpace(event.Currency))
	if currency == "" {
		currency = Currency
	}
	err := reconciler.store.InsertPayment(ctx, Payment{
		PaymentID:      uuid.NewString(),
		BookingID:      event.BookingID,
		Type:           PaymentDeposit,
		Amount:         event.Amount,
		Currency:       currency,
		GatewayRef:     event.PaymentIntentID,
		CreatedUnixUTC: reconciler.nowFn().Unix(),
	})
	if errors.Is(err, ErrDuplicatePayment) {
		return nil
	}
	return err
}

func (reconciler *Reconciler) applyCheckoutExpired(ctx context.Context, event GatewayEvent) error {
	if event.BookingID == "" {
		return nil
	}
	err := reconciler.store.MarkCancelled(ctx, event.BookingID, expiredSessionReason, reconciler.nowFn().Unix())
	if errors.Is(err, ErrInvalidState) {
		// Already terminal; expiry after the fact is a no-op.
		return nil
	}
	return err
}

func (reconciler *Reconciler) logOperation(ctx context.Context, entry OperationLog) {
	if reconciler.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	reconciler.logger.LogOperation(ctx, entry)
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func mustNewReconciler(test *testing.T, store Store) *Reconciler {
	test.Helper()
	reconciler, err := NewReconciler(store, fixedNow, nil)
	if err != nil {
		test.Fatalf("new reconciler: %v", err)
	}
	return reconciler
}

func TestProcessCheckoutCompletedConfirmsAndRecordsDeposit(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusPending, "2026-01-15", "09:00")
	reconciler := mustNewReconciler(test, store)

	err := reconciler.Process(context.Background(), GatewayEvent{
		EventID:         "evt_1",
		Type:            EventCheckoutCompleted,
		BookingID:       record.BookingID,
		PaymentIntentID: "pi_123",
		Amount:          3000,
		Currency:        "amd",
	})
	if err != nil {
		test.Fatalf("process: %v", err)
	}

	confirmed := store.mustBooking(test, record.BookingID)
	if confirmed.Status != StatusConfirmed {
		test.Fatalf("expected confirmed booking, got %s", confirmed.Status)
	}
	if confirmed.PaymentIntentID != "pi_123" {
		test.Fatalf("expected payment intent persisted, got %q", confirmed.PaymentIntentID)
	}

	deposits := store.paymentsOfType(record.BookingID, PaymentDeposit)
	if len(deposits) != 1 {
		test.Fatalf("expected one deposit row, got %d", len(deposits))
	}
	if deposits[0].Amount != 3000 || deposits[0].Currency != "AMD" || deposits[0].GatewayRef != "pi_123" {
		test.Fatalf("unexpected deposit row: %+v", deposits[0])
	}
}

func TestProcessRedeliveredEventIsNoOp(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusPending, "2026-01-15", "09:00")
	reconciler := mustNewReconciler(test, store)

	event := GatewayEvent{
		EventID:         "evt_1",
		Type:            EventCheckoutCompleted,
		BookingID:       record.BookingID,
		PaymentIntentID: "pi_123",
		Amount:          3000,
	}
	if err := reconciler.Process(context.Background(), event); err != nil {
		test.Fatalf("first delivery: %v", err)
	}
	if err := reconciler.Process(context.Background(), event); err != nil {
		test.Fatalf("redelivery: %v", err)
	}

	if count := len(store.paymentsOfType(record.BookingID, PaymentDeposit)); count != 1 {
		test.Fatalf("expected one deposit row after redelivery, got %d", count)
	}
}

func TestProcessCompletedAgainstConfirmedBookingIsIdempotent(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusConfirmed, "2026-01-15", "09:00")
	reconciler := mustNewReconciler(test, store)

	// A distinct event identifier sidesteps dedupe, modelling a processor
	// retry that reissues the event id.
	err := reconciler.Process(context.Background(), GatewayEvent{
		EventID:         "evt_2",
		Type:            EventCheckoutCompleted,
		BookingID:       record.BookingID,
		PaymentIntentID: "pi_123",
		Amount:          3000,
	})
	if err != nil {
		test.Fatalf("expected idempotent apply, got %v", err)
	}
	if store.mustBooking(test, record.BookingID).Status != StatusConfirmed {
		test.Fatalf("expected booking to remain confirmed")
	}
}

func TestProcessCompletedAgainstCancelledBookingReportsConflict(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusCancelled, "2026-01-15", "09:00")
	reconciler := mustNewReconciler(test, store)

	err := reconciler.Process(context.Background(), GatewayEvent{
		EventID:         "evt_3",
		Type:            EventCheckoutCompleted,
		BookingID:       record.BookingID,
		PaymentIntentID: "pi_123",
		Amount:          3000,
	})
	if !errors.Is(err, ErrInvalidState) {
		test.Fatalf("expected ErrInvalidState for payment on cancelled booking, got %v", err)
	}
}

func TestProcessCompletedRecordsDepositEvenWhenConfirmFails(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusPending, "2026-01-15", "09:00")
	store.confirmErr = fmt.Errorf("%w: write timeout", ErrPersistence)
	reconciler := mustNewReconciler(test, store)

	err := reconciler.Process(context.Background(), GatewayEvent{
		EventID:         "evt_4",
		Type:            EventCheckoutCompleted,
		BookingID:       record.BookingID,
		PaymentIntentID: "pi_123",
		Amount:          3000,
	})
	if !errors.Is(err, ErrPersistence) {
		test.Fatalf("expected confirm error surfaced, got %v", err)
	}
	if count := len(store.paymentsOfType(record.BookingID, PaymentDeposit)); count != 1 {
		test.Fatalf("expected deposit row despite confirm failure, got %d", count)
	}
}

func TestProcessCheckoutExpiredCancelsPendingBooking(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusPending, "2026-01-15", "09:00")
	reconciler := mustNewReconciler(test, store)

	err := reconciler.Process(context.Background(), GatewayEvent{
		EventID:   "evt_5",
		Type:      EventCheckoutExpired,
		BookingID: record.BookingID,
	})
	if err != nil {
		test.Fatalf("process: %v", err)
	}

	cancelled := store.mustBooking(test, record.BookingID)
	if cancelled.Status != StatusCancelled {
		test.Fatalf("expected cancelled booking, got %s", cancelled.Status)
	}
	if cancelled.CancellationReason != "Payment session expired" {
		test.Fatalf("unexpected reason %q", cancelled.CancellationReason)
	}
}

func TestProcessCheckoutExpiredAfterConfirmationIsNoOp(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusCompleted, "2026-01-15", "09:00")
	reconciler := mustNewReconciler(test, store)

	err := reconciler.Process(context.Background(), GatewayEvent{
		EventID:   "evt_6",
		Type:      EventCheckoutExpired,
		BookingID: record.BookingID,
	})
	if err != nil {
		test.Fatalf("expected terminal-state expiry to be ignored, got %v", err)
	}
	if store.mustBooking(test, record.BookingID).Status != StatusCompleted {
		test.Fatalf("expected booking untouched")
	}
}

func TestProcessIgnoresUnrelatedEventTypes(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	reconciler := mustNewReconciler(test, store)

	err := reconciler.Process(context.Background(), GatewayEvent{
		EventID: "evt_7",
		Type:    "invoice.paid",
	})
	if err != nil {
		test.Fatalf("expected unrelated event to be ignored, got %v", err)
	}
}

func TestProcessCompletedWithoutBookingMetadataIsIgnored(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	reconciler := mustNewReconciler(test, store)

	err := reconciler.Process(context.Background(), GatewayEvent{
		EventID:         "evt_8",
		Type:            EventCheckoutCompleted,
		PaymentIntentID: "pi_999",
		Amount:          5000,
	})
	if err != nil {
		test.Fatalf("expected checkout without booking metadata to be ignored, got %v", err)
	}
	if len(store.payments) != 0 {
		test.Fatalf("expected no ledger rows, got %d", len(store.payments))
	}
}

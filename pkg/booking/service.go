package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service drives the booking lifecycle over a Store and a PaymentGateway.
type Service struct {
	store      Store
	gateway    PaymentGateway
	nowFn      func() time.Time
	appBaseURL string
	logger     OperationLogger
}

// NewService wires a Service.
func NewService(store Store, gateway PaymentGateway, now func() time.Time, appBaseURL string, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: gateway dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	if strings.TrimSpace(appBaseURL) == "" {
		return nil, fmt.Errorf("%w: app base url is empty", ErrInvalidServiceConfig)
	}
	service := &Service{
		store:      store,
		gateway:    gateway,
		nowFn:      now,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// CreateBookingResult reports the outcome of a successful create.
// CheckoutURL is empty on the direct-confirm path. SessionRecorded is false
// when the checkout was created but its reference failed to persist on the
// booking; confirmation still arrives via the webhook, which keys on the
// checkout metadata rather than the stored reference.
type CreateBookingResult struct {
	BookingID       string
	CheckoutURL     string
	SessionRecorded bool
}

// CreateBooking validates the request, reserves the slot, prices the lesson,
// and either opens a deposit checkout (onboarded instructor) or confirms the
// booking directly.
func (service *Service) CreateBooking(ctx context.Context, studentID string, request CreateBookingRequest) (CreateBookingResult, error) {
	result, operationError := service.createBooking(ctx, studentID, request)
	service.logOperation(ctx, OperationLog{
		Operation: operationCreate,
		StudentID: studentID,
		BookingID: result.BookingID,
		SlotID:    request.SlotID,
		Error:     operationError,
	})
	return result, operationError
}

func (service *Service) createBooking(ctx context.Context, studentID string, request CreateBookingRequest) (CreateBookingResult, error) {
	if strings.TrimSpace(studentID) == "" {
		return CreateBookingResult{}, fmt.Errorf("%w: missing caller identity", ErrValidation)
	}
	request, err := ValidateCreateBooking(request)
	if err != nil {
		return CreateBookingResult{}, err
	}

	now := service.nowFn()
	var created Booking
	var instructor Instructor
	err = service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		slot, err := txStore.ClaimSlot(ctx, request.SlotID)
		if err != nil {
			return err
		}
		instructor, err = txStore.GetActiveInstructor(ctx, request.InstructorID)
		if err != nil {
			return err
		}
		if slot.InstructorID != request.InstructorID {
			return ErrSlotMismatch
		}

		total := PriceForRange(slot.StartTime, slot.EndTime, instructor.PricePerHour)
		created = Booking{
			BookingID:      uuid.NewString(),
			StudentID:      studentID,
			InstructorID:   instructor.InstructorID,
			SlotID:         slot.SlotID,
			ResortSlug:     slot.ResortSlug,
			Date:           slot.Date,
			StartTime:      slot.StartTime,
			EndTime:        slot.EndTime,
			Status:         StatusPending,
			TotalAmount:    total,
			DepositAmount:  Deposit(total),
			PlatformFee:    PlatformFee(total),
			Currency:       Currency,
			Notes:          request.Notes,
			CreatedUnixUTC: now.Unix(),
			UpdatedUnixUTC: now.Unix(),
		}
		return txStore.InsertBooking(ctx, created)
	})
	if err != nil {
		return CreateBookingResult{}, err
	}

	if instructor.StripeAccountID == "" || !instructor.StripeOnboarded {
		// No processor onboarding: confirm directly, no payment collection.
		if err := service.store.MarkConfirmed(ctx, created.BookingID, ""); err != nil {
			return CreateBookingResult{BookingID: created.BookingID}, err
		}
		return CreateBookingResult{BookingID: created.BookingID}, nil
	}

	session, err := service.gateway.CreateCheckoutSession(ctx, CheckoutSpec{
		BookingID:          created.BookingID,
		Amount:             created.DepositAmount,
		Currency:           created.Currency,
		ProductName:        fmt.Sprintf("Lesson with %s", instructor.Name),
		ProductDescription: fmt.Sprintf("%s %s–%s at %s", created.Date, created.StartTime, created.EndTime, created.ResortSlug),
		ConnectedAccountID: instructor.StripeAccountID,
		ApplicationFee:     PlatformFee(created.DepositAmount),
		SuccessURL:         fmt.Sprintf("%s/bookings/%s?success=true", service.appBaseURL, created.BookingID),
		CancelURL:          fmt.Sprintf("%s/bookings/%s?cancelled=true", service.appBaseURL, created.BookingID),
	})
	if err != nil {
		return CreateBookingResult{BookingID: created.BookingID}, fmt.Errorf("%w: create checkout session: %v", ErrExternalService, err)
	}

	result := CreateBookingResult{
		BookingID:       created.BookingID,
		CheckoutURL:     session.URL,
		SessionRecorded: true,
	}
	if err := service.store.SetCheckoutSession(ctx, created.BookingID, session.SessionID); err != nil {
		// Degraded success: the checkout exists and the webhook confirms via
		// metadata, so the booking is still confirmable.
		result.SessionRecorded = false
		service.logOperation(ctx, OperationLog{
			Operation: operationCreate,
			StudentID: studentID,
			BookingID: created.BookingID,
			SlotID:    request.SlotID,
			Status:    "session_persist_failed",
			Error:     err,
		})
	}
	return result, nil
}

// CancelBookingResult reports the outcome of a committed cancellation.
// RefundFailed is true when a refund was due but the processor call failed;
// the cancellation itself is never rolled back.
type CancelBookingResult struct {
	BookingID    string
	Refunded     bool
	RefundFailed bool
}

// CancelBooking cancels a pending or confirmed booking owned by the caller
// and refunds the deposit when the lesson is at least 48 hours away.
func (service *Service) CancelBooking(ctx context.Context, studentID string, request CancelBookingRequest) (CancelBookingResult, error) {
	result, operationError := service.cancelBooking(ctx, studentID, request)
	service.logOperation(ctx, OperationLog{
		Operation: operationCancel,
		StudentID: studentID,
		BookingID: request.BookingID,
		Error:     operationError,
	})
	return result, operationError
}

func (service *Service) cancelBooking(ctx context.Context, studentID string, request CancelBookingRequest) (CancelBookingResult, error) {
	if strings.TrimSpace(studentID) == "" {
		return CancelBookingResult{}, fmt.Errorf("%w: missing caller identity", ErrValidation)
	}
	request, err := ValidateCancelBooking(request)
	if err != nil {
		return CancelBookingResult{}, err
	}

	target, err := service.store.GetBookingForStudent(ctx, request.BookingID, studentID)
	if err != nil {
		return CancelBookingResult{}, err
	}
	if !target.Status.Cancellable() {
		return CancelBookingResult{}, fmt.Errorf("%w: this booking cannot be cancelled", ErrInvalidState)
	}

	now := service.nowFn()
	lessonStart, err := target.LessonStart()
	if err != nil {
		return CancelBookingResult{}, err
	}
	eligibleForRefund := lessonStart.Sub(now) >= refundWindow

	// The cancellation commits regardless of refund eligibility or outcome.
	if err := service.store.MarkCancelled(ctx, target.BookingID, request.Reason, now.Unix()); err != nil {
		return CancelBookingResult{}, err
	}
	result := CancelBookingResult{BookingID: target.BookingID}

	if !eligibleForRefund || target.PaymentIntentID == "" {
		return result, nil
	}

	refundID, err := service.gateway.RefundPaymentIntent(ctx, target.PaymentIntentID)
	if err != nil {
		result.RefundFailed = true
		service.logOperation(ctx, OperationLog{
			Operation: operationCancel,
			StudentID: studentID,
			BookingID: target.BookingID,
			Amount:    target.DepositAmount,
			Status:    "refund_failed",
			Error:     err,
		})
		return result, nil
	}
	result.Refunded = true

	ledgerErr := service.store.InsertPayment(ctx, Payment{
		PaymentID:      uuid.NewString(),
		BookingID:      target.BookingID,
		Type:           PaymentRefund,
		Amount:         target.DepositAmount,
		Currency:       target.Currency,
		GatewayRef:     refundID,
		CreatedUnixUTC: now.Unix(),
	})
	if ledgerErr != nil && !errors.Is(ledgerErr, ErrDuplicatePayment) {
		service.logOperation(ctx, OperationLog{
			Operation: operationCancel,
			StudentID: studentID,
			BookingID: target.BookingID,
			Amount:    target.DepositAmount,
			Status:    "refund_ledger_failed",
			Error:     ledgerErr,
		})
	}
	return result, nil
}

// GetBooking returns a booking owned by the caller along with its ledger rows.
func (service *Service) GetBooking(ctx context.Context, studentID string, bookingID string) (Booking, []Payment, error) {
	if _, err := uuid.Parse(strings.TrimSpace(bookingID)); err != nil {
		return Booking{}, nil, fmt.Errorf("%w: Invalid booking ID", ErrValidation)
	}
	record, err := service.store.GetBookingForStudent(ctx, strings.TrimSpace(bookingID), studentID)
	if err != nil {
		return Booking{}, nil, err
	}
	payments, err := service.store.ListPayments(ctx, record.BookingID)
	if err != nil {
		return Booking{}, nil, err
	}
	return record, payments, nil
}

// ListBookings returns the caller's bookings, newest first.
func (service *Service) ListBookings(ctx context.Context, studentID string) ([]Booking, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, fmt.Errorf("%w: missing caller identity", ErrValidation)
	}
	return service.store.ListBookingsForStudent(ctx, studentID)
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

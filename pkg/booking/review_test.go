package booking

import (
	"context"
	"errors"
	"testing"
)

func TestSubmitReviewForCompletedBooking(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusCompleted, "2026-01-05", "09:00")
	service := mustNewService(test, store, &stubGateway{})

	review, err := service.SubmitReview(context.Background(), "student-1", SubmitReviewRequest{
		BookingID: record.BookingID,
		Rating:    5,
		Comment:   "  fantastic lesson  ",
	})
	if err != nil {
		test.Fatalf("submit: %v", err)
	}
	if review.Rating != 5 || review.Comment != "fantastic lesson" {
		test.Fatalf("unexpected review: %+v", review)
	}
	if review.InstructorID != record.InstructorID {
		test.Fatalf("expected instructor denormalized onto the review")
	}
	if review.CreatedUnixUTC != fixedNow().Unix() {
		test.Fatalf("expected creation timestamp stamped")
	}
}

func TestSubmitReviewTwiceRejected(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusCompleted, "2026-01-05", "09:00")
	service := mustNewService(test, store, &stubGateway{})

	request := SubmitReviewRequest{BookingID: record.BookingID, Rating: 4}
	if _, err := service.SubmitReview(context.Background(), "student-1", request); err != nil {
		test.Fatalf("first submit: %v", err)
	}
	_, err := service.SubmitReview(context.Background(), "student-1", request)
	if !errors.Is(err, ErrDuplicateReview) {
		test.Fatalf("expected ErrDuplicateReview, got %v", err)
	}
}

func TestSubmitReviewRequiresCompletedStatus(test *testing.T) {
	test.Parallel()
	for _, status := range []BookingStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusNoShow} {
		store := newStubStore()
		record := store.seedBooking(test, "student-1", status, "2026-01-05", "09:00")
		service := mustNewService(test, store, &stubGateway{})

		_, err := service.SubmitReview(context.Background(), "student-1", SubmitReviewRequest{
			BookingID: record.BookingID,
			Rating:    5,
		})
		if !errors.Is(err, ErrInvalidState) {
			test.Fatalf("status %s: expected ErrInvalidState, got %v", status, err)
		}
	}
}

func TestSubmitReviewForAnotherStudentsBookingNotFound(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	record := store.seedBooking(test, "student-1", StatusCompleted, "2026-01-05", "09:00")
	service := mustNewService(test, store, &stubGateway{})

	_, err := service.SubmitReview(context.Background(), "student-2", SubmitReviewRequest{
		BookingID: record.BookingID,
		Rating:    5,
	})
	if !errors.Is(err, ErrNotFound) {
		test.Fatalf("expected ErrNotFound, got %v", err)
	}
}

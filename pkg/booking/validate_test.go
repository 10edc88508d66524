package booking

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateCreateBookingAcceptsWellFormedRequest(test *testing.T) {
	test.Parallel()
	request, err := ValidateCreateBooking(CreateBookingRequest{
		SlotID:       uuid.NewString(),
		InstructorID: uuid.NewString(),
		Notes:        "  first lesson, please go easy  ",
	})
	if err != nil {
		test.Fatalf("validate: %v", err)
	}
	if request.Notes != "first lesson, please go easy" {
		test.Fatalf("expected trimmed notes, got %q", request.Notes)
	}
}

func TestValidateCreateBookingRejectsBadIdentifiers(test *testing.T) {
	test.Parallel()
	cases := []struct {
		name    string
		request CreateBookingRequest
		message string
	}{
		{
			name:    "missing slot",
			request: CreateBookingRequest{InstructorID: uuid.NewString()},
			message: "Invalid availability slot",
		},
		{
			name:    "malformed slot",
			request: CreateBookingRequest{SlotID: "not-a-uuid", InstructorID: uuid.NewString()},
			message: "Invalid availability slot",
		},
		{
			name:    "malformed instructor",
			request: CreateBookingRequest{SlotID: uuid.NewString(), InstructorID: "xyz"},
			message: "Invalid instructor",
		},
		{
			name: "oversize notes",
			request: CreateBookingRequest{
				SlotID:       uuid.NewString(),
				InstructorID: uuid.NewString(),
				Notes:        strings.Repeat("n", 501),
			},
			message: "Notes must be under 500 characters",
		},
	}
	for _, testCase := range cases {
		_, err := ValidateCreateBooking(testCase.request)
		if !errors.Is(err, ErrValidation) {
			test.Fatalf("%s: expected ErrValidation, got %v", testCase.name, err)
		}
		if !strings.Contains(err.Error(), testCase.message) {
			test.Fatalf("%s: expected message %q, got %q", testCase.name, testCase.message, err.Error())
		}
	}
}

func TestValidateCancelBookingRequiresReason(test *testing.T) {
	test.Parallel()
	_, err := ValidateCancelBooking(CancelBookingRequest{BookingID: uuid.NewString(), Reason: "   "})
	if !errors.Is(err, ErrValidation) {
		test.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "Please provide a reason") {
		test.Fatalf("unexpected message: %q", err.Error())
	}

	_, err = ValidateCancelBooking(CancelBookingRequest{BookingID: uuid.NewString(), Reason: strings.Repeat("r", 501)})
	if err == nil || !strings.Contains(err.Error(), "Reason must be under 500 characters") {
		test.Fatalf("expected oversize reason rejection, got %v", err)
	}
}

func TestValidateSubmitReviewBoundsRating(test *testing.T) {
	test.Parallel()
	for _, rating := range []int{0, -1, 6} {
		_, err := ValidateSubmitReview(SubmitReviewRequest{BookingID: uuid.NewString(), Rating: rating})
		if !errors.Is(err, ErrValidation) {
			test.Fatalf("rating %d: expected ErrValidation, got %v", rating, err)
		}
	}
	for _, rating := range []int{1, 3, 5} {
		if _, err := ValidateSubmitReview(SubmitReviewRequest{BookingID: uuid.NewString(), Rating: rating}); err != nil {
			test.Fatalf("rating %d: %v", rating, err)
		}
	}

	_, err := ValidateSubmitReview(SubmitReviewRequest{
		BookingID: uuid.NewString(),
		Rating:    4,
		Comment:   strings.Repeat("c", 1001),
	})
	if err == nil || !strings.Contains(err.Error(), "Comment must be under 1000 characters") {
		test.Fatalf("expected oversize comment rejection, got %v", err)
	}
}

func TestBookingStatusTransitionTable(test *testing.T) {
	test.Parallel()
	allStatuses := []BookingStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}
	legal := map[BookingStatus]map[BookingStatus]bool{
		StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
		StatusConfirmed: {StatusCompleted: true, StatusCancelled: true, StatusNoShow: true},
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := legal[from][to]
			if got := from.CanTransitionTo(to); got != want {
				test.Errorf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

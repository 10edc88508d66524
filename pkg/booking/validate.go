package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Request shapes accepted by the entry points. Validation runs before any
// store or gateway call; the first violated constraint is returned as a
// human-readable message wrapped in ErrValidation.

// CreateBookingRequest reserves a slot with an instructor.
type CreateBookingRequest struct {
	SlotID       string `json:"slot_id" validate:"required,uuid"`
	InstructorID string `json:"instructor_id" validate:"required,uuid"`
	Notes        string `json:"notes" validate:"omitempty,max=500"`
}

// CancelBookingRequest cancels an existing booking with a reason.
type CancelBookingRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"required,min=1,max=500"`
}

// SubmitReviewRequest rates a completed booking.
type SubmitReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"omitempty,max=1000"`
}

var requestValidator = validator.New()

var violationMessages = map[string]string{
	"SlotID.required":       "Invalid availability slot",
	"SlotID.uuid":           "Invalid availability slot",
	"InstructorID.required": "Invalid instructor",
	"InstructorID.uuid":     "Invalid instructor",
	"Notes.max":             "Notes must be under 500 characters",
	"BookingID.required":    "Invalid booking ID",
	"BookingID.uuid":        "Invalid booking ID",
	"Reason.required":       "Please provide a reason",
	"Reason.min":            "Please provide a reason",
	"Reason.max":            "Reason must be under 500 characters",
	"Rating.required":       "Rating must be at least 1",
	"Rating.min":            "Rating must be at least 1",
	"Rating.max":            "Rating must be at most 5",
	"Comment.max":           "Comment must be under 1000 characters",
}

func validateRequest(request any) error {
	err := requestValidator.Struct(request)
	if err == nil {
		return nil
	}
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) || len(violations) == 0 {
		return fmt.Errorf("%w: malformed request", ErrValidation)
	}
	first := violations[0]
	message, known := violationMessages[first.Field()+"."+first.Tag()]
	if !known {
		message = fmt.Sprintf("invalid %s", strings.ToLower(first.Field()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

// ValidateCreateBooking checks a create request and normalizes its fields.
func ValidateCreateBooking(request CreateBookingRequest) (CreateBookingRequest, error) {
	request.SlotID = strings.TrimSpace(request.SlotID)
	request.InstructorID = strings.TrimSpace(request.InstructorID)
	request.Notes = strings.TrimSpace(request.Notes)
	if err := validateRequest(request); err != nil {
		return CreateBookingRequest{}, err
	}
	return request, nil
}

// ValidateCancelBooking checks a cancel request and normalizes its fields.
func ValidateCancelBooking(request CancelBookingRequest) (CancelBookingRequest, error) {
	request.BookingID = strings.TrimSpace(request.BookingID)
	request.Reason = strings.TrimSpace(request.Reason)
	if err := validateRequest(request); err != nil {
		return CancelBookingRequest{}, err
	}
	return request, nil
}

// ValidateSubmitReview checks a review request and normalizes its fields.
func ValidateSubmitReview(request SubmitReviewRequest) (SubmitReviewRequest, error) {
	request.BookingID = strings.TrimSpace(request.BookingID)
	request.Comment = strings.TrimSpace(request.Comment)
	if err := validateRequest(request); err != nil {
		return SubmitReviewRequest{}, err
	}
	return request, nil
}

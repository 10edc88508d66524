package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SubmitReview records a one-time rating for a completed booking owned by
// the caller. The instructor reference is denormalized onto the review for
// query convenience; aggregate rating recomputation happens downstream of
// the insert, not here.
func (service *Service) SubmitReview(ctx context.Context, studentID string, request SubmitReviewRequest) (Review, error) {
	review, operationError := service.submitReview(ctx, studentID, request)
	service.logOperation(ctx, OperationLog{
		Operation: operationReview,
		StudentID: studentID,
		BookingID: request.BookingID,
		Error:     operationError,
	})
	return review, operationError
}

func (service *Service) submitReview(ctx context.Context, studentID string, request SubmitReviewRequest) (Review, error) {
	if strings.TrimSpace(studentID) == "" {
		return Review{}, fmt.Errorf("%w: missing caller identity", ErrValidation)
	}
	request, err := ValidateSubmitReview(request)
	if err != nil {
		return Review{}, err
	}

	target, err := service.store.GetBookingForStudent(ctx, request.BookingID, studentID)
	if err != nil {
		return Review{}, err
	}
	if target.Status != StatusCompleted {
		return Review{}, fmt.Errorf("%w: you can only review completed lessons", ErrInvalidState)
	}

	exists, err := service.store.ReviewExists(ctx, target.BookingID)
	if err != nil {
		return Review{}, err
	}
	if exists {
		return Review{}, fmt.Errorf("%w: you have already reviewed this lesson", ErrDuplicateReview)
	}

	review := Review{
		ReviewID:       uuid.NewString(),
		BookingID:      target.BookingID,
		StudentID:      studentID,
		InstructorID:   target.InstructorID,
		Rating:         request.Rating,
		Comment:        request.Comment,
		CreatedUnixUTC: service.nowFn().Unix(),
	}
	if err := service.store.InsertReview(ctx, review); err != nil {
		return Review{}, err
	}
	return review, nil
}

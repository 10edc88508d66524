package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sanatruk/snowpro-armenia/internal/catalog"
	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

const (
	webhookBodyLimit        = 1 << 16
	featuredInstructorLimit = 3
	instructorReviewLimit   = 10
)

type httpHandler struct {
	logger     *zap.Logger
	bookings   BookingService
	reconciler EventReconciler
	webhooks   WebhookVerifier
	directory  catalog.Catalog
}

func (handler *httpHandler) handleCreateBooking(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request createBookingPayload
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}

	result, err := handler.bookings.CreateBooking(ctx.Request.Context(), claims.GetUserID(), booking.CreateBookingRequest{
		SlotID:       request.SlotID,
		InstructorID: request.InstructorID,
		Notes:        request.Notes,
	})
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"booking_id":   result.BookingID,
		"checkout_url": result.CheckoutURL,
	})
}

func (handler *httpHandler) handleListBookings(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	records, err := handler.bookings.ListBookings(ctx.Request.Context(), claims.GetUserID())
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	listed := make([]bookingPayload, 0, len(records))
	for _, record := range records {
		listed = append(listed, mapBookingPayload(record))
	}
	ctx.JSON(http.StatusOK, gin.H{"bookings": listed})
}

func (handler *httpHandler) handleGetBooking(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	record, payments, err := handler.bookings.GetBooking(ctx.Request.Context(), claims.GetUserID(), ctx.Param("id"))
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	paymentList := make([]paymentPayload, 0, len(payments))
	for _, payment := range payments {
		paymentList = append(paymentList, paymentPayload{
			PaymentID:      payment.PaymentID,
			Type:           payment.Type.String(),
			Amount:         payment.Amount,
			Currency:       payment.Currency,
			GatewayRef:     payment.GatewayRef,
			CreatedUnixUTC: payment.CreatedUnixUTC,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{
		"booking":  mapBookingPayload(record),
		"payments": paymentList,
	})
}

func (handler *httpHandler) handleCancelBooking(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request cancelBookingPayload
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}

	result, err := handler.bookings.CancelBooking(ctx.Request.Context(), claims.GetUserID(), booking.CancelBookingRequest{
		BookingID: ctx.Param("id"),
		Reason:    request.Reason,
	})
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"booking_id":    result.BookingID,
		"refunded":      result.Refunded,
		"refund_failed": result.RefundFailed,
	})
}

func (handler *httpHandler) handleSubmitReview(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var request submitReviewPayload
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}

	review, err := handler.bookings.SubmitReview(ctx.Request.Context(), claims.GetUserID(), booking.SubmitReviewRequest{
		BookingID: request.BookingID,
		Rating:    request.Rating,
		Comment:   request.Comment,
	})
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"review": reviewPayload{
			ReviewID:       review.ReviewID,
			BookingID:      review.BookingID,
			InstructorID:   review.InstructorID,
			Rating:         review.Rating,
			Comment:        review.Comment,
			CreatedUnixUTC: review.CreatedUnixUTC,
		},
	})
}

func (handler *httpHandler) handleListInstructors(ctx *gin.Context) {
	var instructors []booking.Instructor
	var err error
	if ctx.Query("featured") == "true" {
		instructors, err = handler.directory.ListFeaturedInstructors(ctx.Request.Context(), featuredInstructorLimit)
	} else {
		instructors, err = handler.directory.ListInstructors(ctx.Request.Context(), ctx.Query("sport"), ctx.Query("resort"))
	}
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	listed := make([]instructorPayload, 0, len(instructors))
	for _, instructor := range instructors {
		listed = append(listed, mapInstructorPayload(instructor))
	}
	ctx.JSON(http.StatusOK, gin.H{"instructors": listed})
}

func (handler *httpHandler) handleGetInstructor(ctx *gin.Context) {
	instructor, err := handler.directory.GetInstructorBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	today := time.Now().UTC().Format("2006-01-02")
	slots, err := handler.directory.ListOpenSlots(ctx.Request.Context(), instructor.InstructorID, today)
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"instructor": mapInstructorPayload(instructor),
		"slots":      mapSlotPayloads(slots),
	})
}

func (handler *httpHandler) handleInstructorAvailability(ctx *gin.Context) {
	instructor, err := handler.directory.GetInstructorBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	today := time.Now().UTC().Format("2006-01-02")
	slots, err := handler.directory.ListOpenSlots(ctx.Request.Context(), instructor.InstructorID, today)
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"slots": mapSlotPayloads(slots)})
}

func (handler *httpHandler) handleInstructorReviews(ctx *gin.Context) {
	instructor, err := handler.directory.GetInstructorBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	reviews, err := handler.directory.ListInstructorReviews(ctx.Request.Context(), instructor.InstructorID, instructorReviewLimit)
	if err != nil {
		handler.respondDomainError(ctx, err)
		return
	}
	listed := make([]reviewPayload, 0, len(reviews))
	for _, review := range reviews {
		listed = append(listed, reviewPayload{
			ReviewID:       review.ReviewID,
			BookingID:      review.BookingID,
			InstructorID:   review.InstructorID,
			Rating:         review.Rating,
			Comment:        review.Comment,
			CreatedUnixUTC: review.CreatedUnixUTC,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"reviews": listed})
}

func (handler *httpHandler) handleListResorts(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"resorts": catalog.ListResorts()})
}

func (handler *httpHandler) handleGetResort(ctx *gin.Context) {
	resort, found := catalog.GetResortBySlug(ctx.Param("slug"))
	if !found {
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", "resort not found"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"resort": resort})
}

// handleStripeWebhook acknowledges every delivery that carries a valid
// signature. Processing failures are logged server-side; returning non-2xx
// would only trigger redelivery of an event already recorded as seen.
func (handler *httpHandler) handleStripeWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, webhookBodyLimit))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "unreadable body"))
		return
	}

	event, err := handler.webhooks.VerifyAndParse(payload, ctx.GetHeader("Stripe-Signature"))
	if err != nil {
		handler.logger.Warn("webhook signature rejected", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_signature", "signature verification failed"))
		return
	}

	if err := handler.reconciler.Process(ctx.Request.Context(), event); err != nil {
		handler.logger.Error("webhook reconcile failed",
			zap.String("event_id", event.EventID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
	ctx.JSON(http.StatusOK, gin.H{"received": true})
}

func (handler *httpHandler) respondDomainError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", clientMessage(err)))
	case errors.Is(err, booking.ErrNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", "resource not found"))
	case errors.Is(err, booking.ErrSlotUnavailable):
		ctx.JSON(http.StatusConflict, errorResponse("slot_unavailable", "This slot is no longer available"))
	case errors.Is(err, booking.ErrSlotMismatch):
		ctx.JSON(http.StatusConflict, errorResponse("slot_mismatch", "Slot does not belong to this instructor"))
	case errors.Is(err, booking.ErrDuplicateReview):
		ctx.JSON(http.StatusConflict, errorResponse("duplicate_review", clientMessage(err)))
	case errors.Is(err, booking.ErrInvalidState):
		ctx.JSON(http.StatusConflict, errorResponse("invalid_state", clientMessage(err)))
	case errors.Is(err, booking.ErrExternalService):
		handler.logger.Error("payment processor call failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse("payment_error", "payment processor unavailable"))
	default:
		handler.logger.Error("request failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "internal error"))
	}
}

// clientMessage extracts the human-readable tail of a wrapped domain error.
func clientMessage(err error) string {
	message := err.Error()
	if idx := strings.LastIndex(message, ": "); idx >= 0 {
		return message[idx+2:]
	}
	return message
}

type createBookingPayload struct {
	SlotID       string `json:"slot_id"`
	InstructorID string `json:"instructor_id"`
	Notes        string `json:"notes"`
}

type cancelBookingPayload struct {
	Reason string `json:"reason"`
}

type submitReviewPayload struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type bookingPayload struct {
	BookingID          string `json:"booking_id"`
	InstructorID       string `json:"instructor_id"`
	SlotID             string `json:"slot_id"`
	ResortSlug         string `json:"resort_slug"`
	Date               string `json:"date"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	Status             string `json:"status"`
	TotalAmount        int64  `json:"total_amount"`
	DepositAmount      int64  `json:"deposit_amount"`
	PlatformFee        int64  `json:"platform_fee"`
	Currency           string `json:"currency"`
	CheckoutSessionID  string `json:"checkout_session_id,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CreatedUnixUTC     int64  `json:"created_unix_utc"`
}

type paymentPayload struct {
	PaymentID      string `json:"payment_id"`
	Type           string `json:"type"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	GatewayRef     string `json:"gateway_ref"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

type reviewPayload struct {
	ReviewID       string `json:"review_id"`
	BookingID      string `json:"booking_id"`
	InstructorID   string `json:"instructor_id"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment,omitempty"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

type slotPayload struct {
	SlotID     string `json:"slot_id"`
	ResortSlug string `json:"resort_slug"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type instructorPayload struct {
	InstructorID    string   `json:"instructor_id"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	PhotoURL        string   `json:"photo_url,omitempty"`
	Headline        string   `json:"headline,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	Sport           string   `json:"sport"`
	Specialties     []string `json:"specialties"`
	Levels          []string `json:"levels"`
	Languages       []string `json:"languages"`
	Resorts         []string `json:"resorts"`
	PricePerHour    int64    `json:"price_per_hour"`
	Currency        string   `json:"currency"`
	ExperienceYears int      `json:"experience_years"`
	Certifications  []string `json:"certifications,omitempty"`
	Featured        bool     `json:"featured"`
	RatingAvg       float64  `json:"rating_avg"`
	RatingCount     int      `json:"rating_count"`
}

func mapSlotPayloads(slots []booking.Slot) []slotPayload {
	listed := make([]slotPayload, 0, len(slots))
	for _, slot := range slots {
		listed = append(listed, slotPayload{
			SlotID:     slot.SlotID,
			ResortSlug: slot.ResortSlug,
			Date:       slot.Date,
			StartTime:  slot.StartTime.String(),
			EndTime:    slot.EndTime.String(),
		})
	}
	return listed
}

func mapBookingPayload(record booking.Booking) bookingPayload {
	return bookingPayload{
		BookingID:          record.BookingID,
		InstructorID:       record.InstructorID,
		SlotID:             record.SlotID,
		ResortSlug:         record.ResortSlug,
		Date:               record.Date,
		StartTime:          record.StartTime.String(),
		EndTime:            record.EndTime.String(),
		Status:             record.Status.String(),
		TotalAmount:        record.TotalAmount,
		DepositAmount:      record.DepositAmount,
		PlatformFee:        record.PlatformFee,
		Currency:           record.Currency,
		CheckoutSessionID:  record.CheckoutSessionID,
		CancellationReason: record.CancellationReason,
		Notes:              record.Notes,
		CreatedUnixUTC:     record.CreatedUnixUTC,
	}
}

func mapInstructorPayload(instructor booking.Instructor) instructorPayload {
	return instructorPayload{
		InstructorID:    instructor.InstructorID,
		Name:            instructor.Name,
		Slug:            instructor.Slug,
		PhotoURL:        instructor.PhotoURL,
		Headline:        instructor.Headline,
		Bio:             instructor.Bio,
		Sport:           instructor.Sport,
		Specialties:     instructor.Specialties,
		Levels:          instructor.Levels,
		Languages:       instructor.Languages,
		Resorts:         instructor.Resorts,
		PricePerHour:    instructor.PricePerHour,
		Currency:        instructor.Currency,
		ExperienceYears: instructor.ExperienceYears,
		Certifications:  instructor.Certifications,
		Featured:        instructor.Featured,
		RatingAvg:       instructor.RatingAvg,
		RatingCount:     instructor.RatingCount,
	}
}

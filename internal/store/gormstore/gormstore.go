package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

const (
	constraintPaymentLedgerKey = "uniq_payment_booking_type_ref"
	constraintReviewBookingKey = "uniq_review_booking"
	constraintGatewayEventKey  = "gateway_events_pkey"
	emptyJSONArray             = "[]"
	pgUniqueViolationCode      = "23505"
	sqliteConstraintCode       = 19
	errorOperationStore        = "store"
	errorSubjectSlot           = "slot"
	errorSubjectInstructor     = "instructor"
	errorSubjectBooking        = "booking"
	errorSubjectPayment        = "payment"
	errorSubjectReview         = "review"
	errorSubjectGatewayEvent   = "gateway_event"
	errorCodeClaim             = "claim"
	errorCodeDuplicate         = "duplicate"
	errorCodeGet               = "get"
	errorCodeInsert            = "insert"
	errorCodeInvalid           = "invalid"
	errorCodeList              = "list"
	errorCodeUpdateStatus      = "update_status"
	errorCodeUpdateSession     = "update_session"
)

// Store implements booking.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// ClaimSlot flips is_booked to true only when it is still false. The
// conditional update is what makes concurrent claims lose cleanly.
func (store *Store) ClaimSlot(ctx context.Context, slotID string) (booking.Slot, error) {
	result := store.db.WithContext(ctx).
		Model(&AvailabilitySlot{}).
		Where("slot_id = ? AND is_booked = ?", slotID, false).
		Update("is_booked", true)
	if result.Error != nil {
		return booking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeClaim, result.Error)
	}
	if result.RowsAffected == 0 {
		return booking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeClaim, booking.ErrSlotUnavailable)
	}

	var model AvailabilitySlot
	err := store.db.WithContext(ctx).
		Where("slot_id = ?", slotID).
		Take(&model).Error
	if err != nil {
		return booking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeGet, err)
	}
	slot, err := mapSlot(model)
	if err != nil {
		return booking.Slot{}, wrapStoreError(errorSubjectSlot, errorCodeInvalid, err)
	}
	return slot, nil
}

func (store *Store) GetActiveInstructor(ctx context.Context, instructorID string) (booking.Instructor, error) {
	var model Instructor
	err := store.db.WithContext(ctx).
		Where("instructor_id = ? AND active = ?", instructorID, true).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Instructor{}, wrapStoreError(errorSubjectInstructor, errorCodeGet, booking.ErrNotFound)
		}
		return booking.Instructor{}, wrapStoreError(errorSubjectInstructor, errorCodeGet, err)
	}
	instructor, err := mapInstructor(model)
	if err != nil {
		return booking.Instructor{}, wrapStoreError(errorSubjectInstructor, errorCodeInvalid, err)
	}
	return instructor, nil
}

func (store *Store) InsertBooking(ctx context.Context, record booking.Booking) error {
	model := Booking{
		BookingID:     record.BookingID,
		StudentID:     record.StudentID,
		InstructorID:  record.InstructorID,
		SlotID:        record.SlotID,
		ResortSlug:    record.ResortSlug,
		Date:          record.Date,
		StartTime:     record.StartTime.String(),
		EndTime:       record.EndTime.String(),
		Status:        record.Status.String(),
		TotalAmount:   record.TotalAmount,
		DepositAmount: record.DepositAmount,
		PlatformFee:   record.PlatformFee,
		Currency:      record.Currency,
		Notes:         record.Notes,
		CreatedAt:     time.Unix(record.CreatedUnixUTC, 0).UTC(),
		UpdatedAt:     time.Unix(record.UpdatedUnixUTC, 0).UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetBooking(ctx context.Context, bookingID string) (booking.Booking, error) {
	var model Booking
	err := store.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, booking.ErrNotFound)
		}
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return store.mapBookingModel(model)
}

func (store *Store) GetBookingForStudent(ctx context.Context, bookingID string, studentID string) (booking.Booking, error) {
	var model Booking
	err := store.db.WithContext(ctx).
		Where("booking_id = ? AND student_id = ?", bookingID, studentID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, booking.ErrNotFound)
		}
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return store.mapBookingModel(model)
}

func (store *Store) ListBookingsForStudent(ctx context.Context, studentID string) ([]booking.Booking, error) {
	var rows []Booking
	err := store.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	records := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		record, err := store.mapBookingModel(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (store *Store) SetCheckoutSession(ctx context.Context, bookingID string, sessionID string) error {
	result := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("booking_id = ?", bookingID).
		Updates(map[string]interface{}{
			"checkout_session_id": sessionID,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateSession, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateSession, booking.ErrNotFound)
	}
	return nil
}

// MarkConfirmed is a compare-and-set from pending to confirmed.
func (store *Store) MarkConfirmed(ctx context.Context, bookingID string, paymentIntentID string) error {
	updates := map[string]interface{}{
		"status":     booking.StatusConfirmed.String(),
		"updated_at": time.Now().UTC(),
	}
	if paymentIntentID != "" {
		updates["payment_intent_id"] = paymentIntentID
	}
	result := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("booking_id = ? AND status = ?", bookingID, booking.StatusPending.String()).
		Updates(updates)
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, booking.ErrInvalidState)
	}
	return nil
}

// MarkCancelled is a compare-and-set from a cancellable status to cancelled.
func (store *Store) MarkCancelled(ctx context.Context, bookingID string, reason string, cancelledUnixUTC int64) error {
	cancelledAt := time.Unix(cancelledUnixUTC, 0).UTC()
	result := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("booking_id = ? AND status IN ?", bookingID, []string{
			booking.StatusPending.String(),
			booking.StatusConfirmed.String(),
		}).
		Updates(map[string]interface{}{
			"status":              booking.StatusCancelled.String(),
			"cancellation_reason": reason,
			"cancelled_at":        cancelledAt,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, booking.ErrInvalidState)
	}
	return nil
}

func (store *Store) InsertPayment(ctx context.Context, record booking.Payment) error {
	model := Payment{
		PaymentID:  record.PaymentID,
		BookingID:  record.BookingID,
		Type:       record.Type.String(),
		Amount:     record.Amount,
		Currency:   record.Currency,
		GatewayRef: record.GatewayRef,
		CreatedAt:  time.Unix(record.CreatedUnixUTC, 0).UTC(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintPaymentLedgerKey) {
		return wrapStoreError(errorSubjectPayment, errorCodeDuplicate, booking.ErrDuplicatePayment)
	}
	if err != nil {
		return wrapStoreError(errorSubjectPayment, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) ListPayments(ctx context.Context, bookingID string) ([]booking.Payment, error) {
	var rows []Payment
	err := store.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectPayment, errorCodeList, err)
	}
	records := make([]booking.Payment, 0, len(rows))
	for _, row := range rows {
		records = append(records, booking.Payment{
			PaymentID:      row.PaymentID,
			BookingID:      row.BookingID,
			Type:           booking.PaymentType(row.Type),
			Amount:         row.Amount,
			Currency:       row.Currency,
			GatewayRef:     row.GatewayRef,
			CreatedUnixUTC: row.CreatedAt.Unix(),
		})
	}
	return records, nil
}

func (store *Store) ReviewExists(ctx context.Context, bookingID string) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&Review{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectReview, errorCodeGet, err)
	}
	return count > 0, nil
}

func (store *Store) InsertReview(ctx context.Context, record booking.Review) error {
	model := Review{
		ReviewID:     record.ReviewID,
		BookingID:    record.BookingID,
		StudentID:    record.StudentID,
		InstructorID: record.InstructorID,
		Rating:       record.Rating,
		Comment:      record.Comment,
		CreatedAt:    time.Unix(record.CreatedUnixUTC, 0).UTC(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintReviewBookingKey) {
		return wrapStoreError(errorSubjectReview, errorCodeDuplicate, booking.ErrDuplicateReview)
	}
	if err != nil {
		return wrapStoreError(errorSubjectReview, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) RecordGatewayEvent(ctx context.Context, record booking.GatewayEventRecord) error {
	model := GatewayEvent{
		EventID:    record.EventID,
		Type:       record.Type,
		Payload:    datatypesJSON(record.Payload),
		ReceivedAt: time.Unix(record.ReceivedUnixUTC, 0).UTC(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err, constraintGatewayEventKey) {
		return wrapStoreError(errorSubjectGatewayEvent, errorCodeDuplicate, booking.ErrDuplicateEvent)
	}
	if err != nil {
		return wrapStoreError(errorSubjectGatewayEvent, errorCodeInsert, err)
	}
	return nil
}

// ListActiveInstructors returns active instructors, optionally filtered by
// sport, featured first. The resort filter runs in memory because the resort
// list is stored as a JSON array.
func (store *Store) ListActiveInstructors(ctx context.Context, sport string, resortSlug string) ([]booking.Instructor, error) {
	query := store.db.WithContext(ctx).
		Model(&Instructor{}).
		Where("active = ?", true).
		Order("featured DESC, rating_avg DESC")
	if sport != "" {
		query = query.Where("sport IN ?", []string{sport, "both"})
	}
	var rows []Instructor
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectInstructor, errorCodeList, err)
	}
	records := make([]booking.Instructor, 0, len(rows))
	for _, row := range rows {
		record, err := mapInstructor(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectInstructor, errorCodeInvalid, err)
		}
		if resortSlug != "" && !containsString(record.Resorts, resortSlug) {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// ListFeaturedInstructors returns up to limit active featured instructors,
// highest rated first.
func (store *Store) ListFeaturedInstructors(ctx context.Context, limit int) ([]booking.Instructor, error) {
	query := store.db.WithContext(ctx).
		Model(&Instructor{}).
		Where("active = ? AND featured = ?", true, true).
		Order("rating_avg DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []Instructor
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectInstructor, errorCodeList, err)
	}
	records := make([]booking.Instructor, 0, len(rows))
	for _, row := range rows {
		record, err := mapInstructor(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectInstructor, errorCodeInvalid, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// GetInstructorBySlug returns one active instructor by its public slug.
func (store *Store) GetInstructorBySlug(ctx context.Context, slug string) (booking.Instructor, error) {
	var model Instructor
	err := store.db.WithContext(ctx).
		Where("slug = ? AND active = ?", slug, true).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Instructor{}, wrapStoreError(errorSubjectInstructor, errorCodeGet, booking.ErrNotFound)
		}
		return booking.Instructor{}, wrapStoreError(errorSubjectInstructor, errorCodeGet, err)
	}
	instructor, err := mapInstructor(model)
	if err != nil {
		return booking.Instructor{}, wrapStoreError(errorSubjectInstructor, errorCodeInvalid, err)
	}
	return instructor, nil
}

// ListOpenSlots returns unbooked slots for an instructor on or after fromDate.
func (store *Store) ListOpenSlots(ctx context.Context, instructorID string, fromDate string) ([]booking.Slot, error) {
	var rows []AvailabilitySlot
	err := store.db.WithContext(ctx).
		Where("instructor_id = ? AND is_booked = ? AND date >= ?", instructorID, false, fromDate).
		Order("date ASC, start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectSlot, errorCodeList, err)
	}
	records := make([]booking.Slot, 0, len(rows))
	for _, row := range rows {
		record, err := mapSlot(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectSlot, errorCodeInvalid, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ListReviewsForInstructor returns up to limit reviews for an instructor,
// newest first.
func (store *Store) ListReviewsForInstructor(ctx context.Context, instructorID string, limit int) ([]booking.Review, error) {
	query := store.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []Review
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectReview, errorCodeList, err)
	}
	records := make([]booking.Review, 0, len(rows))
	for _, row := range rows {
		records = append(records, booking.Review{
			ReviewID:       row.ReviewID,
			BookingID:      row.BookingID,
			StudentID:      row.StudentID,
			InstructorID:   row.InstructorID,
			Rating:         row.Rating,
			Comment:        row.Comment,
			CreatedUnixUTC: row.CreatedAt.Unix(),
		})
	}
	return records, nil
}

// UpsertInstructor inserts or refreshes one instructor row, keyed on slug.
// Used by database seeding.
func (store *Store) UpsertInstructor(ctx context.Context, record booking.Instructor) error {
	model := Instructor{
		InstructorID:    record.InstructorID,
		Name:            record.Name,
		Slug:            record.Slug,
		PhotoURL:        record.PhotoURL,
		Headline:        record.Headline,
		Bio:             record.Bio,
		Sport:           record.Sport,
		Specialties:     encodeStrings(record.Specialties),
		Levels:          encodeStrings(record.Levels),
		Languages:       encodeStrings(record.Languages),
		Resorts:         encodeStrings(record.Resorts),
		Certifications:  encodeStrings(record.Certifications),
		PricePerHour:    record.PricePerHour,
		Currency:        record.Currency,
		ExperienceYears: record.ExperienceYears,
		StripeAccountID: record.StripeAccountID,
		StripeOnboarded: record.StripeOnboarded,
		Featured:        record.Featured,
		Active:          record.Active,
		RatingAvg:       record.RatingAvg,
		RatingCount:     record.RatingCount,
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			UpdateAll: true,
		}).
		Create(&model).Error
	if err != nil {
		return wrapStoreError(errorSubjectInstructor, errorCodeInsert, err)
	}
	return nil
}

// InsertSlot inserts one availability slot. Used by database seeding.
func (store *Store) InsertSlot(ctx context.Context, record booking.Slot) error {
	model := AvailabilitySlot{
		SlotID:       record.SlotID,
		InstructorID: record.InstructorID,
		ResortSlug:   record.ResortSlug,
		Date:         record.Date,
		StartTime:    record.StartTime.String(),
		EndTime:      record.EndTime.String(),
		IsBooked:     record.Booked,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectSlot, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) mapBookingModel(model Booking) (booking.Booking, error) {
	record, err := mapBooking(model)
	if err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return record, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func mapSlot(model AvailabilitySlot) (booking.Slot, error) {
	startTime, err := booking.ParseTimeOfDay(model.StartTime)
	if err != nil {
		return booking.Slot{}, err
	}
	endTime, err := booking.ParseTimeOfDay(model.EndTime)
	if err != nil {
		return booking.Slot{}, err
	}
	return booking.Slot{
		SlotID:       model.SlotID,
		InstructorID: model.InstructorID,
		ResortSlug:   model.ResortSlug,
		Date:         model.Date,
		StartTime:    startTime,
		EndTime:      endTime,
		Booked:       model.IsBooked,
	}, nil
}

func mapBooking(model Booking) (booking.Booking, error) {
	startTime, err := booking.ParseTimeOfDay(model.StartTime)
	if err != nil {
		return booking.Booking{}, err
	}
	endTime, err := booking.ParseTimeOfDay(model.EndTime)
	if err != nil {
		return booking.Booking{}, err
	}
	status, err := booking.ParseBookingStatus(model.Status)
	if err != nil {
		return booking.Booking{}, err
	}
	return booking.Booking{
		BookingID:          model.BookingID,
		StudentID:          model.StudentID,
		InstructorID:       model.InstructorID,
		SlotID:             model.SlotID,
		ResortSlug:         model.ResortSlug,
		Date:               model.Date,
		StartTime:          startTime,
		EndTime:            endTime,
		Status:             status,
		TotalAmount:        model.TotalAmount,
		DepositAmount:      model.DepositAmount,
		PlatformFee:        model.PlatformFee,
		Currency:           model.Currency,
		CheckoutSessionID:  model.CheckoutSessionID,
		PaymentIntentID:    model.PaymentIntentID,
		CancelledUnixUTC:   timeOrZero(model.CancelledAt),
		CancellationReason: model.CancellationReason,
		Notes:              model.Notes,
		CreatedUnixUTC:     model.CreatedAt.Unix(),
		UpdatedUnixUTC:     model.UpdatedAt.Unix(),
	}, nil
}

func mapInstructor(model Instructor) (booking.Instructor, error) {
	specialties, err := decodeStrings(model.Specialties)
	if err != nil {
		return booking.Instructor{}, err
	}
	levels, err := decodeStrings(model.Levels)
	if err != nil {
		return booking.Instructor{}, err
	}
	languages, err := decodeStrings(model.Languages)
	if err != nil {
		return booking.Instructor{}, err
	}
	resorts, err := decodeStrings(model.Resorts)
	if err != nil {
		return booking.Instructor{}, err
	}
	certifications, err := decodeStrings(model.Certifications)
	if err != nil {
		return booking.Instructor{}, err
	}
	return booking.Instructor{
		InstructorID:    model.InstructorID,
		Name:            model.Name,
		Slug:            model.Slug,
		PhotoURL:        model.PhotoURL,
		Headline:        model.Headline,
		Bio:             model.Bio,
		Sport:           model.Sport,
		Specialties:     specialties,
		Levels:          levels,
		Languages:       languages,
		Resorts:         resorts,
		Certifications:  certifications,
		PricePerHour:    model.PricePerHour,
		Currency:        model.Currency,
		ExperienceYears: model.ExperienceYears,
		StripeAccountID: model.StripeAccountID,
		StripeOnboarded: model.StripeOnboarded,
		Featured:        model.Featured,
		Active:          model.Active,
		RatingAvg:       model.RatingAvg,
		RatingCount:     model.RatingCount,
	}, nil
}

func timeOrZero(value *time.Time) int64 {
	if value == nil {
		return 0
	}
	return value.Unix()
}

func datatypesJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

func encodeStrings(values []string) datatypes.JSON {
	if len(values) == 0 {
		return datatypes.JSON([]byte(emptyJSONArray))
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte(emptyJSONArray))
	}
	return datatypes.JSON(encoded)
}

func decodeStrings(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func containsString(values []string, wanted string) bool {
	for _, value := range values {
		if value == wanted {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintName
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}

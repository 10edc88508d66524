package gormstore

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

func openTestStore(test *testing.T) *Store {
	test.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		test.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&Instructor{},
		&AvailabilitySlot{},
		&Booking{},
		&Payment{},
		&Review{},
		&GatewayEvent{},
	)
	if err != nil {
		test.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func seedTestSlot(test *testing.T, store *Store) booking.Slot {
	test.Helper()
	slot := booking.Slot{
		SlotID:       uuid.NewString(),
		InstructorID: uuid.NewString(),
		ResortSlug:   "tsaghkadzor",
		Date:         "2026-01-15",
		StartTime:    mustParseTime(test, "09:00"),
		EndTime:      mustParseTime(test, "10:00"),
	}
	if err := store.InsertSlot(context.Background(), slot); err != nil {
		test.Fatalf("seed slot: %v", err)
	}
	return slot
}

func seedTestBooking(test *testing.T, store *Store, status booking.BookingStatus) booking.Booking {
	test.Helper()
	record := booking.Booking{
		BookingID:      uuid.NewString(),
		StudentID:      "student-1",
		InstructorID:   uuid.NewString(),
		SlotID:         uuid.NewString(),
		ResortSlug:     "tsaghkadzor",
		Date:           "2026-01-15",
		StartTime:      mustParseTime(test, "09:00"),
		EndTime:        mustParseTime(test, "10:00"),
		Status:         booking.StatusPending,
		TotalAmount:    15000,
		DepositAmount:  3000,
		PlatformFee:    1500,
		Currency:       booking.Currency,
		CreatedUnixUTC: 1760000000,
		UpdatedUnixUTC: 1760000000,
	}
	if err := store.InsertBooking(context.Background(), record); err != nil {
		test.Fatalf("seed booking: %v", err)
	}
	if status != booking.StatusPending {
		err := store.db.Model(&Booking{}).
			Where("booking_id = ?", record.BookingID).
			Update("status", status.String()).Error
		if err != nil {
			test.Fatalf("force status: %v", err)
		}
		record.Status = status
	}
	return record
}

func mustParseTime(test *testing.T, raw string) booking.TimeOfDay {
	test.Helper()
	value, err := booking.ParseTimeOfDay(raw)
	if err != nil {
		test.Fatalf("parse time %q: %v", raw, err)
	}
	return value
}

func TestClaimSlotSecondClaimLoses(test *testing.T) {
	store := openTestStore(test)
	slot := seedTestSlot(test, store)

	claimed, err := store.ClaimSlot(context.Background(), slot.SlotID)
	if err != nil {
		test.Fatalf("first claim: %v", err)
	}
	if !claimed.Booked || claimed.SlotID != slot.SlotID {
		test.Fatalf("unexpected claimed slot: %+v", claimed)
	}

	_, err = store.ClaimSlot(context.Background(), slot.SlotID)
	if !errors.Is(err, booking.ErrSlotUnavailable) {
		test.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestClaimSlotUnknownSlotUnavailable(test *testing.T) {
	store := openTestStore(test)
	_, err := store.ClaimSlot(context.Background(), uuid.NewString())
	if !errors.Is(err, booking.ErrSlotUnavailable) {
		test.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestMarkConfirmedIsCompareAndSet(test *testing.T) {
	store := openTestStore(test)
	record := seedTestBooking(test, store, booking.StatusPending)

	if err := store.MarkConfirmed(context.Background(), record.BookingID, "pi_123"); err != nil {
		test.Fatalf("confirm: %v", err)
	}
	got, err := store.GetBooking(context.Background(), record.BookingID)
	if err != nil {
		test.Fatalf("get: %v", err)
	}
	if got.Status != booking.StatusConfirmed || got.PaymentIntentID != "pi_123" {
		test.Fatalf("unexpected booking after confirm: %+v", got)
	}

	err = store.MarkConfirmed(context.Background(), record.BookingID, "pi_123")
	if !errors.Is(err, booking.ErrInvalidState) {
		test.Fatalf("expected ErrInvalidState on second confirm, got %v", err)
	}
}

func TestMarkCancelledGuardsTerminalStates(test *testing.T) {
	store := openTestStore(test)
	record := seedTestBooking(test, store, booking.StatusCompleted)

	err := store.MarkCancelled(context.Background(), record.BookingID, "too late", 1760000100)
	if !errors.Is(err, booking.ErrInvalidState) {
		test.Fatalf("expected ErrInvalidState, got %v", err)
	}

	cancellable := seedTestBooking(test, store, booking.StatusConfirmed)
	if err := store.MarkCancelled(context.Background(), cancellable.BookingID, "schedule conflict", 1760000100); err != nil {
		test.Fatalf("cancel: %v", err)
	}
	got, err := store.GetBooking(context.Background(), cancellable.BookingID)
	if err != nil {
		test.Fatalf("get: %v", err)
	}
	if got.Status != booking.StatusCancelled || got.CancellationReason != "schedule conflict" {
		test.Fatalf("unexpected booking after cancel: %+v", got)
	}
	if got.CancelledUnixUTC != 1760000100 {
		test.Fatalf("expected cancellation timestamp, got %d", got.CancelledUnixUTC)
	}
}

func TestInsertPaymentDuplicateLedgerRowRejected(test *testing.T) {
	store := openTestStore(test)
	record := seedTestBooking(test, store, booking.StatusConfirmed)

	payment := booking.Payment{
		PaymentID:      uuid.NewString(),
		BookingID:      record.BookingID,
		Type:           booking.PaymentDeposit,
		Amount:         3000,
		Currency:       booking.Currency,
		GatewayRef:     "pi_123",
		CreatedUnixUTC: 1760000000,
	}
	if err := store.InsertPayment(context.Background(), payment); err != nil {
		test.Fatalf("insert: %v", err)
	}

	payment.PaymentID = uuid.NewString()
	err := store.InsertPayment(context.Background(), payment)
	if !errors.Is(err, booking.ErrDuplicatePayment) {
		test.Fatalf("expected ErrDuplicatePayment, got %v", err)
	}

	payment.PaymentID = uuid.NewString()
	payment.Type = booking.PaymentRefund
	payment.GatewayRef = "re_1"
	if err := store.InsertPayment(context.Background(), payment); err != nil {
		test.Fatalf("refund row should not collide with deposit row: %v", err)
	}
}

func TestInsertReviewOnePerBooking(test *testing.T) {
	store := openTestStore(test)
	record := seedTestBooking(test, store, booking.StatusCompleted)

	review := booking.Review{
		ReviewID:       uuid.NewString(),
		BookingID:      record.BookingID,
		StudentID:      record.StudentID,
		InstructorID:   record.InstructorID,
		Rating:         5,
		CreatedUnixUTC: 1760000000,
	}
	if err := store.InsertReview(context.Background(), review); err != nil {
		test.Fatalf("insert: %v", err)
	}

	exists, err := store.ReviewExists(context.Background(), record.BookingID)
	if err != nil || !exists {
		test.Fatalf("expected review to exist, got %v %v", exists, err)
	}

	review.ReviewID = uuid.NewString()
	err = store.InsertReview(context.Background(), review)
	if !errors.Is(err, booking.ErrDuplicateReview) {
		test.Fatalf("expected ErrDuplicateReview, got %v", err)
	}
}

func TestRecordGatewayEventDeduplicates(test *testing.T) {
	store := openTestStore(test)
	record := booking.GatewayEventRecord{
		EventID:         "evt_1",
		Type:            "checkout.session.completed",
		Payload:         []byte(`{"id":"evt_1"}`),
		ReceivedUnixUTC: 1760000000,
	}
	if err := store.RecordGatewayEvent(context.Background(), record); err != nil {
		test.Fatalf("record: %v", err)
	}
	err := store.RecordGatewayEvent(context.Background(), record)
	if !errors.Is(err, booking.ErrDuplicateEvent) {
		test.Fatalf("expected ErrDuplicateEvent, got %v", err)
	}
}

func TestGetBookingForStudentEnforcesOwnership(test *testing.T) {
	store := openTestStore(test)
	record := seedTestBooking(test, store, booking.StatusPending)

	_, err := store.GetBookingForStudent(context.Background(), record.BookingID, "someone-else")
	if !errors.Is(err, booking.ErrNotFound) {
		test.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := store.GetBookingForStudent(context.Background(), record.BookingID, record.StudentID)
	if err != nil {
		test.Fatalf("get: %v", err)
	}
	if got.BookingID != record.BookingID {
		test.Fatalf("unexpected booking %q", got.BookingID)
	}
}

func TestListReviewsForInstructorNewestFirst(test *testing.T) {
	store := openTestStore(test)
	instructorID := uuid.NewString()
	insert := func(rating int, createdUnixUTC int64) {
		review := booking.Review{
			ReviewID:       uuid.NewString(),
			BookingID:      uuid.NewString(),
			StudentID:      "student-1",
			InstructorID:   instructorID,
			Rating:         rating,
			CreatedUnixUTC: createdUnixUTC,
		}
		if err := store.InsertReview(context.Background(), review); err != nil {
			test.Fatalf("seed review: %v", err)
		}
	}
	insert(3, 1760000000)
	insert(5, 1760000200)
	insert(4, 1760000100)

	reviews, err := store.ListReviewsForInstructor(context.Background(), instructorID, 2)
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	if len(reviews) != 2 {
		test.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].Rating != 5 || reviews[1].Rating != 4 {
		test.Fatalf("unexpected ordering: %+v", reviews)
	}
}

func TestListFeaturedInstructorsHighestRatedFirst(test *testing.T) {
	store := openTestStore(test)
	insert := func(slug string, featured bool, ratingAvg float64) {
		instructor := booking.Instructor{
			InstructorID: uuid.NewString(),
			Name:         slug,
			Slug:         slug,
			Sport:        "ski",
			PricePerHour: 12000,
			Currency:     booking.Currency,
			Featured:     featured,
			Active:       true,
			RatingAvg:    ratingAvg,
		}
		if err := store.UpsertInstructor(context.Background(), instructor); err != nil {
			test.Fatalf("seed instructor: %v", err)
		}
	}
	insert("featured-low", true, 4.2)
	insert("featured-high", true, 4.9)
	insert("plain", false, 5.0)

	featured, err := store.ListFeaturedInstructors(context.Background(), 3)
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	if len(featured) != 2 {
		test.Fatalf("expected 2 featured instructors, got %d", len(featured))
	}
	if featured[0].Slug != "featured-high" {
		test.Fatalf("unexpected ordering: %+v", featured)
	}
}

func TestListOpenSlotsSkipsBookedAndPast(test *testing.T) {
	store := openTestStore(test)
	instructorID := uuid.NewString()
	insert := func(date string, start string, booked bool) {
		slot := booking.Slot{
			SlotID:       uuid.NewString(),
			InstructorID: instructorID,
			ResortSlug:   "tsaghkadzor",
			Date:         date,
			StartTime:    mustParseTime(test, start),
			EndTime:      mustParseTime(test, "17:00"),
			Booked:       booked,
		}
		if err := store.InsertSlot(context.Background(), slot); err != nil {
			test.Fatalf("seed slot: %v", err)
		}
	}
	insert("2026-01-05", "09:00", false)
	insert("2026-01-15", "09:00", true)
	insert("2026-01-15", "11:00", false)
	insert("2026-01-16", "09:00", false)

	slots, err := store.ListOpenSlots(context.Background(), instructorID, "2026-01-10")
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	if len(slots) != 2 {
		test.Fatalf("expected 2 open slots, got %d", len(slots))
	}
	if slots[0].Date != "2026-01-15" || slots[0].StartTime.String() != "11:00" {
		test.Fatalf("unexpected first slot: %+v", slots[0])
	}
}

package booking

import (
	"fmt"
	"time"
)

// BookingStatus defines the booking lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
)

// String returns the persisted representation.
func (status BookingStatus) String() string {
	return string(status)
}

// ParseBookingStatus validates a stored status value.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	switch BookingStatus(raw) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return BookingStatus(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// legalTransitions is the full set of permitted status moves.
var legalTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransitionTo reports whether moving to next is a legal lifecycle step.
func (status BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range legalTransitions[status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the status permits student cancellation.
func (status BookingStatus) Cancellable() bool {
	return status == StatusPending || status == StatusConfirmed
}

// PaymentType enumerates ledger row kinds.
type PaymentType string

const (
	PaymentDeposit PaymentType = "deposit"
	PaymentBalance PaymentType = "balance"
	PaymentRefund  PaymentType = "refund"
	PaymentPayout  PaymentType = "payout"
)

// String returns the persisted representation.
func (paymentType PaymentType) String() string {
	return string(paymentType)
}

// Slot is one bookable time window for one instructor at one resort.
type Slot struct {
	SlotID       string
	InstructorID string
	ResortSlug   string
	Date         string
	StartTime    TimeOfDay
	EndTime      TimeOfDay
	Booked       bool
}

// Instructor carries the fields the booking flow and catalog need.
type Instructor struct {
	InstructorID    string
	Name            string
	Slug            string
	PhotoURL        string
	Headline        string
	Bio             string
	Sport           string
	Specialties     []string
	Levels          []string
	Languages       []string
	Resorts         []string
	PricePerHour    int64
	Currency        string
	ExperienceYears int
	Certifications  []string
	StripeAccountID string
	StripeOnboarded bool
	Featured        bool
	Active          bool
	RatingAvg       float64
	RatingCount     int
}

// Booking is the central entity of the reservation lifecycle.
type Booking struct {
	BookingID          string
	StudentID          string
	InstructorID       string
	SlotID             string
	ResortSlug         string
	Date               string
	StartTime          TimeOfDay
	EndTime            TimeOfDay
	Status             BookingStatus
	TotalAmount        int64
	DepositAmount      int64
	PlatformFee        int64
	Currency           string
	CheckoutSessionID  string
	PaymentIntentID    string
	CancelledUnixUTC   int64
	CancellationReason string
	Notes              string
	CreatedUnixUTC     int64
	UpdatedUnixUTC     int64
}

// LessonStart resolves the stored date and start time to a wall-clock instant.
// Dates and times are treated as UTC throughout the service.
func (booking Booking) LessonStart() (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, booking.Date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: booking date %q", ErrInvalidState, booking.Date)
	}
	return day.Add(time.Duration(booking.StartTime.Minutes()) * time.Minute), nil
}

// Payment is one append-only ledger row tied to a booking.
type Payment struct {
	PaymentID      string
	BookingID      string
	Type           PaymentType
	Amount         int64
	Currency       string
	GatewayRef     string
	CreatedUnixUTC int64
}

// Review is the one-time rating tied to a completed booking.
type Review struct {
	ReviewID       string
	BookingID      string
	StudentID      string
	InstructorID   string
	Rating         int
	Comment        string
	CreatedUnixUTC int64
}

package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Instructor represents the instructors table.
type Instructor struct {
	InstructorID    string         `gorm:"type:uuid;primaryKey"`
	Name            string         `gorm:"not null"`
	Slug            string         `gorm:"not null;index:uniq_instructor_slug,unique"`
	PhotoURL        string         `gorm:""`
	Headline        string         `gorm:""`
	Bio             string         `gorm:""`
	Sport           string         `gorm:"not null"`
	Specialties     datatypes.JSON `gorm:"type:jsonb;not null"`
	Levels          datatypes.JSON `gorm:"type:jsonb;not null"`
	Languages       datatypes.JSON `gorm:"type:jsonb;not null"`
	Resorts         datatypes.JSON `gorm:"type:jsonb;not null"`
	Certifications  datatypes.JSON `gorm:"type:jsonb;not null"`
	PricePerHour    int64          `gorm:"not null"`
	Currency        string         `gorm:"not null"`
	ExperienceYears int            `gorm:"not null"`
	StripeAccountID string         `gorm:""`
	StripeOnboarded bool           `gorm:"not null"`
	Featured        bool           `gorm:"not null"`
	Active          bool           `gorm:"not null"`
	RatingAvg       float64        `gorm:"not null"`
	RatingCount     int            `gorm:"not null"`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
}

func (Instructor) TableName() string { return "instructors" }

func (instructor *Instructor) BeforeCreate(tx *gorm.DB) error {
	if instructor.InstructorID == "" {
		instructor.InstructorID = uuid.NewString()
	}
	return nil
}

// AvailabilitySlot mirrors the availability_slots table.
type AvailabilitySlot struct {
	SlotID       string    `gorm:"type:uuid;primaryKey"`
	InstructorID string    `gorm:"type:uuid;not null;index:idx_slots_instructor_date,priority:1"`
	ResortSlug   string    `gorm:"not null"`
	Date         string    `gorm:"not null;index:idx_slots_instructor_date,priority:2"`
	StartTime    string    `gorm:"not null"`
	EndTime      string    `gorm:"not null"`
	IsBooked     bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (AvailabilitySlot) TableName() string { return "availability_slots" }

func (slot *AvailabilitySlot) BeforeCreate(tx *gorm.DB) error {
	if slot.SlotID == "" {
		slot.SlotID = uuid.NewString()
	}
	return nil
}

// Booking mirrors the bookings table.
type Booking struct {
	BookingID          string     `gorm:"type:uuid;primaryKey"`
	StudentID          string     `gorm:"not null;index:idx_bookings_student_created,priority:1"`
	InstructorID       string     `gorm:"type:uuid;not null;index"`
	SlotID             string     `gorm:"type:uuid;not null;index:uniq_booking_slot,unique"`
	ResortSlug         string     `gorm:"not null"`
	Date               string     `gorm:"not null"`
	StartTime          string     `gorm:"not null"`
	EndTime            string     `gorm:"not null"`
	Status             string     `gorm:"not null"`
	TotalAmount        int64      `gorm:"not null"`
	DepositAmount      int64      `gorm:"not null"`
	PlatformFee        int64      `gorm:"not null"`
	Currency           string     `gorm:"not null"`
	CheckoutSessionID  string     `gorm:"index"`
	PaymentIntentID    string     `gorm:""`
	CancelledAt        *time.Time `gorm:""`
	CancellationReason string     `gorm:""`
	Notes              string     `gorm:""`
	CreatedAt          time.Time  `gorm:"not null;index:idx_bookings_student_created,priority:2"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

func (booking *Booking) BeforeCreate(tx *gorm.DB) error {
	if booking.BookingID == "" {
		booking.BookingID = uuid.NewString()
	}
	return nil
}

// Payment mirrors the payments table. The composite unique index makes ledger
// inserts idempotent per booking, type, and processor reference.
type Payment struct {
	PaymentID  string    `gorm:"type:uuid;primaryKey"`
	BookingID  string    `gorm:"type:uuid;not null;index:uniq_payment_booking_type_ref,unique,priority:1"`
	Type       string    `gorm:"not null;index:uniq_payment_booking_type_ref,unique,priority:2"`
	Amount     int64     `gorm:"not null"`
	Currency   string    `gorm:"not null"`
	GatewayRef string    `gorm:"not null;index:uniq_payment_booking_type_ref,unique,priority:3"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

func (payment *Payment) BeforeCreate(tx *gorm.DB) error {
	if payment.PaymentID == "" {
		payment.PaymentID = uuid.NewString()
	}
	return nil
}

// Review mirrors the reviews table. One review per booking.
type Review struct {
	ReviewID     string    `gorm:"type:uuid;primaryKey"`
	BookingID    string    `gorm:"type:uuid;not null;index:uniq_review_booking,unique"`
	StudentID    string    `gorm:"not null"`
	InstructorID string    `gorm:"type:uuid;not null;index"`
	Rating       int       `gorm:"not null"`
	Comment      string    `gorm:""`
	CreatedAt    time.Time `gorm:"not null"`
}

func (Review) TableName() string { return "reviews" }

func (review *Review) BeforeCreate(tx *gorm.DB) error {
	if review.ReviewID == "" {
		review.ReviewID = uuid.NewString()
	}
	return nil
}

// GatewayEvent mirrors the gateway_events table. The processor's event
// identifier is the primary key, which is what deduplicates redeliveries.
type GatewayEvent struct {
	EventID    string         `gorm:"primaryKey"`
	Type       string         `gorm:"not null"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null"`
	ReceivedAt time.Time      `gorm:"not null"`
}

func (GatewayEvent) TableName() string { return "gateway_events" }

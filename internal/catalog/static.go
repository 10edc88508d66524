package catalog

import (
	"context"
	"fmt"

	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

// staticInstructors is the built-in roster used when no database-backed
// directory is available. Identifiers are fixed so links stay stable across
// restarts. None of these profiles are payment-onboarded, so bookings made
// against them confirm directly without a deposit.
var staticInstructors = []booking.Instructor{
	{
		InstructorID:    "5f0a4c86-9d4e-4bbf-8f0e-2a3f8b1c6d01",
		Name:            "Gor Hakobyan",
		Slug:            "gor-hakobyan",
		PhotoURL:        "/instructors/gor.jpg",
		Headline:        "Freestyle and freeride snowboard coach",
		Bio:             "Former competitive snowboarder turned instructor. Gor specializes in freestyle and freeride, taking riders from their first turns to hitting the park. Known for his patient teaching style and infectious enthusiasm.",
		Sport:           "snowboard",
		Specialties:     []string{"Freestyle", "Freeride", "Park riding"},
		Levels:          []string{"beginner", "intermediate", "advanced"},
		Languages:       []string{"Armenian", "English", "Russian"},
		Resorts:         []string{"tsaghkadzor", "myler"},
		PricePerHour:    15000,
		Currency:        booking.Currency,
		ExperienceYears: 8,
		Certifications:  []string{"ISIA Level 2"},
		Featured:        true,
		Active:          true,
	},
	{
		InstructorID:    "7b2c1e94-6f3a-4d2b-9c81-4e5f6a7b8c02",
		Name:            "Anna Sargsyan",
		Slug:            "anna-sargsyan",
		PhotoURL:        "/instructors/anna.jpg",
		Headline:        "Alpine ski instructor for all levels",
		Bio:             "Anna is one of Armenia's few female ski instructors and a passionate advocate for getting more women on the slopes. She teaches all levels with a calm, encouraging approach that makes even the most nervous beginners feel at ease.",
		Sport:           "ski",
		Specialties:     []string{"Alpine skiing", "Women's clinics", "Children's lessons"},
		Levels:          []string{"beginner", "intermediate", "advanced"},
		Languages:       []string{"Armenian", "English", "French"},
		Resorts:         []string{"tsaghkadzor"},
		PricePerHour:    12000,
		Currency:        booking.Currency,
		ExperienceYears: 6,
		Certifications:  []string{"Armenian Ski Federation Level 1"},
		Featured:        true,
		Active:          true,
	},
	{
		InstructorID:    "9d4e2f06-1a5b-4c3d-8e92-6f7a8b9c0d03",
		Name:            "Arman Gevorgyan",
		Slug:            "arman-gevorgyan",
		PhotoURL:        "/instructors/arman.jpg",
		Headline:        "Carving and off-piste specialist at MyLer",
		Bio:             "A MyLer local since the resort opened, Arman knows every run and secret spot on the mountain. He specializes in advanced technique and carving, helping experienced riders reach the next level.",
		Sport:           "both",
		Specialties:     []string{"Carving", "Advanced technique", "Off-piste"},
		Levels:          []string{"intermediate", "advanced", "expert"},
		Languages:       []string{"Armenian", "Russian", "English"},
		Resorts:         []string{"myler"},
		PricePerHour:    18000,
		Currency:        booking.Currency,
		ExperienceYears: 12,
		Certifications:  []string{"ISIA Level 3", "Avalanche Safety"},
		Featured:        true,
		Active:          true,
	},
	{
		InstructorID:    "1e5f3a17-8b6c-4d4e-9fa3-7a8b9c0d1e04",
		Name:            "Tigran Avetisyan",
		Slug:            "tigran-avetisyan",
		PhotoURL:        "/instructors/tigran.jpg",
		Headline:        "Family and children's ski lessons",
		Bio:             "Tigran is the go-to instructor for families and children. With a background in physical education and a natural way with kids, he makes learning to ski feel like a game. Patient, fun, and safety-focused.",
		Sport:           "ski",
		Specialties:     []string{"Children's lessons", "Family groups", "First-timers"},
		Levels:          []string{"beginner", "intermediate"},
		Languages:       []string{"Armenian", "Russian"},
		Resorts:         []string{"tsaghkadzor", "jermuk"},
		PricePerHour:    10000,
		Currency:        booking.Currency,
		ExperienceYears: 10,
		Active:          true,
	},
	{
		InstructorID:    "3a6b4c28-9d7e-4e5f-8ab4-8b9c0d1e2f05",
		Name:            "Lilit Manukyan",
		Slug:            "lilit-manukyan",
		PhotoURL:        "/instructors/lilit.jpg",
		Headline:        "Beginner snowboarding for visitors",
		Bio:             "Lilit fell in love with snowboarding on a trip to Austria and brought her passion back to Armenia. She teaches at both major resorts and is especially popular with tourists thanks to her fluent English and German.",
		Sport:           "snowboard",
		Specialties:     []string{"Beginner snowboarding", "Tourism groups", "Carving"},
		Levels:          []string{"beginner", "intermediate"},
		Languages:       []string{"Armenian", "English", "German", "Russian"},
		Resorts:         []string{"tsaghkadzor", "myler"},
		PricePerHour:    13000,
		Currency:        booking.Currency,
		ExperienceYears: 5,
		Active:          true,
	},
	{
		InstructorID:    "5c7d5e39-0e8f-4f6a-9bc5-9c0d1e2f3a06",
		Name:            "Davit Karapetyan",
		Slug:            "davit-karapetyan",
		PhotoURL:        "/instructors/davit.jpg",
		Headline:        "Race technique and speed coaching",
		Bio:             "Davit is a former Armenian national team member with over 15 years on the slopes. He now channels his competitive experience into coaching advanced skiers who want race-level technique and speed.",
		Sport:           "ski",
		Specialties:     []string{"Race technique", "Speed training", "Moguls"},
		Levels:          []string{"advanced", "expert"},
		Languages:       []string{"Armenian", "English", "Russian"},
		Resorts:         []string{"tsaghkadzor", "myler"},
		PricePerHour:    20000,
		Currency:        booking.Currency,
		ExperienceYears: 15,
		Certifications:  []string{"ISIA Level 3", "FIS Race Coach"},
		Active:          true,
	},
}

// StaticCatalog serves the built-in roster. Availability is not published in
// static mode, so slot listings are empty and bookings require seeded slots.
type StaticCatalog struct{}

// NewStaticCatalog returns the built-in directory.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{}
}

func (catalog *StaticCatalog) ListInstructors(ctx context.Context, sport string, resortSlug string) ([]booking.Instructor, error) {
	var listed []booking.Instructor
	for _, instructor := range staticInstructors {
		if sport != "" && instructor.Sport != sport && instructor.Sport != "both" {
			continue
		}
		if resortSlug != "" && !teachesAt(instructor, resortSlug) {
			continue
		}
		listed = append(listed, instructor)
	}
	return listed, nil
}

func (catalog *StaticCatalog) ListFeaturedInstructors(ctx context.Context, limit int) ([]booking.Instructor, error) {
	var listed []booking.Instructor
	for _, instructor := range staticInstructors {
		if !instructor.Featured {
			continue
		}
		listed = append(listed, instructor)
		if limit > 0 && len(listed) == limit {
			break
		}
	}
	return listed, nil
}

func (catalog *StaticCatalog) GetInstructorBySlug(ctx context.Context, slug string) (booking.Instructor, error) {
	for _, instructor := range staticInstructors {
		if instructor.Slug == slug {
			return instructor, nil
		}
	}
	return booking.Instructor{}, fmt.Errorf("%w: instructor %q", booking.ErrNotFound, slug)
}

func (catalog *StaticCatalog) ListOpenSlots(ctx context.Context, instructorID string, fromDate string) ([]booking.Slot, error) {
	return nil, nil
}

// Reviews live in the database; the static roster publishes none.
func (catalog *StaticCatalog) ListInstructorReviews(ctx context.Context, instructorID string, limit int) ([]booking.Review, error) {
	return nil, nil
}

func teachesAt(instructor booking.Instructor, resortSlug string) bool {
	for _, slug := range instructor.Resorts {
		if slug == resortSlug {
			return true
		}
	}
	return false
}

// StaticInstructors exposes the built-in roster for database seeding.
func StaticInstructors() []booking.Instructor {
	listed := make([]booking.Instructor, len(staticInstructors))
	copy(listed, staticInstructors)
	return listed
}

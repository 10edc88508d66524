package catalog

import (
	"context"

	"github.com/sanatruk/snowpro-armenia/internal/store/gormstore"
	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

// LiveCatalog reads the directory from the database. This is the mode the
// booking flow expects: instructors and their availability live in the same
// store that bookings claim slots against.
type LiveCatalog struct {
	store *gormstore.Store
}

// NewLiveCatalog returns a database-backed directory.
func NewLiveCatalog(store *gormstore.Store) *LiveCatalog {
	return &LiveCatalog{store: store}
}

func (catalog *LiveCatalog) ListInstructors(ctx context.Context, sport string, resortSlug string) ([]booking.Instructor, error) {
	return catalog.store.ListActiveInstructors(ctx, sport, resortSlug)
}

func (catalog *LiveCatalog) GetInstructorBySlug(ctx context.Context, slug string) (booking.Instructor, error) {
	return catalog.store.GetInstructorBySlug(ctx, slug)
}

func (catalog *LiveCatalog) ListFeaturedInstructors(ctx context.Context, limit int) ([]booking.Instructor, error) {
	return catalog.store.ListFeaturedInstructors(ctx, limit)
}

func (catalog *LiveCatalog) ListOpenSlots(ctx context.Context, instructorID string, fromDate string) ([]booking.Slot, error) {
	return catalog.store.ListOpenSlots(ctx, instructorID, fromDate)
}

func (catalog *LiveCatalog) ListInstructorReviews(ctx context.Context, instructorID string, limit int) ([]booking.Review, error) {
	return catalog.store.ListReviewsForInstructor(ctx, instructorID, limit)
}

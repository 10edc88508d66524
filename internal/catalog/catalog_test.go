package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

func TestStaticCatalogFiltersBySport(test *testing.T) {
	test.Parallel()
	catalog := NewStaticCatalog()

	skiers, err := catalog.ListInstructors(context.Background(), "ski", "")
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	for _, instructor := range skiers {
		if instructor.Sport != "ski" && instructor.Sport != "both" {
			test.Fatalf("unexpected sport %q for %s", instructor.Sport, instructor.Slug)
		}
	}
	if len(skiers) != 4 {
		test.Fatalf("expected 4 ski-capable instructors, got %d", len(skiers))
	}
}

func TestStaticCatalogFiltersByResort(test *testing.T) {
	test.Parallel()
	catalog := NewStaticCatalog()

	atJermuk, err := catalog.ListInstructors(context.Background(), "", "jermuk")
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	if len(atJermuk) != 1 || atJermuk[0].Slug != "tigran-avetisyan" {
		test.Fatalf("unexpected jermuk roster: %+v", atJermuk)
	}
}

func TestStaticCatalogFeaturedLimit(test *testing.T) {
	test.Parallel()
	catalog := NewStaticCatalog()

	featured, err := catalog.ListFeaturedInstructors(context.Background(), 2)
	if err != nil {
		test.Fatalf("list featured: %v", err)
	}
	if len(featured) != 2 {
		test.Fatalf("expected 2 featured instructors, got %d", len(featured))
	}
	for _, instructor := range featured {
		if !instructor.Featured {
			test.Fatalf("non-featured instructor %s in featured list", instructor.Slug)
		}
	}
}

func TestStaticCatalogSlugLookup(test *testing.T) {
	test.Parallel()
	catalog := NewStaticCatalog()

	instructor, err := catalog.GetInstructorBySlug(context.Background(), "gor-hakobyan")
	if err != nil {
		test.Fatalf("lookup: %v", err)
	}
	if instructor.PricePerHour != 15000 || instructor.Currency != booking.Currency {
		test.Fatalf("unexpected instructor: %+v", instructor)
	}

	_, err = catalog.GetInstructorBySlug(context.Background(), "nobody")
	if !errors.Is(err, booking.ErrNotFound) {
		test.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStaticInstructorsAreNotOnboarded(test *testing.T) {
	test.Parallel()
	for _, instructor := range StaticInstructors() {
		if instructor.StripeOnboarded || instructor.StripeAccountID != "" {
			test.Fatalf("static profile %s must not be payment-onboarded", instructor.Slug)
		}
		if !instructor.Active {
			test.Fatalf("static profile %s must be active", instructor.Slug)
		}
	}
}

func TestResortLookup(test *testing.T) {
	test.Parallel()
	if len(ListResorts()) != 3 {
		test.Fatalf("expected 3 resorts, got %d", len(ListResorts()))
	}
	resort, found := GetResortBySlug("tsaghkadzor")
	if !found || resort.Lifts != 7 {
		test.Fatalf("unexpected resort: %+v found=%v", resort, found)
	}
	if _, found := GetResortBySlug("everest"); found {
		test.Fatalf("expected unknown slug to miss")
	}
}

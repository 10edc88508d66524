package catalog

import (
	"context"

	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

// Catalog is the read surface for the public instructor directory. The
// booking flow never goes through it; bookings always hit the store.
type Catalog interface {
	ListInstructors(ctx context.Context, sport string, resortSlug string) ([]booking.Instructor, error)
	ListFeaturedInstructors(ctx context.Context, limit int) ([]booking.Instructor, error)
	GetInstructorBySlug(ctx context.Context, slug string) (booking.Instructor, error)
	ListOpenSlots(ctx context.Context, instructorID string, fromDate string) ([]booking.Slot, error)
	ListInstructorReviews(ctx context.Context, instructorID string, limit int) ([]booking.Review, error)
}

// Resort describes one Armenian ski resort. Resorts are editorial content
// and ship with the binary; there is no resorts table.
type Resort struct {
	Slug                string   `json:"slug"`
	Name                string   `json:"name"`
	NameArm             string   `json:"name_arm"`
	Tagline             string   `json:"tagline"`
	Description         string   `json:"description"`
	ElevationBase       int      `json:"elevation_base"`
	ElevationPeak       int      `json:"elevation_peak"`
	VerticalDrop        int      `json:"vertical_drop"`
	Slopes              string   `json:"slopes"`
	Lifts               int      `json:"lifts"`
	Season              string   `json:"season"`
	DistanceFromYerevan string   `json:"distance_from_yerevan"`
	DriveTime           string   `json:"drive_time"`
	Features            []string `json:"features"`
	LiftTicketPrice     string   `json:"lift_ticket_price"`
}

var resorts = []Resort{
	{
		Slug:                "tsaghkadzor",
		Name:                "Tsaghkadzor",
		NameArm:             "Ծաղկաձոր",
		Tagline:             "Armenia's flagship resort: 30km of runs, 50 minutes from Yerevan",
		Description:         "The mountain every Armenian skier knows. Seven lifts serving everything from gentle nursery slopes to steep off-piste, night skiing on weekends, and the best instructor selection of any Armenian resort. Built during the Soviet era as an Olympic training base, with views of Mount Ararat on clear days.",
		ElevationBase:       1966,
		ElevationPeak:       2819,
		VerticalDrop:        853,
		Slopes:              "30km",
		Lifts:               7,
		Season:              "Mid-December to April",
		DistanceFromYerevan: "60km",
		DriveTime:           "~50 min",
		Features: []string{
			"Ski school with 27 instructors",
			"Equipment rental on-site",
			"Night skiing (limited)",
			"Restaurants & cafes",
			"Hotels within walking distance",
			"Olympic training history",
		},
		LiftTicketPrice: "7,000–12,000 AMD",
	},
	{
		Slug:                "myler",
		Name:                "MyLer Mountain Resort",
		NameArm:             "Մայլեռ",
		Tagline:             "Armenia's newest resort: modern lifts, extended season, uncrowded runs",
		Description:         "Built to international standards with snowmaking that keeps runs open into April. Seven high-speed lifts and zero weekend crowds. Opened in 2021 near Aparan, with 10-seater gondolas, an Olympic-size ice rink, and helicopter tours.",
		ElevationBase:       1950,
		ElevationPeak:       2850,
		VerticalDrop:        900,
		Slopes:              "21km",
		Lifts:               7,
		Season:              "December to April (extended with artificial snow)",
		DistanceFromYerevan: "80km",
		DriveTime:           "~1 hr 15 min",
		Features: []string{
			"Artificial snowmaking (full coverage)",
			"10-seater gondolas",
			"Ski school",
			"4 restaurants",
			"Olympic-size ice rink",
			"Tubing zone",
			"Helicopter tours",
		},
		LiftTicketPrice: "15,000 AMD",
	},
	{
		Slug:                "jermuk",
		Name:                "Jermuk",
		NameArm:             "Ջերմուկ",
		Tagline:             "Gentle slopes plus legendary hot springs, ideal for first-timers",
		Description:         "Small, friendly, and zero intimidation factor. Three kilometers of wide-open beginner terrain, then mineral hot springs minutes from the slopes. Ideal for families with kids and adults trying skiing for the first time.",
		ElevationBase:       2100,
		ElevationPeak:       2438,
		VerticalDrop:        338,
		Slopes:              "3km",
		Lifts:               1,
		Season:              "January to March",
		DistanceFromYerevan: "170km",
		DriveTime:           "~2 hr 30 min",
		Features: []string{
			"Beginner-friendly slopes",
			"Mineral hot springs nearby",
			"Family-oriented",
			"Affordable prices",
			"Beautiful spa town",
		},
		LiftTicketPrice: "3,000 AMD",
	},
}

// ListResorts returns all resorts in editorial order.
func ListResorts() []Resort {
	listed := make([]Resort, len(resorts))
	copy(listed, resorts)
	return listed
}

// GetResortBySlug returns one resort by slug.
func GetResortBySlug(slug string) (Resort, bool) {
	for _, resort := range resorts {
		if resort.Slug == slug {
			return resort, true
		}
	}
	return Resort{}, false
}

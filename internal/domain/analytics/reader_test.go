package analytics

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
)

func TestReader(t *testing.T) {
	Convey("Given an uninitialized store", t, func() {
		s := NewStateStore()
		r := NewReader(s)

		Convey("Then every metric reads as zero", func() {
			m := r.ComputedMetrics()
			So(m.AverageRating, ShouldEqual, 0)
			So(m.AverageABV, ShouldEqual, 0)
			So(m.AverageSpending, ShouldEqual, 0)
			So(m.TotalSpent, ShouldEqual, 0)
			So(m.LastUpdated.IsZero(), ShouldBeTrue)
			So(r.RatingDistribution(), ShouldBeEmpty)
			So(r.Invalidated(), ShouldBeEmpty)
		})
	})

	Convey("Given an initialized store", t, func() {
		s := NewStateStore(WithClock(fixedClock()))
		_, err := s.Initialize(context.Background(),
			[]model.TastingRecord{
				{ID: "t1", Rating: 6, ABV: 4, Brand: "Aspall", Sweetness: "dry"},
				{ID: "t2", Rating: 8, ABV: 6, Brand: "Aspall", Sweetness: "sweet"},
			},
			[]model.ExperienceRecord{{ID: "e1", Price: 5, VenueType: "pub"}},
		)
		So(err, ShouldBeNil)
		r := NewReader(s)

		Convey("Then computed metrics come from one snapshot", func() {
			m := r.ComputedMetrics()
			So(m.AverageRating, ShouldEqual, 7)
			So(m.AverageABV, ShouldEqual, 5)
			So(m.AverageSpending, ShouldEqual, 5)
			So(m.TotalTastings, ShouldEqual, 2)
			So(m.TotalExperiences, ShouldEqual, 1)
			So(m.LastUpdated.Equal(fixedClock()()), ShouldBeTrue)
		})

		Convey("Then distributions resolve by name", func() {
			So(r.DistributionByName("brand"), ShouldResemble, map[string]int{"Aspall": 2})
			So(r.DistributionByName("sweetness"), ShouldResemble, map[string]int{"dry": 1, "sweet": 1})
			So(r.DistributionByName("rating"), ShouldResemble, map[string]int{"6": 1, "8": 1})
			So(r.DistributionByName("venueType"), ShouldResemble, map[string]int{"pub": 1})
			So(r.DistributionByName("vintage"), ShouldBeEmpty)
		})

		Convey("Then returned maps are copies", func() {
			d := r.Distribution(DistBrand)
			d["Aspall"] = 99
			delete(r.RatingDistribution(), 6)
			So(r.Distribution(DistBrand)["Aspall"], ShouldEqual, 2)
			So(r.RatingDistribution()[6], ShouldEqual, 1)
		})
	})
}

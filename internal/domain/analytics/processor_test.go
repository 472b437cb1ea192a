package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/validation"
)

func tasting(id string, rating float64) model.TastingRecord {
	return model.TastingRecord{ID: id, Rating: rating, ABV: 5.5, Brand: "Westons"}
}

func newReadyStore(tastings []model.TastingRecord, experiences []model.ExperienceRecord) (*StateStore, *Processor, *Reader) {
	s := NewStateStore()
	if _, err := s.Initialize(context.Background(), tastings, experiences); err != nil {
		panic(err)
	}
	return s, NewProcessor(s), NewReader(s)
}

func TestProcessorRatingScenario(t *testing.T) {
	Convey("Given a store initialized with ratings 5, 7 and 9", t, func() {
		ctx := context.Background()
		r5, r7, r9 := tasting("t5", 5), tasting("t7", 7), tasting("t9", 9)
		_, p, reader := newReadyStore([]model.TastingRecord{r5, r7, r9}, nil)

		So(reader.ComputedMetrics().AverageRating, ShouldEqual, 7.0)

		Convey("When a rating of 8 is added", func() {
			So(p.Process(ctx, model.TastingAdded{Record: tasting("t8", 8)}), ShouldBeNil)
			So(reader.ComputedMetrics().AverageRating, ShouldEqual, 7.25)
			So(reader.Invalidated(), ShouldResemble, []Metric{MetricCollectionGrowth, MetricTrends})

			Convey("And the rating-7 tasting is updated to 9", func() {
				updated := r7
				updated.Rating = 9
				So(p.Process(ctx, model.TastingUpdated{Previous: &r7, Record: updated}), ShouldBeNil)

				So(reader.ComputedMetrics().AverageRating, ShouldEqual, 7.75)
				So(reader.RatingDistribution(), ShouldResemble, map[int]int{5: 1, 8: 1, 9: 2})
				_, hasSeven := reader.RatingDistribution()[7]
				So(hasSeven, ShouldBeFalse)

				Convey("And the rating-5 tasting is deleted", func() {
					So(reader.Distribution(DistRating)["5"], ShouldEqual, 1)
					So(p.Process(ctx, model.TastingDeleted{Previous: &r5}), ShouldBeNil)

					m := reader.ComputedMetrics()
					So(m.TotalTastings, ShouldEqual, 3)
					So(math.Abs(m.AverageRating-26.0/3), ShouldBeLessThan, 1e-9)
					So(reader.RatingDistribution(), ShouldResemble, map[int]int{8: 1, 9: 2})
					So(reader.Invalidated(), ShouldContain, MetricTrends)
					So(reader.Invalidated(), ShouldContain, MetricRatingTrend)
					So(reader.Invalidated(), ShouldContain, MetricComparisons)
				})
			})
		})
	})
}

func TestProcessorTastingUpdate(t *testing.T) {
	Convey("Given one tasting with every attribute set", t, func() {
		ctx := context.Background()
		old := model.TastingRecord{
			ID: "t1", Rating: 6, ABV: 5, Brand: "Aspall", Style: "dry",
			Sweetness: "dry", Carbonation: "still", Clarity: "clear", Color: "gold",
		}
		s, p, reader := newReadyStore([]model.TastingRecord{old}, nil)

		Convey("When only the style changes", func() {
			cur := old
			cur.Style = "farmhouse"
			So(p.Process(ctx, model.TastingUpdated{Previous: &old, Record: cur}), ShouldBeNil)

			Convey("Then only style moves and only comparisons is invalidated", func() {
				So(reader.Distribution(DistStyle), ShouldResemble, map[string]int{"farmhouse": 1})
				So(reader.Distribution(DistBrand), ShouldResemble, map[string]int{"Aspall": 1})
				So(reader.Invalidated(), ShouldResemble, []Metric{MetricComparisons})
				So(s.Totals().SumRatings(), ShouldEqual, 6)
			})
		})

		Convey("When an optional attribute is cleared and the ABV changes", func() {
			cur := old
			cur.Color = ""
			cur.ABV = 7.2
			So(p.Process(ctx, model.TastingUpdated{Previous: &old, Record: cur}), ShouldBeNil)

			Convey("Then the color bucket is removed and the ABV average follows", func() {
				So(reader.Distribution(DistColor), ShouldBeEmpty)
				So(math.Abs(reader.ComputedMetrics().AverageABV-7.2), ShouldBeLessThan, 1e-9)
				So(reader.Invalidated(), ShouldResemble, []Metric{MetricABVTrend, MetricComparisons, MetricTrends})
				So(reader.Invalidated(), ShouldNotContain, MetricRatingTrend)
			})
		})

		Convey("When the update carries no previous state", func() {
			before := s.Totals()
			err := p.Process(ctx, model.TastingUpdated{Record: old})

			Convey("Then it is refused as a contract violation", func() {
				So(errors.Is(err, ErrMissingPrevious), ShouldBeTrue)
				var cerr *ContractError
				So(errors.As(err, &cerr), ShouldBeTrue)
				So(cerr.RecordID, ShouldEqual, "t1")
				So(s.Totals(), ShouldResemble, before)
				So(reader.Invalidated(), ShouldBeEmpty)
			})
		})

		Convey("When the new record is invalid", func() {
			cur := old
			cur.ABV = math.NaN()
			before := s.Totals()
			err := p.Process(ctx, model.TastingUpdated{Previous: &old, Record: cur})

			Convey("Then the event is dropped whole", func() {
				So(errors.Is(err, validation.ErrInvalidRecord), ShouldBeTrue)
				So(s.Totals(), ShouldResemble, before)
				So(reader.Distribution(DistColor), ShouldResemble, map[string]int{"gold": 1})
			})
		})
	})
}

func TestProcessorExperiences(t *testing.T) {
	Convey("Given a store with two experiences", t, func() {
		ctx := context.Background()
		pub := model.ExperienceRecord{ID: "e1", Price: 4.5, VenueType: "pub"}
		shop := model.ExperienceRecord{ID: "e2", Price: 2.25}
		s, p, reader := newReadyStore(nil, []model.ExperienceRecord{pub, shop})

		So(reader.ComputedMetrics().TotalSpent, ShouldEqual, 6.75)
		So(reader.ComputedMetrics().AverageSpending, ShouldEqual, 3.375)

		Convey("When an experience with a venue is added", func() {
			So(p.Process(ctx, model.ExperienceAdded{Record: model.ExperienceRecord{ID: "e3", Price: 3, VenueType: "pub"}}), ShouldBeNil)
			So(reader.DistributionByName("venueType"), ShouldResemble, map[string]int{"pub": 2})
			So(reader.Invalidated(), ShouldResemble, []Metric{MetricSpendingTrend, MetricValueAnalytics, MetricVenueAnalytics})
		})

		Convey("When only the venue changes", func() {
			cur := shop
			cur.VenueType = "festival"
			So(p.Process(ctx, model.ExperienceUpdated{Previous: &shop, Record: cur}), ShouldBeNil)
			So(reader.DistributionByName("venueType"), ShouldResemble, map[string]int{"pub": 1, "festival": 1})
			So(reader.Invalidated(), ShouldResemble, []Metric{MetricVenueAnalytics})
			So(reader.ComputedMetrics().TotalSpent, ShouldEqual, 6.75)
		})

		Convey("When the price moves by one quantum", func() {
			cur := shop
			cur.Price = 2.250001
			So(p.Process(ctx, model.ExperienceUpdated{Previous: &shop, Record: cur}), ShouldBeNil)
			So(reader.Invalidated(), ShouldResemble, []Metric{MetricSpendingTrend, MetricValueAnalytics})
			So(math.Abs(reader.ComputedMetrics().TotalSpent-(6.75+model.Quantum)), ShouldBeLessThan, 1e-12)
		})

		Convey("When the new price is finer than the quantum", func() {
			before := s.Totals()
			cur := shop
			cur.Price = 2.2500004
			err := p.Process(ctx, model.ExperienceUpdated{Previous: &shop, Record: cur})
			So(errors.Is(err, validation.ErrInvalidRecord), ShouldBeTrue)
			So(s.Totals(), ShouldResemble, before)
			So(reader.Invalidated(), ShouldBeEmpty)
		})

		Convey("When an experience is deleted", func() {
			So(p.Process(ctx, model.ExperienceDeleted{Previous: &pub}), ShouldBeNil)
			m := reader.ComputedMetrics()
			So(m.TotalExperiences, ShouldEqual, 1)
			So(m.TotalSpent, ShouldEqual, 2.25)
			So(reader.DistributionByName("venueType"), ShouldBeEmpty)
			So(reader.Invalidated(), ShouldResemble, []Metric{MetricSpendingTrend, MetricValueAnalytics, MetricVenueAnalytics})
		})

		Convey("When a delete arrives for a venue that was never counted", func() {
			ghost := model.ExperienceRecord{ID: "e9", Price: 1, VenueType: "vineyard"}
			before := s.Totals()
			err := p.Process(ctx, model.ExperienceDeleted{Previous: &ghost})

			Convey("Then the whole event is refused and totals are unchanged", func() {
				So(errors.Is(err, ErrCorruption), ShouldBeTrue)
				So(s.Totals(), ShouldResemble, before)
				So(s.Totals().TotalExperiences, ShouldEqual, 2)
			})
		})

		Convey("When the store has been reset", func() {
			s.Reset()
			err := p.Process(ctx, model.ExperienceAdded{Record: shop})
			So(err, ShouldEqual, ErrNotInitialized)
		})
	})
}

func TestProcessorCorruptionContainment(t *testing.T) {
	Convey("Given an initialized empty store", t, func() {
		ctx := context.Background()
		s, p, reader := newReadyStore(nil, nil)

		Convey("When a tasting is deleted that was never added", func() {
			ghost := tasting("ghost", 4)
			err := p.Process(ctx, model.TastingDeleted{Previous: &ghost})

			Convey("Then the decrement is refused and nothing changes", func() {
				So(errors.Is(err, ErrCorruption), ShouldBeTrue)
				var cerr *CorruptionError
				So(errors.As(err, &cerr), ShouldBeTrue)
				So(cerr.Target, ShouldEqual, "totalTastings")
				So(s.Totals(), ShouldResemble, RunningTotals{})
				So(reader.RatingDistribution(), ShouldBeEmpty)
				So(reader.Invalidated(), ShouldBeEmpty)
			})
		})

		Convey("When the totals allow a delete but the brand bucket does not", func() {
			So(p.Process(ctx, model.TastingAdded{Record: tasting("t1", 4)}), ShouldBeNil)
			s.Invalidations().Clear()
			other := tasting("t2", 4)
			other.Brand = "Somebody Else"
			before := s.Totals()
			err := p.Process(ctx, model.TastingDeleted{Previous: &other})

			Convey("Then the rating bucket is not touched either", func() {
				So(errors.Is(err, ErrCorruption), ShouldBeTrue)
				So(s.Totals(), ShouldResemble, before)
				So(reader.RatingDistribution(), ShouldResemble, map[int]int{4: 1})
				So(reader.Invalidated(), ShouldBeEmpty)
			})
		})

		Convey("When an unknown event type is processed", func() {
			So(p.Process(ctx, nil), ShouldEqual, ErrUnknownEvent)
		})
	})
}

func TestProcessorAddDeleteIdempotence(t *testing.T) {
	Convey("Given a populated store", t, func() {
		ctx := context.Background()
		s, p, reader := newReadyStore(
			[]model.TastingRecord{
				{ID: "a", Rating: 3, ABV: 4.1, Brand: "A", Style: "dry"},
				{ID: "b", Rating: 8, ABV: 6.3, Brand: "B", Color: "amber"},
			},
			[]model.ExperienceRecord{{ID: "x", Price: 0.1, VenueType: "pub"}},
		)
		totals := s.Totals()
		dists := map[DistributionKind]map[string]int{}
		for _, k := range DistributionKinds() {
			dists[k] = reader.Distribution(k)
		}

		Convey("When a record is added and the identical record deleted", func() {
			rec := model.TastingRecord{ID: "c", Rating: 10, ABV: 0.2, Brand: "C", Style: "dry", Clarity: "hazy"}
			exp := model.ExperienceRecord{ID: "y", Price: 0.2, VenueType: "bar"}
			So(p.Process(ctx, model.TastingAdded{Record: rec}), ShouldBeNil)
			So(p.Process(ctx, model.ExperienceAdded{Record: exp}), ShouldBeNil)
			So(p.Process(ctx, model.TastingDeleted{Previous: &rec}), ShouldBeNil)
			So(p.Process(ctx, model.ExperienceDeleted{Previous: &exp}), ShouldBeNil)

			Convey("Then totals and distributions are restored exactly", func() {
				So(s.Totals(), ShouldResemble, totals)
				for _, k := range DistributionKinds() {
					So(reader.Distribution(k), ShouldResemble, dists[k])
				}
			})
		})
	})
}

// history drives a random CRUD sequence while keeping the canonical dataset.
type history struct {
	rng         *rand.Rand
	tastings    map[string]model.TastingRecord
	experiences map[string]model.ExperienceRecord
	tastingIDs  []string
	expIDs      []string
	seq         int
}

var (
	brands = []string{"Aspall", "Westons", "Thatchers", "Sassy", "Angry Orchard"}
	styles = []string{"", "dry", "medium", "farmhouse", "ice"}
	venues = []string{"", "pub", "bar", "festival", "home"}
)

func (h *history) pick(options []string) string { return options[h.rng.Intn(len(options))] }

func (h *history) newTasting() model.TastingRecord {
	h.seq++
	return model.TastingRecord{
		ID:     fmt.Sprintf("t%d", h.seq),
		Rating: float64(h.rng.Intn(11)),
		ABV:    math.Round(h.rng.Float64()*12e6) / 1e6,
		Brand:  h.pick(brands),
		Style:  h.pick(styles),
		Color:  h.pick(styles),
	}
}

func (h *history) newExperience() model.ExperienceRecord {
	h.seq++
	return model.ExperienceRecord{
		ID:        fmt.Sprintf("e%d", h.seq),
		Price:     math.Round(h.rng.Float64()*20e6) / 1e6,
		VenueType: h.pick(venues),
	}
}

func removeID(ids []string, i int) []string {
	ids[i] = ids[len(ids)-1]
	return ids[:len(ids)-1]
}

func (h *history) next() model.ChangeEvent {
	switch op := h.rng.Intn(6); {
	case op == 1 && len(h.tastingIDs) > 0:
		id := h.tastingIDs[h.rng.Intn(len(h.tastingIDs))]
		old := h.tastings[id]
		cur := h.newTasting()
		cur.ID = id
		h.tastings[id] = cur
		return model.TastingUpdated{Previous: &old, Record: cur}
	case op == 2 && len(h.tastingIDs) > 0:
		i := h.rng.Intn(len(h.tastingIDs))
		old := h.tastings[h.tastingIDs[i]]
		delete(h.tastings, old.ID)
		h.tastingIDs = removeID(h.tastingIDs, i)
		return model.TastingDeleted{Previous: &old}
	case op == 3:
		rec := h.newExperience()
		h.experiences[rec.ID] = rec
		h.expIDs = append(h.expIDs, rec.ID)
		return model.ExperienceAdded{Record: rec}
	case op == 4 && len(h.expIDs) > 0:
		id := h.expIDs[h.rng.Intn(len(h.expIDs))]
		old := h.experiences[id]
		cur := h.newExperience()
		cur.ID = id
		h.experiences[id] = cur
		return model.ExperienceUpdated{Previous: &old, Record: cur}
	case op == 5 && len(h.expIDs) > 0:
		i := h.rng.Intn(len(h.expIDs))
		old := h.experiences[h.expIDs[i]]
		delete(h.experiences, old.ID)
		h.expIDs = removeID(h.expIDs, i)
		return model.ExperienceDeleted{Previous: &old}
	default:
		rec := h.newTasting()
		h.tastings[rec.ID] = rec
		h.tastingIDs = append(h.tastingIDs, rec.ID)
		return model.TastingAdded{Record: rec}
	}
}

func generateHistory(seed int64, n int) ([]model.ChangeEvent, []model.TastingRecord, []model.ExperienceRecord) {
	h := &history{
		rng:         rand.New(rand.NewSource(seed)),
		tastings:    map[string]model.TastingRecord{},
		experiences: map[string]model.ExperienceRecord{},
	}
	events := make([]model.ChangeEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, h.next())
	}
	var ts []model.TastingRecord
	for _, id := range h.tastingIDs {
		ts = append(ts, h.tastings[id])
	}
	var es []model.ExperienceRecord
	for _, id := range h.expIDs {
		es = append(es, h.experiences[id])
	}
	return events, ts, es
}

func TestSpendingOverflowIsRefused(t *testing.T) {
	Convey("Given experiences at the maximum price", t, func() {
		ctx := context.Background()
		maxed := func(n int) []model.ExperienceRecord {
			recs := make([]model.ExperienceRecord, n)
			for i := range recs {
				recs[i] = model.ExperienceRecord{ID: fmt.Sprintf("e%d", i), Price: model.MaxPrice}
			}
			return recs
		}
		// 9223 * 1e9 * 1e6 is just below math.MaxInt64.
		fits := maxed(9223)

		Convey("When initializing with as many as the sum can hold", func() {
			s, p, reader := newReadyStore(nil, fits)

			Convey("Then the total is exact", func() {
				So(reader.ComputedMetrics().TotalSpent, ShouldEqual, 9223*float64(model.MaxPrice))
			})

			Convey("Then one more is refused and the state is unchanged", func() {
				before := s.Totals()
				err := p.Process(ctx, model.ExperienceAdded{Record: model.ExperienceRecord{ID: "over", Price: model.MaxPrice}})
				So(errors.Is(err, ErrCorruption), ShouldBeTrue)
				var oerr *OverflowError
				So(errors.As(err, &oerr), ShouldBeTrue)
				So(oerr.Target, ShouldEqual, "sumSpending")
				So(s.Totals(), ShouldResemble, before)
				So(reader.Invalidated(), ShouldBeEmpty)
			})
		})

		Convey("When initializing with more than the sum can hold", func() {
			s := NewStateStore()
			_, err := s.Initialize(ctx, nil, fits[:10])
			So(err, ShouldBeNil)
			_, err = s.Initialize(ctx, nil, maxed(10_000))

			Convey("Then initialize fails and keeps the previous state", func() {
				So(errors.Is(err, ErrCorruption), ShouldBeTrue)
				So(s.Totals().TotalExperiences, ShouldEqual, 10)
				So(s.Totals().SumSpending(), ShouldEqual, 10*float64(model.MaxPrice))
			})
		})
	})
}

func relDiff(got, want float64) float64 {
	return math.Abs(got-want) / math.Max(1, math.Abs(want))
}

func TestProcessorMatchesFullRescan(t *testing.T) {
	Convey("Given a random history of valid CRUD events", t, func() {
		ctx := context.Background()
		events, finalTastings, finalExperiences := generateHistory(20261019, 3000)

		s, p, reader := newReadyStore(nil, nil)
		for _, ev := range events {
			So(p.Process(ctx, ev), ShouldBeNil)
		}

		Convey("Then the incremental state equals a rebuild from the final dataset", func() {
			rebuilt, _, rebuiltReader := newReadyStore(finalTastings, finalExperiences)
			So(s.Totals(), ShouldResemble, rebuilt.Totals())
			for _, k := range DistributionKinds() {
				So(reader.Distribution(k), ShouldResemble, rebuiltReader.Distribution(k))
			}

			var ratings, abv, spent float64
			for _, rec := range finalTastings {
				ratings += rec.Rating
				abv += rec.ABV
			}
			for _, rec := range finalExperiences {
				spent += rec.Price
			}
			m := reader.ComputedMetrics()
			So(relDiff(m.AverageRating, mean(ratings, len(finalTastings))), ShouldBeLessThan, 1e-9)
			So(relDiff(m.AverageABV, mean(abv, len(finalTastings))), ShouldBeLessThan, 1e-9)
			So(relDiff(m.TotalSpent, spent), ShouldBeLessThan, 1e-9)
		})

		Convey("Then no distribution ever holds a non-positive count", func() {
			for _, k := range DistributionKinds() {
				for _, n := range reader.Distribution(k) {
					So(n, ShouldBeGreaterThan, 0)
				}
			}
		})

		Convey("Then replaying the same sequence yields identical totals", func() {
			again, p2, _ := newReadyStore(nil, nil)
			for _, ev := range events {
				So(p2.Process(ctx, ev), ShouldBeNil)
			}
			So(again.Totals(), ShouldResemble, s.Totals())
		})
	})
}

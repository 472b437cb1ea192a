package analytics

import (
	"math"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
)

// fixedScale is the fixed-point factor for ABV and price sums. Integer sums
// make add-then-remove restore the previous value bit for bit and keep the
// result independent of event order. It matches model.Quantum, so validated
// values convert without loss.
const fixedScale = 1 / model.Quantum

func toFixed(x float64) int64 {
	return int64(math.Round(x * fixedScale))
}

// addOverflows reports whether cur+d leaves the int64 range.
func addOverflows(cur, d int64) bool {
	return (d > 0 && cur > math.MaxInt64-d) || (d < 0 && cur < math.MinInt64-d)
}

func fromFixed(x int64) float64 {
	return float64(x) / fixedScale
}

// RunningTotals are the scalar accumulators behind the averages.
type RunningTotals struct {
	TotalTastings    int
	TotalExperiences int

	sumRatings  int64 // whole rating points
	sumABV      int64 // fixed-point
	sumSpending int64 // fixed-point
}

// SumRatings returns the sum of all counted ratings.
func (t RunningTotals) SumRatings() float64 { return float64(t.sumRatings) }

// SumABV returns the sum of all counted ABV values.
func (t RunningTotals) SumABV() float64 { return fromFixed(t.sumABV) }

// SumSpending returns the sum of all counted prices.
func (t RunningTotals) SumSpending() float64 { return fromFixed(t.sumSpending) }

// totalsDelta is the change one event makes to the running totals.
type totalsDelta struct {
	tastings    int
	experiences int
	ratings     int64
	abv         int64
	spending    int64
}

// check reports the first counter the delta would drive negative and the
// first sum it would push out of range.
func (t RunningTotals) check(d totalsDelta) error {
	if t.TotalTastings+d.tastings < 0 {
		return &CorruptionError{Target: "totalTastings", Current: t.TotalTastings, Delta: d.tastings}
	}
	if t.TotalExperiences+d.experiences < 0 {
		return &CorruptionError{Target: "totalExperiences", Current: t.TotalExperiences, Delta: d.experiences}
	}
	switch {
	case addOverflows(t.sumRatings, d.ratings):
		return &OverflowError{Target: "sumRatings", Current: t.sumRatings, Delta: d.ratings}
	case addOverflows(t.sumABV, d.abv):
		return &OverflowError{Target: "sumABV", Current: t.sumABV, Delta: d.abv}
	case addOverflows(t.sumSpending, d.spending):
		return &OverflowError{Target: "sumSpending", Current: t.sumSpending, Delta: d.spending}
	}
	return nil
}

func (t *RunningTotals) apply(d totalsDelta) {
	t.TotalTastings += d.tastings
	t.TotalExperiences += d.experiences
	t.sumRatings += d.ratings
	t.sumABV += d.abv
	t.sumSpending += d.spending
}

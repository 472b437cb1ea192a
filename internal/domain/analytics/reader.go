package analytics

import "time"

// ComputedMetrics is the O(1) summary read by the UI.
type ComputedMetrics struct {
	AverageRating    float64   `json:"averageRating"`
	AverageABV       float64   `json:"averageAbv"`
	TotalSpent       float64   `json:"totalSpent"`
	AverageSpending  float64   `json:"averageSpending"`
	TotalTastings    int       `json:"totalTastings"`
	TotalExperiences int       `json:"totalExperiences"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// Reader exposes read-only projections of a StateStore.
type Reader struct {
	store *StateStore
}

// NewReader returns a Reader over store.
func NewReader(store *StateStore) *Reader {
	return &Reader{store: store}
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ComputedMetrics returns averages and totals from one consistent snapshot.
func (r *Reader) ComputedMetrics() ComputedMetrics {
	var out ComputedMetrics
	r.store.read(func(t RunningTotals, _ *DistributionStore, lastUpdated time.Time) {
		out = ComputedMetrics{
			AverageRating:    mean(t.SumRatings(), t.TotalTastings),
			AverageABV:       mean(t.SumABV(), t.TotalTastings),
			TotalSpent:       t.SumSpending(),
			AverageSpending:  mean(t.SumSpending(), t.TotalExperiences),
			TotalTastings:    t.TotalTastings,
			TotalExperiences: t.TotalExperiences,
			LastUpdated:      lastUpdated,
		}
	})
	return out
}

// Distribution returns a copy of one distribution. Rating keys are rendered
// as decimal strings.
func (r *Reader) Distribution(kind DistributionKind) map[string]int {
	var out map[string]int
	r.store.read(func(_ RunningTotals, d *DistributionStore, _ time.Time) {
		out = d.Attribute(kind)
	})
	return out
}

// RatingDistribution returns a copy of the rating distribution with int keys.
func (r *Reader) RatingDistribution() map[int]int {
	var out map[int]int
	r.store.read(func(_ RunningTotals, d *DistributionStore, _ time.Time) {
		out = d.Rating()
	})
	return out
}

// DistributionByName resolves name and returns the distribution. Unknown
// names yield an empty map.
func (r *Reader) DistributionByName(name string) map[string]int {
	kind, ok := ParseDistributionKind(name)
	if !ok {
		return map[string]int{}
	}
	return r.Distribution(kind)
}

// Invalidated returns the metrics awaiting recomputation.
func (r *Reader) Invalidated() []Metric {
	return r.store.invalid.Invalidated()
}

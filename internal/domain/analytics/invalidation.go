package analytics

import (
	"sort"
	"sync"
)

// Metric names a derived metric that is recomputed outside the engine.
type Metric string

// Derived metrics the engine can mark stale.
const (
	MetricTrends           Metric = "trends"
	MetricCollectionGrowth Metric = "collectionGrowth"
	MetricRatingTrend      Metric = "ratingTrend"
	MetricABVTrend         Metric = "abvTrend"
	MetricComparisons      Metric = "comparisons"
	MetricSpendingTrend    Metric = "spendingTrend"
	MetricVenueAnalytics   Metric = "venueAnalytics"
	MetricValueAnalytics   Metric = "valueAnalytics"
)

// tastingMetrics are invalidated wholesale when a tasting is deleted.
var tastingMetrics = []Metric{
	MetricTrends, MetricCollectionGrowth, MetricRatingTrend, MetricABVTrend, MetricComparisons,
}

// experienceMetrics are invalidated wholesale when an experience is deleted.
var experienceMetrics = []Metric{
	MetricSpendingTrend, MetricVenueAnalytics, MetricValueAnalytics,
}

// InvalidationTracker is the set of metrics that must be recomputed.
// Entries stay until the consumer clears them.
type InvalidationTracker struct {
	mu  sync.Mutex
	set map[Metric]struct{}
}

// NewInvalidationTracker returns an empty tracker.
func NewInvalidationTracker() *InvalidationTracker {
	return &InvalidationTracker{set: make(map[Metric]struct{})}
}

// Mark adds metrics to the set.
func (t *InvalidationTracker) Mark(metrics ...Metric) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range metrics {
		t.set[m] = struct{}{}
	}
}

// Invalidated returns the stale metrics, sorted.
func (t *InvalidationTracker) Invalidated() []Metric {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Metric, 0, len(t.set))
	for m := range t.set {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether m is stale.
func (t *InvalidationTracker) Contains(m Metric) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.set[m]
	return ok
}

// Len returns the number of stale metrics.
func (t *InvalidationTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.set)
}

// Acknowledge clears the given metrics after the consumer recomputed them.
func (t *InvalidationTracker) Acknowledge(metrics ...Metric) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range metrics {
		delete(t.set, m)
	}
}

// Clear empties the set.
func (t *InvalidationTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.set)
}

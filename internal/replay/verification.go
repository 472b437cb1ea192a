package replay

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/analytics"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
)

// Expected is the state a full rescan of the canonical records produces.
type Expected struct {
	Metrics       analytics.ComputedMetrics
	Distributions map[string]map[string]int
}

// Rescan computes metrics and distributions from scratch.
func Rescan(tastings []model.TastingRecord, experiences []model.ExperienceRecord) Expected {
	exp := Expected{Distributions: make(map[string]map[string]int)}
	for _, kind := range analytics.DistributionKinds() {
		exp.Distributions[kind.String()] = map[string]int{}
	}
	count := func(kind analytics.DistributionKind, key string) {
		if key != "" {
			exp.Distributions[kind.String()][key]++
		}
	}

	var ratings, abv, spent float64
	for _, t := range tastings {
		ratings += float64(t.RatingKey())
		abv += t.ABV
		count(analytics.DistRating, strconv.Itoa(t.RatingKey()))
		count(analytics.DistBrand, t.Brand)
		count(analytics.DistStyle, t.Style)
		count(analytics.DistSweetness, t.Sweetness)
		count(analytics.DistCarbonation, t.Carbonation)
		count(analytics.DistClarity, t.Clarity)
		count(analytics.DistColor, t.Color)
	}
	for _, e := range experiences {
		spent += e.Price
		count(analytics.DistVenueType, e.VenueType)
	}

	exp.Metrics = analytics.ComputedMetrics{
		TotalTastings:    len(tastings),
		TotalExperiences: len(experiences),
		TotalSpent:       spent,
	}
	if n := len(tastings); n > 0 {
		exp.Metrics.AverageRating = ratings / float64(n)
		exp.Metrics.AverageABV = abv / float64(n)
	}
	if n := len(experiences); n > 0 {
		exp.Metrics.AverageSpending = spent / float64(n)
	}
	return exp
}

func closeEnough(got, want float64) bool {
	return math.Abs(got-want) <= tolerance*math.Max(1, math.Abs(want))
}

// CompareMetrics lists every field where got differs from want.
func CompareMetrics(got, want analytics.ComputedMetrics) []string {
	var diffs []string
	check := func(name string, g, w float64) {
		if !closeEnough(g, w) {
			diffs = append(diffs, fmt.Sprintf("%s: served %.12g, rescan %.12g", name, g, w))
		}
	}
	check("averageRating", got.AverageRating, want.AverageRating)
	check("averageAbv", got.AverageABV, want.AverageABV)
	check("totalSpent", got.TotalSpent, want.TotalSpent)
	check("averageSpending", got.AverageSpending, want.AverageSpending)
	if got.TotalTastings != want.TotalTastings {
		diffs = append(diffs, fmt.Sprintf("totalTastings: served %d, rescan %d", got.TotalTastings, want.TotalTastings))
	}
	if got.TotalExperiences != want.TotalExperiences {
		diffs = append(diffs, fmt.Sprintf("totalExperiences: served %d, rescan %d", got.TotalExperiences, want.TotalExperiences))
	}
	return diffs
}

// CompareDistribution lists every bucket where got differs from want.
func CompareDistribution(name string, got, want map[string]int) []string {
	keys := make(map[string]struct{}, len(got)+len(want))
	for k := range got {
		keys[k] = struct{}{}
	}
	for k := range want {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var diffs []string
	for _, k := range sorted {
		if got[k] != want[k] {
			diffs = append(diffs, fmt.Sprintf("%s[%q]: served %d, rescan %d", name, k, got[k], want[k]))
		}
	}
	return diffs
}

// verify fetches the served state and compares it with exp.
func verify(ctx context.Context, client *Client, exp Expected, stats *Stats) error {
	served, err := client.ComputedMetrics(ctx)
	if err != nil {
		return err
	}
	diffs := CompareMetrics(served, exp.Metrics)

	for _, kind := range analytics.DistributionKinds() {
		name := kind.String()
		got, err := client.Distribution(ctx, name)
		if err != nil {
			return err
		}
		stats.Distributions++
		diffs = append(diffs, CompareDistribution(name, got, exp.Distributions[name])...)
	}

	if len(diffs) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrMismatch, strings.Join(diffs, "\n  "))
	}
	return nil
}

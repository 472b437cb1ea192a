package analytics

import (
	"strconv"
)

// DistributionKind enumerates the tracked categorical attributes.
type DistributionKind uint8

// Tracked distributions. DistRating is keyed by int, the rest by string.
const (
	DistRating DistributionKind = iota
	DistBrand
	DistStyle
	DistSweetness
	DistCarbonation
	DistClarity
	DistColor
	DistVenueType

	distributionKindCount
)

var kindNames = [distributionKindCount]string{
	DistRating:      "rating",
	DistBrand:       "brand",
	DistStyle:       "style",
	DistSweetness:   "sweetness",
	DistCarbonation: "carbonation",
	DistClarity:     "clarity",
	DistColor:       "color",
	DistVenueType:   "venueType",
}

func (k DistributionKind) String() string {
	if k >= distributionKindCount {
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the tracked kinds.
func (k DistributionKind) Valid() bool { return k < distributionKindCount }

// ParseDistributionKind maps a distribution name to its kind.
func ParseDistributionKind(name string) (DistributionKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return DistributionKind(k), true
		}
	}
	return 0, false
}

// DistributionKinds returns every kind in declaration order.
func DistributionKinds() []DistributionKind {
	out := make([]DistributionKind, 0, distributionKindCount)
	for k := DistributionKind(0); k < distributionKindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Category addresses one bucket of one distribution.
type Category struct {
	Kind   DistributionKind
	Rating int    // used when Kind == DistRating
	Value  string // used for every other kind
}

// RatingCategory addresses a rating bucket.
func RatingCategory(rating int) Category {
	return Category{Kind: DistRating, Rating: rating}
}

// AttributeCategory addresses a bucket of a string-keyed distribution.
func AttributeCategory(kind DistributionKind, value string) Category {
	return Category{Kind: kind, Value: value}
}

// Key renders the bucket key as a string.
func (c Category) Key() string {
	if c.Kind == DistRating {
		return strconv.Itoa(c.Rating)
	}
	return c.Value
}

// Distribution is a frequency table. Every present key has a count > 0.
type Distribution[K comparable] struct {
	counts map[K]int
}

func newDistribution[K comparable]() *Distribution[K] {
	return &Distribution[K]{counts: make(map[K]int)}
}

// Count returns the count for k, 0 when absent.
func (d *Distribution[K]) Count(k K) int { return d.counts[k] }

// Len returns the number of distinct keys.
func (d *Distribution[K]) Len() int { return len(d.counts) }

// Increment adds one to k.
func (d *Distribution[K]) Increment(k K) { d.counts[k]++ }

// Decrement removes one from k. It returns false and leaves the table
// unchanged when k is absent.
func (d *Distribution[K]) Decrement(k K) bool {
	return d.add(k, -1)
}

// add moves k by delta, deleting the entry when it reaches zero.
func (d *Distribution[K]) add(k K, delta int) bool {
	next := d.counts[k] + delta
	switch {
	case next < 0:
		return false
	case next == 0:
		delete(d.counts, k)
	default:
		d.counts[k] = next
	}
	return true
}

// Snapshot returns a copy of the table.
func (d *Distribution[K]) Snapshot() map[K]int {
	out := make(map[K]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

// DistributionStore holds one distribution per kind.
// It is not safe for concurrent use; StateStore serializes access.
type DistributionStore struct {
	rating *Distribution[int]
	attrs  [distributionKindCount]*Distribution[string]
}

// NewDistributionStore returns an empty store.
func NewDistributionStore() *DistributionStore {
	s := &DistributionStore{rating: newDistribution[int]()}
	for k := DistBrand; k < distributionKindCount; k++ {
		s.attrs[k] = newDistribution[string]()
	}
	return s
}

// Count returns the count of c.
func (s *DistributionStore) Count(c Category) int {
	switch {
	case c.Kind == DistRating:
		return s.rating.Count(c.Rating)
	case c.Kind.Valid():
		return s.attrs[c.Kind].Count(c.Value)
	default:
		return 0
	}
}

// Increment adds one to c.
func (s *DistributionStore) Increment(c Category) error {
	return s.add(c, 1)
}

// Decrement removes one from c. Decrementing an absent category returns a
// *CorruptionError and leaves the store unchanged.
func (s *DistributionStore) Decrement(c Category) error {
	return s.add(c, -1)
}

func (s *DistributionStore) add(c Category, delta int) error {
	var ok bool
	switch {
	case c.Kind == DistRating:
		ok = s.rating.add(c.Rating, delta)
	case c.Kind.Valid():
		ok = s.attrs[c.Kind].add(c.Value, delta)
	default:
		return ErrUnknownKind
	}
	if !ok {
		return &CorruptionError{Target: c.Kind.String(), Key: c.Key(), Current: s.Count(c), Delta: delta}
	}
	return nil
}

// Rating returns a copy of the rating distribution.
func (s *DistributionStore) Rating() map[int]int {
	return s.rating.Snapshot()
}

// Attribute returns a copy of a string-keyed distribution, or of the rating
// distribution with stringified keys.
func (s *DistributionStore) Attribute(kind DistributionKind) map[string]int {
	switch {
	case kind == DistRating:
		out := make(map[string]int, s.rating.Len())
		for k, v := range s.rating.counts {
			out[strconv.Itoa(k)] = v
		}
		return out
	case kind.Valid():
		return s.attrs[kind].Snapshot()
	default:
		return map[string]int{}
	}
}

// Package model contains domain models passed between layers.
package model

// TastingRecord is one tasting in the canonical collection.
// Optional attributes use the empty string for "not recorded".
type TastingRecord struct {
	ID          string  `json:"id" koanf:"id"`
	Rating      float64 `json:"rating" koanf:"rating" validate:"finite,integral,gte=0,lte=10"`
	ABV         float64 `json:"abv" koanf:"abv" validate:"finite,gte=0,lte=100,quantum"`
	Brand       string  `json:"brand" koanf:"brand" validate:"nonblank"`
	Style       string  `json:"style,omitempty" koanf:"style"`
	Sweetness   string  `json:"sweetness,omitempty" koanf:"sweetness"`
	Carbonation string  `json:"carbonation,omitempty" koanf:"carbonation"`
	Clarity     string  `json:"clarity,omitempty" koanf:"clarity"`
	Color       string  `json:"color,omitempty" koanf:"color"`
}

// RatingKey returns the rating as the integer key used by the rating distribution.
func (t TastingRecord) RatingKey() int {
	return int(t.Rating)
}

// ExperienceRecord is one consumption experience (a purchase or a pour at a venue).
type ExperienceRecord struct {
	ID        string  `json:"id" koanf:"id"`
	TastingID string  `json:"tasting_id,omitempty" koanf:"tasting_id"`
	Price     float64 `json:"price" koanf:"price" validate:"finite,gte=0,lte=1000000000,quantum"`
	VenueType string  `json:"venue_type,omitempty" koanf:"venue_type"`
}

// MaxPrice is the largest price the engine accepts.
const MaxPrice = 1_000_000_000

// Quantum is the finest ABV or price step the engine accepts. Values with
// more precision are rejected rather than rounded.
const Quantum = 1e-6

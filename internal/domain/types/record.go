package types

import (
	"math"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
)

// TastingPayload is a tasting as it arrives on the wire. Numeric fields are
// pointers so an absent value can be told apart from zero.
type TastingPayload struct {
	ID          string   `json:"id" koanf:"id"`
	Rating      *float64 `json:"rating" koanf:"rating"`
	ABV         *float64 `json:"abv" koanf:"abv"`
	Brand       string   `json:"brand" koanf:"brand"`
	Style       string   `json:"style,omitempty" koanf:"style"`
	Sweetness   string   `json:"sweetness,omitempty" koanf:"sweetness"`
	Carbonation string   `json:"carbonation,omitempty" koanf:"carbonation"`
	Clarity     string   `json:"clarity,omitempty" koanf:"clarity"`
	Color       string   `json:"color,omitempty" koanf:"color"`
}

// ExperiencePayload is an experience as it arrives on the wire.
type ExperiencePayload struct {
	ID        string   `json:"id" koanf:"id"`
	TastingID string   `json:"tasting_id,omitempty" koanf:"tasting_id"`
	Price     *float64 `json:"price" koanf:"price"`
	VenueType string   `json:"venue_type,omitempty" koanf:"venue_type"`
}

// orNaN maps a missing number to NaN, which validation rejects as non-finite.
func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Record converts p to a model record. Missing numbers become NaN.
func (p TastingPayload) Record() model.TastingRecord { //nolint:gocritic // payloads are small value types
	return model.TastingRecord{
		ID:          p.ID,
		Rating:      orNaN(p.Rating),
		ABV:         orNaN(p.ABV),
		Brand:       p.Brand,
		Style:       p.Style,
		Sweetness:   p.Sweetness,
		Carbonation: p.Carbonation,
		Clarity:     p.Clarity,
		Color:       p.Color,
	}
}

// Record converts p to a model record. A missing price becomes NaN.
func (p ExperiencePayload) Record() model.ExperienceRecord {
	return model.ExperienceRecord{
		ID:        p.ID,
		TastingID: p.TastingID,
		Price:     orNaN(p.Price),
		VenueType: p.VenueType,
	}
}

// NewTastingPayload is the inverse of TastingPayload.Record.
func NewTastingPayload(rec model.TastingRecord) TastingPayload { //nolint:gocritic // records are small value types
	rating, abv := rec.Rating, rec.ABV
	return TastingPayload{
		ID:          rec.ID,
		Rating:      &rating,
		ABV:         &abv,
		Brand:       rec.Brand,
		Style:       rec.Style,
		Sweetness:   rec.Sweetness,
		Carbonation: rec.Carbonation,
		Clarity:     rec.Clarity,
		Color:       rec.Color,
	}
}

// NewExperiencePayload is the inverse of ExperiencePayload.Record.
func NewExperiencePayload(rec model.ExperienceRecord) ExperiencePayload {
	price := rec.Price
	return ExperiencePayload{ID: rec.ID, TastingID: rec.TastingID, Price: &price, VenueType: rec.VenueType}
}

// TastingRecords converts a batch of payloads.
func TastingRecords(ps []TastingPayload) []model.TastingRecord {
	out := make([]model.TastingRecord, len(ps))
	for i := range ps {
		out[i] = ps[i].Record()
	}
	return out
}

// ExperienceRecords converts a batch of payloads.
func ExperienceRecords(ps []ExperiencePayload) []model.ExperienceRecord {
	out := make([]model.ExperienceRecord, len(ps))
	for i := range ps {
		out[i] = ps[i].Record()
	}
	return out
}

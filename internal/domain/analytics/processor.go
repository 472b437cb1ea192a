package analytics

import (
	"context"
	"errors"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/validation"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// Processor turns change events into state mutations. Each handler is O(1).
type Processor struct {
	store     *StateStore
	validator *validation.Validator
	logger    logger.Logger
}

// NewProcessor creates a Processor applying to store. It shares the store's
// validator and logger.
func NewProcessor(store *StateStore) *Processor {
	return &Processor{
		store:     store,
		validator: store.validator,
		logger:    store.logger,
	}
}

// Process applies ev to the store. On any error the store is unchanged.
func (p *Processor) Process(ctx context.Context, ev model.ChangeEvent) error {
	if p.store.Status() != Ready {
		return ErrNotInitialized
	}

	var err error
	switch e := ev.(type) {
	case model.TastingAdded:
		err = p.tastingAdded(ctx, e)
	case model.TastingUpdated:
		err = p.tastingUpdated(ctx, e)
	case model.TastingDeleted:
		err = p.tastingDeleted(ctx, e)
	case model.ExperienceAdded:
		err = p.experienceAdded(ctx, e)
	case model.ExperienceUpdated:
		err = p.experienceUpdated(ctx, e)
	case model.ExperienceDeleted:
		err = p.experienceDeleted(ctx, e)
	default:
		return ErrUnknownEvent
	}

	if err != nil {
		p.report(ctx, ev, err)
	}
	return err
}

// report logs refusals. Validation failures are already logged by the validator.
func (p *Processor) report(ctx context.Context, ev model.ChangeEvent, err error) {
	switch {
	case errors.Is(err, ErrCorruption):
		p.logger.Error(ctx, "change refused: state corruption",
			logger.String("type", string(ev.Type())),
			logger.String("record_id", ev.RecordID()),
			logger.Error(err),
		)
	case errors.Is(err, ErrMissingPrevious):
		p.logger.Error(ctx, "change refused: missing previous state",
			logger.String("type", string(ev.Type())),
			logger.String("record_id", ev.RecordID()),
		)
	}
}

func (p *Processor) tastingAdded(ctx context.Context, e model.TastingAdded) error {
	if err := p.validator.ValidateTasting(ctx, e.Record); err != nil {
		return err
	}
	m := &mutation{
		totals:     tastingContribution(e.Record, 1),
		invalidate: []Metric{MetricTrends, MetricCollectionGrowth},
	}
	for _, c := range tastingCategories(e.Record) {
		m.move(c, 1)
	}
	return p.store.apply(m)
}

func (p *Processor) tastingUpdated(ctx context.Context, e model.TastingUpdated) error {
	if e.Previous == nil {
		return &ContractError{Type: e.Type(), RecordID: e.RecordID(), Err: ErrMissingPrevious}
	}
	old, cur := *e.Previous, e.Record
	if err := p.validator.ValidateTasting(ctx, old); err != nil {
		return err
	}
	if err := p.validator.ValidateTasting(ctx, cur); err != nil {
		return err
	}

	add, sub := tastingContribution(cur, 1), tastingContribution(old, -1)
	m := &mutation{totals: totalsDelta{
		ratings: add.ratings + sub.ratings,
		abv:     add.abv + sub.abv,
	}}

	if old.RatingKey() != cur.RatingKey() {
		m.move(RatingCategory(old.RatingKey()), -1)
		m.move(RatingCategory(cur.RatingKey()), 1)
		m.invalidate = append(m.invalidate, MetricRatingTrend, MetricTrends)
	}
	if toFixed(old.ABV) != toFixed(cur.ABV) {
		m.invalidate = append(m.invalidate, MetricABVTrend, MetricTrends)
	}

	oldAttrs, curAttrs := tastingAttributes(old), tastingAttributes(cur)
	changed := false
	for k := DistBrand; k <= DistColor; k++ {
		if oldAttrs[k] == curAttrs[k] {
			continue
		}
		changed = true
		if oldAttrs[k] != "" {
			m.move(AttributeCategory(k, oldAttrs[k]), -1)
		}
		if curAttrs[k] != "" {
			m.move(AttributeCategory(k, curAttrs[k]), 1)
		}
	}
	if changed {
		m.invalidate = append(m.invalidate, MetricComparisons)
	}
	return p.store.apply(m)
}

func (p *Processor) tastingDeleted(ctx context.Context, e model.TastingDeleted) error {
	if e.Previous == nil {
		return &ContractError{Type: e.Type(), Err: ErrMissingPrevious}
	}
	old := *e.Previous
	if err := p.validator.ValidateTasting(ctx, old); err != nil {
		return err
	}
	// Deletes mark every tasting metric stale.
	m := &mutation{
		totals:     tastingContribution(old, -1),
		invalidate: tastingMetrics,
	}
	for _, c := range tastingCategories(old) {
		m.move(c, -1)
	}
	return p.store.apply(m)
}

func (p *Processor) experienceAdded(ctx context.Context, e model.ExperienceAdded) error {
	if err := p.validator.ValidateExperience(ctx, e.Record); err != nil {
		return err
	}
	m := &mutation{
		totals:     experienceContribution(e.Record, 1),
		invalidate: []Metric{MetricSpendingTrend, MetricValueAnalytics},
	}
	if e.Record.VenueType != "" {
		m.move(AttributeCategory(DistVenueType, e.Record.VenueType), 1)
		m.invalidate = append(m.invalidate, MetricVenueAnalytics)
	}
	return p.store.apply(m)
}

func (p *Processor) experienceUpdated(ctx context.Context, e model.ExperienceUpdated) error {
	if e.Previous == nil {
		return &ContractError{Type: e.Type(), RecordID: e.RecordID(), Err: ErrMissingPrevious}
	}
	old, cur := *e.Previous, e.Record
	if err := p.validator.ValidateExperience(ctx, old); err != nil {
		return err
	}
	if err := p.validator.ValidateExperience(ctx, cur); err != nil {
		return err
	}

	m := &mutation{totals: totalsDelta{spending: toFixed(cur.Price) - toFixed(old.Price)}}
	if m.totals.spending != 0 {
		m.invalidate = append(m.invalidate, MetricSpendingTrend, MetricValueAnalytics)
	}
	if old.VenueType != cur.VenueType {
		if old.VenueType != "" {
			m.move(AttributeCategory(DistVenueType, old.VenueType), -1)
		}
		if cur.VenueType != "" {
			m.move(AttributeCategory(DistVenueType, cur.VenueType), 1)
		}
		m.invalidate = append(m.invalidate, MetricVenueAnalytics)
	}
	return p.store.apply(m)
}

func (p *Processor) experienceDeleted(ctx context.Context, e model.ExperienceDeleted) error {
	if e.Previous == nil {
		return &ContractError{Type: e.Type(), Err: ErrMissingPrevious}
	}
	old := *e.Previous
	if err := p.validator.ValidateExperience(ctx, old); err != nil {
		return err
	}
	m := &mutation{
		totals:     experienceContribution(old, -1),
		invalidate: experienceMetrics,
	}
	for _, c := range experienceCategories(old) {
		m.move(c, -1)
	}
	return p.store.apply(m)
}

// tastingContribution is what rec adds to the totals, scaled by sign.
func tastingContribution(rec model.TastingRecord, sign int) totalsDelta { //nolint:gocritic // records are small value types
	return totalsDelta{
		tastings: sign,
		ratings:  int64(sign) * int64(rec.RatingKey()),
		abv:      int64(sign) * toFixed(rec.ABV),
	}
}

func experienceContribution(rec model.ExperienceRecord, sign int) totalsDelta {
	return totalsDelta{
		experiences: sign,
		spending:    int64(sign) * toFixed(rec.Price),
	}
}

// tastingAttributes indexes the string attributes of rec by kind.
func tastingAttributes(rec model.TastingRecord) [distributionKindCount]string { //nolint:gocritic // records are small value types
	var a [distributionKindCount]string
	a[DistBrand] = rec.Brand
	a[DistStyle] = rec.Style
	a[DistSweetness] = rec.Sweetness
	a[DistCarbonation] = rec.Carbonation
	a[DistClarity] = rec.Clarity
	a[DistColor] = rec.Color
	return a
}

// tastingCategories lists every bucket rec counts in. Rating and brand are
// always present; the other attributes only when set.
func tastingCategories(rec model.TastingRecord) []Category { //nolint:gocritic // records are small value types
	attrs := tastingAttributes(rec)
	cats := make([]Category, 0, DistColor+1)
	cats = append(cats, RatingCategory(rec.RatingKey()), AttributeCategory(DistBrand, rec.Brand))
	for k := DistStyle; k <= DistColor; k++ {
		if attrs[k] != "" {
			cats = append(cats, AttributeCategory(k, attrs[k]))
		}
	}
	return cats
}

func experienceCategories(rec model.ExperienceRecord) []Category {
	if rec.VenueType == "" {
		return nil
	}
	return []Category{AttributeCategory(DistVenueType, rec.VenueType)}
}

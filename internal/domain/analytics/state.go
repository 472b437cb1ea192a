// Package analytics maintains running aggregates over the cider collection so
// that summary metrics can be read without rescanning the records.
package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/validation"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// cancelCheckEvery bounds how many records Initialize scans between context checks.
const cancelCheckEvery = 1024

// Status is the lifecycle state of a StateStore.
type Status int

// Lifecycle states.
const (
	Uninitialized Status = iota
	Ready
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// InitReport summarizes a full rebuild.
type InitReport struct {
	Tastings           int           `json:"tastings"`
	Experiences        int           `json:"experiences"`
	SkippedTastings    int           `json:"skippedTastings"`
	SkippedExperiences int           `json:"skippedExperiences"`
	Duration           time.Duration `json:"duration"`
	CompletedAt        time.Time     `json:"completedAt"`
}

// StoreOption configures a StateStore.
type StoreOption func(*StateStore)

// WithValidator sets the record validator used by Initialize.
func WithValidator(v *validation.Validator) StoreOption {
	return func(s *StateStore) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithLogger sets the store's logger.
func WithLogger(l logger.Logger) StoreOption {
	return func(s *StateStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *StateStore) {
		if now != nil {
			s.now = now
		}
	}
}

// StateStore is the single owner of totals, distributions and invalidations.
// Every mutation happens under mu, so readers never observe half an event.
type StateStore struct {
	mu          sync.RWMutex
	status      Status
	totals      RunningTotals
	dists       *DistributionStore
	lastUpdated time.Time

	invalid *InvalidationTracker

	validator *validation.Validator
	logger    logger.Logger
	now       func() time.Time
}

// NewStateStore returns an uninitialized store.
func NewStateStore(opts ...StoreOption) *StateStore {
	s := &StateStore{
		dists:   NewDistributionStore(),
		invalid: NewInvalidationTracker(),
		logger:  logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = validation.New(s.logger)
	}
	return s
}

// Initialize rebuilds all state from the canonical dataset. Invalid records
// are skipped and counted. The new state is built aside and swapped in only
// on success; on error the previous state is kept. Pending invalidations
// survive a rebuild; only the consumer or Reset clears them.
func (s *StateStore) Initialize(ctx context.Context, tastings []model.TastingRecord, experiences []model.ExperienceRecord) (InitReport, error) {
	start := s.now()
	var report InitReport
	totals := RunningTotals{}
	dists := NewDistributionStore()

	for i := range tastings {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return InitReport{}, fmt.Errorf("initialize tastings: %w", err)
			}
		}
		rec := tastings[i]
		if err := s.validator.ValidateTasting(ctx, rec); err != nil {
			report.SkippedTastings++
			continue
		}
		d := tastingContribution(rec, 1)
		if err := totals.check(d); err != nil {
			return InitReport{}, fmt.Errorf("initialize tasting %q: %w", rec.ID, err)
		}
		totals.apply(d)
		for _, c := range tastingCategories(rec) {
			_ = dists.Increment(c)
		}
		report.Tastings++
	}

	for i := range experiences {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return InitReport{}, fmt.Errorf("initialize experiences: %w", err)
			}
		}
		rec := experiences[i]
		if err := s.validator.ValidateExperience(ctx, rec); err != nil {
			report.SkippedExperiences++
			continue
		}
		d := experienceContribution(rec, 1)
		if err := totals.check(d); err != nil {
			return InitReport{}, fmt.Errorf("initialize experience %q: %w", rec.ID, err)
		}
		totals.apply(d)
		for _, c := range experienceCategories(rec) {
			_ = dists.Increment(c)
		}
		report.Experiences++
	}

	now := s.now()
	report.Duration = now.Sub(start)
	report.CompletedAt = now

	s.mu.Lock()
	s.totals = totals
	s.dists = dists
	s.status = Ready
	s.lastUpdated = now
	s.mu.Unlock()

	s.logger.Info(ctx, "analytics state initialized",
		logger.Int("tastings", report.Tastings),
		logger.Int("experiences", report.Experiences),
		logger.Int("skipped_tastings", report.SkippedTastings),
		logger.Int("skipped_experiences", report.SkippedExperiences),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

// Reset discards all state. A fresh Initialize is required afterwards.
func (s *StateStore) Reset() {
	s.mu.Lock()
	s.status = Uninitialized
	s.totals = RunningTotals{}
	s.dists = NewDistributionStore()
	s.lastUpdated = time.Time{}
	s.invalid.Clear()
	s.mu.Unlock()
}

// Status returns the lifecycle state.
func (s *StateStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Totals returns a copy of the running totals.
func (s *StateStore) Totals() RunningTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals
}

// LastUpdated returns the time of the last initialize or applied event.
func (s *StateStore) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// Invalidations returns the store's invalidation tracker.
func (s *StateStore) Invalidations() *InvalidationTracker {
	return s.invalid
}

// IncrementDistribution adds one to a category.
func (s *StateStore) IncrementDistribution(c Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Ready {
		return ErrNotInitialized
	}
	return s.dists.Increment(c)
}

// DecrementDistribution removes one from a category. A category that is
// already at zero is left untouched and a *CorruptionError is returned.
func (s *StateStore) DecrementDistribution(c Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Ready {
		return ErrNotInitialized
	}
	return s.dists.Decrement(c)
}

// Count returns the current count of a category.
func (s *StateStore) Count(c Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dists.Count(c)
}

// read runs fn under the read lock.
func (s *StateStore) read(fn func(totals RunningTotals, dists *DistributionStore, lastUpdated time.Time)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.totals, s.dists, s.lastUpdated)
}

// categoryDelta is one net distribution move within a mutation.
type categoryDelta struct {
	category Category
	delta    int
}

// mutation is everything one change event does to the store.
type mutation struct {
	totals     totalsDelta
	categories []categoryDelta
	invalidate []Metric
}

func (m *mutation) move(c Category, delta int) {
	m.categories = append(m.categories, categoryDelta{category: c, delta: delta})
}

// apply checks every decrement in m against current counts and then applies
// all of m, or none of it.
func (s *StateStore) apply(m *mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Ready {
		return ErrNotInitialized
	}
	if err := s.totals.check(m.totals); err != nil {
		return err
	}

	net := make(map[Category]int, len(m.categories))
	order := make([]Category, 0, len(m.categories))
	for _, cd := range m.categories {
		if !cd.category.Kind.Valid() {
			return ErrUnknownKind
		}
		if _, seen := net[cd.category]; !seen {
			order = append(order, cd.category)
		}
		net[cd.category] += cd.delta
	}
	for _, c := range order {
		if cur := s.dists.Count(c); cur+net[c] < 0 {
			return &CorruptionError{Target: c.Kind.String(), Key: c.Key(), Current: cur, Delta: net[c]}
		}
	}

	s.totals.apply(m.totals)
	for _, c := range order {
		if d := net[c]; d != 0 {
			_ = s.dists.add(c, d)
		}
	}
	s.invalid.Mark(m.invalidate...)
	s.lastUpdated = s.now()
	return nil
}

// Package service wires the analytics engine together: validation, state,
// the update queue, its drain loop and deduplication, behind one facade used
// by the HTTP API and the daemon.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/adapters/mq/queue"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/adapters/mq/worker"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/analytics"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/dedupe"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/types"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/validation"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize       = 100_000
	defaultYieldEvery      = 10
	defaultDedupeSize      = 50_000
	defaultDiagnosticsSize = 256
)

// Drop reasons used in metrics and diagnostics.
const (
	reasonValidation     = "validation"
	reasonCorruption     = "corruption"
	reasonContract       = "contract"
	reasonNotInitialized = "not_initialized"
	reasonUnknown        = "unknown"
)

// processorAdapter adapts analytics.Processor to worker.Processor and
// accounts for every applied or dropped event.
type processorAdapter struct {
	svc *Service
}

func (a *processorAdapter) Process(ctx context.Context, env model.Envelope) error { //nolint:gocritic // envelopes are stored by value
	s := a.svc
	start := s.now()
	err := s.processor.Process(ctx, env.Event)
	eventType := eventTypeOf(env.Event)

	if err == nil {
		s.applied.Add(1)
		metrics.RecordEventApplied(eventType, s.now().Sub(start))
		totals := s.store.Totals()
		metrics.UpdateTotals(totals.TotalTastings, totals.TotalExperiences)
		metrics.UpdateInvalidatedMetrics(s.store.Invalidations().Len())
		return nil
	}

	reason := dropReason(err)
	s.dropped.Add(1)
	metrics.RecordEventDropped(eventType, reason)
	metrics.RecordErrorByComponent("processor", reason)
	// A dropped event was never counted, so a corrected retry may reuse its id.
	s.deduper.Unrecord(ctx, env.ID)

	d := types.Diagnostic{
		EventID: env.ID,
		Type:    model.EventType(eventType),
		Reason:  reason,
		Error:   err.Error(),
		At:      s.now(),
	}
	if env.Event != nil {
		d.RecordID = env.Event.RecordID()
	}
	s.diagnostics.add(d)
	return err
}

func eventTypeOf(ev model.ChangeEvent) string {
	if ev == nil {
		return "unknown"
	}
	return string(ev.Type())
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, validation.ErrInvalidRecord):
		return reasonValidation
	case errors.Is(err, analytics.ErrCorruption):
		return reasonCorruption
	case errors.Is(err, analytics.ErrMissingPrevious), errors.Is(err, analytics.ErrUnknownEvent):
		return reasonContract
	case errors.Is(err, analytics.ErrNotInitialized):
		return reasonNotInitialized
	default:
		return reasonUnknown
	}
}

// Service is the analytics engine facade.
type Service struct {
	// lifecycle serializes Initialize and Reset.
	lifecycle sync.Mutex

	store       *analytics.StateStore
	processor   *analytics.Processor
	reader      *analytics.Reader
	queue       *eventqueue.UpdateQueue
	drainer     *worker.Drainer
	deduper     dedupe.Deduper
	diagnostics *diagnosticsRing

	// Configuration
	queueSize       int
	yieldEvery      int
	dedupeSize      int
	diagnosticsSize int

	applied atomic.Int64
	dropped atomic.Int64

	logger logger.Logger
	now    func() time.Time
}

// New constructs a Service with an uninitialized store.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:       defaultQueueSize,
		yieldEvery:      defaultYieldEvery,
		dedupeSize:      defaultDedupeSize,
		diagnosticsSize: defaultDiagnosticsSize,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = analytics.NewStateStore(
		analytics.WithLogger(s.logger.Named("state")),
		analytics.WithValidator(validation.New(s.logger.Named("validation"))),
		analytics.WithClock(s.now),
	)
	s.processor = analytics.NewProcessor(s.store)
	s.reader = analytics.NewReader(s.store)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.diagnostics = newDiagnosticsRing(s.diagnosticsSize)
	s.queue = eventqueue.NewUpdateQueue(eventqueue.WithCapacity(s.queueSize))
	s.drainer = worker.NewDrainer(s.queue, &processorAdapter{svc: s},
		worker.WithYieldEvery(s.yieldEvery),
		worker.WithLogger(s.logger),
	)

	metrics.UpdateReady(false)
	return s
}

// Initialize rebuilds all state from the canonical dataset. It refuses while
// a drain is running, since queued events were computed against the old state.
func (s *Service) Initialize(ctx context.Context, tastings []model.TastingRecord, experiences []model.ExperienceRecord) (analytics.InitReport, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.queue.Busy() {
		return analytics.InitReport{}, ErrDrainActive
	}

	report, err := s.store.Initialize(ctx, tastings, experiences)
	if err != nil {
		metrics.RecordErrorByComponent("service", "initialize")
		return analytics.InitReport{}, fmt.Errorf("initialize: %w", err)
	}
	s.deduper.Reset()

	metrics.RecordInitialize(report.Duration, report.Tastings, report.Experiences,
		report.SkippedTastings, report.SkippedExperiences)
	metrics.UpdateReady(true)
	totals := s.store.Totals()
	metrics.UpdateTotals(totals.TotalTastings, totals.TotalExperiences)
	metrics.UpdateInvalidatedMetrics(s.store.Invalidations().Len())
	return report, nil
}

// Enqueue submits ev for asynchronous application and returns the envelope
// id. An empty eventID gets a generated one; a caller-supplied id that was
// already accepted since the last Initialize is refused with ErrDuplicateEvent.
func (s *Service) Enqueue(ctx context.Context, eventID string, ev model.ChangeEvent) (string, error) {
	if ev == nil {
		return "", ErrNilEvent
	}
	if s.store.Status() != analytics.Ready {
		return "", ErrNotInitialized
	}

	if eventID == "" {
		eventID = uuid.NewString()
	} else if s.deduper.SeenAndRecord(ctx, eventID) {
		metrics.RecordEventDropped(string(ev.Type()), "duplicate")
		s.logger.Debug(ctx, "duplicate event detected, skipping",
			logger.String("event_id", eventID),
			logger.String("record_id", ev.RecordID()),
		)
		return eventID, ErrDuplicateEvent
	}

	env := model.Envelope{ID: eventID, Event: ev, EnqueuedAt: s.now()}
	if err := s.drainer.Enqueue(ctx, env); err != nil {
		s.deduper.Unrecord(ctx, eventID)
		return "", err
	}
	metrics.RecordEventEnqueued(string(ev.Type()))
	return eventID, nil
}

// Wait blocks until the queue is idle or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	return s.queue.Wait(ctx)
}

// ComputedMetrics returns the summary metrics.
func (s *Service) ComputedMetrics() analytics.ComputedMetrics {
	return s.reader.ComputedMetrics()
}

// Distribution returns a copy of one distribution.
func (s *Service) Distribution(kind analytics.DistributionKind) map[string]int {
	return s.reader.Distribution(kind)
}

// DistributionByName returns a copy of the named distribution, or an empty
// map for unknown names.
func (s *Service) DistributionByName(name string) map[string]int {
	return s.reader.DistributionByName(name)
}

// RatingDistribution returns the rating distribution keyed by rating.
func (s *Service) RatingDistribution() map[int]int {
	return s.reader.RatingDistribution()
}

// Invalidated returns the derived metrics awaiting recomputation.
func (s *Service) Invalidated() []analytics.Metric {
	return s.reader.Invalidated()
}

// ClearInvalidated acknowledges the given metrics, or all of them when none
// are named.
func (s *Service) ClearInvalidated(names ...analytics.Metric) {
	tracker := s.store.Invalidations()
	if len(names) == 0 {
		tracker.Clear()
	} else {
		tracker.Acknowledge(names...)
	}
	metrics.UpdateInvalidatedMetrics(tracker.Len())
}

// Reset discards pending events and all state. Initialize must be called
// before new events are accepted.
func (s *Service) Reset(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	discarded := s.queue.Discard()
	s.store.Reset()
	s.deduper.Reset()

	metrics.RecordReset()
	metrics.UpdateReady(false)
	metrics.UpdateTotals(0, 0)
	metrics.UpdateInvalidatedMetrics(0)
	s.logger.Info(ctx, "analytics state reset", logger.Int("discarded", discarded))
}

// Status returns the store lifecycle state.
func (s *Service) Status() analytics.Status {
	return s.store.Status()
}

// Diagnostics returns the most recent dropped events, oldest first.
func (s *Service) Diagnostics() []types.Diagnostic {
	return s.diagnostics.snapshot()
}

// Close stops accepting events and waits for the running drain to finish.
func (s *Service) Close(ctx context.Context) error {
	if err := s.queue.Close(); err != nil {
		return err
	}
	if err := s.queue.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for drain: %w", err)
	}
	s.logger.Info(ctx, "analytics service stopped")
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	totals := s.store.Totals()
	queueLen := s.queue.Len()
	metrics.UpdateQueueLength(queueLen)

	return map[string]interface{}{
		"status":           s.store.Status().String(),
		"queueLength":      queueLen,
		"queueSize":        s.queueSize,
		"draining":         s.queue.Busy(),
		"yieldEvery":       s.yieldEvery,
		"dedupeSize":       s.dedupeSize,
		"dedupeEntries":    s.deduper.Size(),
		"totalTastings":    totals.TotalTastings,
		"totalExperiences": totals.TotalExperiences,
		"invalidated":      s.store.Invalidations().Len(),
		"eventsApplied":    s.applied.Load(),
		"eventsDropped":    s.dropped.Load(),
		"diagnostics":      s.diagnostics.len(),
	}
}

package replay

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// Run resets the service, initializes it with a generated dataset, submits a
// generated history in per-record lanes, drains, and verifies the result.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("replay")
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting replay",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("tastings", cfg.Tastings),
		logger.Int("experiences", cfg.Experiences),
		logger.Int("events", cfg.Events),
		logger.Int("invalid", cfg.Invalid),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", cfg.Seed),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	plan := Generate(cfg)
	stats.EventsGenerated = len(plan.Steps)

	if err := client.Reset(ctx); err != nil {
		return stats, fmt.Errorf("reset failed: %w", err)
	}
	report, err := client.Initialize(ctx, plan.Tastings, plan.Experiences)
	if err != nil {
		return stats, fmt.Errorf("initialize failed: %w", err)
	}
	log.Info(ctx, "service initialized",
		logger.Int("tastings", report.Tastings),
		logger.Int("experiences", report.Experiences),
	)

	droppedBefore, err := droppedCount(ctx, client)
	if err != nil {
		return stats, err
	}

	if err := submit(ctx, client, cfg, plan, stats); err != nil {
		return stats, err
	}

	drainCtx, cancel := context.WithTimeout(ctx, cfg.DrainWait)
	defer cancel()
	if err := client.Drain(drainCtx); err != nil {
		return stats, fmt.Errorf("drain failed: %w", err)
	}

	droppedAfter, err := droppedCount(ctx, client)
	if err != nil {
		return stats, err
	}
	if dropped := droppedAfter - droppedBefore; dropped != int64(cfg.Invalid) {
		return stats, fmt.Errorf("%w: %d events dropped, %d invalid submitted", ErrMismatch, dropped, cfg.Invalid)
	}

	if err := verify(ctx, client, Rescan(plan.FinalTastings, plan.FinalExperiences), stats); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "replay verified",
		logger.Int("generated", stats.EventsGenerated),
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("retried", stats.EventsRetried),
		logger.Int("distributions", stats.Distributions),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func droppedCount(ctx context.Context, client *Client) (int64, error) {
	s, err := client.Stats(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := s["eventsDropped"].(float64)
	return int64(n), nil
}

// lanes splits steps by record so events about one record keep their order.
// The first dupes accepted steps are resubmitted at the end of their lane.
func lanes(steps []Step, workers, dupes int) [][]Step {
	out := make([][]Step, workers)
	var resend []Step
	for _, s := range steps {
		i := laneOf(s, workers)
		out[i] = append(out[i], s)
		if !s.Invalid && len(resend) < dupes {
			resend = append(resend, s)
		}
	}
	for _, s := range resend {
		i := laneOf(s, workers)
		out[i] = append(out[i], s)
	}
	return out
}

func laneOf(s Step, workers int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s.Event.RecordID()))
	return int(h.Sum32() % uint32(workers)) //nolint:gosec // workers is small and positive
}

func submit(ctx context.Context, client *Client, cfg *Config, plan Plan, stats *Stats) error {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var accepted, duplicate, retried, failed int64
	g, gctx := errgroup.WithContext(ctx)
	for _, lane := range lanes(plan.Steps, workers, cfg.Duplicates) {
		g.Go(func() error {
			for _, step := range lane {
				res, tries, err := submitWithRetry(gctx, client, step)
				atomic.AddInt64(&retried, int64(tries))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					return fmt.Errorf("%w: event %s: %w", ErrSubmit, step.ID, err)
				}
				if res == submitDuplicate {
					atomic.AddInt64(&duplicate, 1)
				} else {
					atomic.AddInt64(&accepted, 1)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	stats.EventsAccepted = int(accepted)
	stats.EventsDuplicate = int(duplicate)
	stats.EventsRetried = int(retried)
	stats.EventsFailed = int(failed)
	if err != nil {
		return err
	}
	if stats.EventsDuplicate != cfg.Duplicates {
		return fmt.Errorf("%w: %d duplicates acknowledged, %d resubmitted", ErrMismatch, stats.EventsDuplicate, cfg.Duplicates)
	}
	return nil
}

// submitWithRetry backs off while the service reports a full queue and
// returns how many retries it took.
func submitWithRetry(ctx context.Context, client *Client, step Step) (submitResult, int, error) {
	backoff := backpressureBackoff
	for attempt := 0; ; attempt++ {
		res, code, err := client.Submit(ctx, step)
		if err == nil {
			return res, attempt, nil
		}
		if code != http.StatusTooManyRequests || !errors.Is(err, ErrUnexpectedStatus) || attempt+1 >= maxAttempts {
			return 0, attempt, err
		}
		select {
		case <-ctx.Done():
			return 0, attempt, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

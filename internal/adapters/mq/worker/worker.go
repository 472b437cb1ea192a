package worker

import (
	"context"
	"fmt"
	"runtime"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/metrics"
)

// Default drain configuration constants.
const (
	defaultYieldEvery = 10
)

// Processor applies one envelope. Errors are per-event and never stop a drain.
type Processor interface {
	Process(ctx context.Context, env model.Envelope) error
}

// Queue is what the drainer pulls from. Push reports whether the caller won
// the drain guard; Next returns ok=false once the queue is empty and the
// guard has been released.
type Queue interface {
	Push(env model.Envelope) (bool, error)
	Next() (model.Envelope, bool)
}

// Drainer feeds queued envelopes to a Processor from a single goroutine.
type Drainer struct {
	queue      Queue
	processor  Processor
	name       string
	yieldEvery int
	logger     logger.Logger
}

// NewDrainer creates a drainer over q applying envelopes with p.
func NewDrainer(q Queue, p Processor, opts ...Option) *Drainer {
	d := &Drainer{
		queue:      q,
		processor:  p,
		name:       "drain",
		yieldEvery: defaultYieldEvery,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named(d.name)
	return d
}

// Enqueue pushes env and starts the drain loop if none is running. The loop
// inherits ctx values but not its cancellation: once started, a drain runs
// until the queue is empty.
func (d *Drainer) Enqueue(ctx context.Context, env model.Envelope) error { //nolint:gocritic // envelopes are stored by value
	start, err := d.queue.Push(env)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", env.ID, err)
	}
	if start {
		go d.run(context.WithoutCancel(ctx))
	}
	return nil
}

// run pops until the queue reports empty, yielding every yieldEvery events
// so producers and readers get scheduled during long bursts.
func (d *Drainer) run(ctx context.Context) {
	metrics.RecordDrainStarted()
	processed := 0
	defer func() {
		metrics.RecordDrainFinished(processed)
		d.logger.Debug(ctx, "drain finished", logger.Int("processed", processed))
	}()

	for {
		env, ok := d.queue.Next()
		if !ok {
			return
		}
		d.apply(ctx, env)
		processed++
		if processed%d.yieldEvery == 0 {
			runtime.Gosched()
		}
	}
}

func (d *Drainer) apply(ctx context.Context, env model.Envelope) { //nolint:gocritic // envelopes are stored by value
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			d.logger.Error(ctx, "processor panicked",
				logger.String("event_id", env.ID),
				logger.Any("panic", r),
			)
		}
	}()

	if err := d.processor.Process(ctx, env); err != nil {
		d.logger.Debug(ctx, "event not applied",
			logger.String("event_id", env.ID),
			logger.Error(err),
		)
	}
}

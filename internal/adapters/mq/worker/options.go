// Package worker runs the single drain loop that applies queued change events.
package worker

import (
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// Option applies a configuration option to the Drainer.
type Option func(*Drainer)

// WithName sets the drainer name used in logs.
func WithName(name string) Option {
	return func(d *Drainer) {
		if name != "" {
			d.name = name
		}
	}
}

// WithLogger sets a custom logger for the drainer.
func WithLogger(logger logger.Logger) Option {
	return func(d *Drainer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithYieldEvery sets how many events are applied between scheduler yields.
func WithYieldEvery(n int) Option {
	return func(d *Drainer) {
		if n > 0 {
			d.yieldEvery = n
		}
	}
}

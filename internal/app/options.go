package service

import (
	"time"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize bounds the update queue. Zero means unbounded.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.queueSize = size
		}
	}
}

// WithYieldEvery sets how many events the drain applies between yields.
func WithYieldEvery(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.yieldEvery = n
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDiagnosticsSize sets how many dropped-event diagnostics are retained.
func WithDiagnosticsSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.diagnosticsSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

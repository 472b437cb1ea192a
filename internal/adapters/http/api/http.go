// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/analytics"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/types"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// defaultDrainTimeout bounds POST /drain when no timeout is configured.
const defaultDrainTimeout = 30 * time.Second

// maxBodyBytes caps request bodies; initialize payloads carry whole collections.
const maxBodyBytes = 64 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	Initialize(ctx context.Context, tastings []model.TastingRecord, experiences []model.ExperienceRecord) (analytics.InitReport, error)
	Enqueue(ctx context.Context, eventID string, ev model.ChangeEvent) (string, error)
	Wait(ctx context.Context) error
	Reset(ctx context.Context)

	ComputedMetrics() analytics.ComputedMetrics
	DistributionByName(name string) map[string]int
	Invalidated() []analytics.Metric
	ClearInvalidated(names ...analytics.Metric)
	Diagnostics() []types.Diagnostic
}

// Option configures a Server.
type Option func(*Server)

// WithDrainTimeout bounds how long POST /drain waits.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	deps         Dependencies
	drainTimeout time.Duration
	logger       logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		drainTimeout: defaultDrainTimeout,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.eventsHandler = NewEventsHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/initialize", MetricsMiddleware(s.handleInitialize, "initialize"))
	mux.HandleFunc("/drain", MetricsMiddleware(s.handleDrain, "drain"))
	mux.HandleFunc("/reset", MetricsMiddleware(s.handleReset, "reset"))
	mux.HandleFunc("/metrics/computed", MetricsMiddleware(s.handleComputedMetrics, "metrics_computed"))
	mux.HandleFunc("/distributions/", MetricsMiddleware(s.handleDistribution, "distributions"))
	mux.HandleFunc("/invalidations", MetricsMiddleware(s.handleInvalidations, "invalidations"))
	mux.HandleFunc("/diagnostics", MetricsMiddleware(s.handleDiagnostics, "diagnostics"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

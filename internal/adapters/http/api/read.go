package api

import (
	"net/http"
	"strings"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/analytics"
)

type invalidationsResponse struct {
	Invalidated []analytics.Metric `json:"invalidated"`
}

// handleComputedMetrics handles GET /metrics/computed.
func (s *Server) handleComputedMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.ComputedMetrics())
}

// handleDistribution handles GET /distributions/{name}.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_distribution"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/distributions/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if _, ok := analytics.ParseDistributionKind(name); !ok {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, analytics.ErrUnknownKind))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.DistributionByName(name))
}

// handleInvalidations handles GET /invalidations and
// DELETE /invalidations[?metric=name&metric=...].
func (s *Server) handleInvalidations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, invalidationsResponse{Invalidated: s.deps.Invalidated()})
	case http.MethodDelete:
		names := r.URL.Query()["metric"]
		metrics := make([]analytics.Metric, 0, len(names))
		for _, n := range names {
			metrics = append(metrics, analytics.Metric(n))
		}
		s.deps.ClearInvalidated(metrics...)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

// handleDiagnostics handles GET /diagnostics.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Diagnostics())
}

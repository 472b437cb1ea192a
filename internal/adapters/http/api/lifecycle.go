package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/app"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/analytics"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/types"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// handleInitialize handles POST /initialize with the full canonical dataset.
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	const op = "api.initialize"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.InitializeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := s.deps.Initialize(r.Context(), req.TastingRecords(), req.ExperienceRecords())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, service.ErrDrainActive):
		writeError(w, http.StatusConflict, "drain_active", WrapKind(op, ErrConflict, err))
	case errors.Is(err, analytics.ErrCorruption):
		writeError(w, http.StatusUnprocessableEntity, "overflow", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", Wrap(op, err))
	default:
		s.logger.Error(r.Context(), "initialize failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// handleDrain handles POST /drain: it blocks until the queue is idle.
func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.drain"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.drainTimeout)
	defer cancel()

	if err := s.deps.Wait(ctx); err != nil {
		writeError(w, http.StatusGatewayTimeout, "drain_timeout", WrapKind(op, ErrTimeout, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReset handles POST /reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	s.deps.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

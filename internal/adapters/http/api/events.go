package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/app"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/types"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// EventDependencies defines the interface for event processing dependencies.
type EventDependencies interface {
	Enqueue(ctx context.Context, eventID string, ev model.ChangeEvent) (string, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps   EventDependencies
	logger logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, log logger.Logger) *EventsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &EventsHandler{deps: deps, logger: log}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.EventRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ev, err := req.ChangeEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, err := h.deps.Enqueue(r.Context(), req.ID, ev)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, types.EnqueueResponse{ID: id, Status: "accepted"})
	case errors.Is(err, service.ErrDuplicateEvent):
		writeJSON(w, http.StatusOK, types.EnqueueResponse{ID: id, Status: "duplicate"})
	case errors.Is(err, service.ErrNotInitialized):
		writeError(w, http.StatusConflict, "not_initialized", WrapKind(op, ErrConflict, err))
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "closed", Wrap(op, err))
	default:
		h.logger.Error(r.Context(), "enqueue failed", logger.String("event_id", req.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

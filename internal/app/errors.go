package service

import (
	"errors"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/adapters/mq/queue"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/analytics"
)

// Sentinel kinds returned by Service. Queue and store sentinels are
// re-exported so callers only need this package for errors.Is.
var (
	ErrNotInitialized = analytics.ErrNotInitialized
	ErrQueueFull      = queue.ErrQueueFull
	ErrClosed         = queue.ErrClosed
	ErrDrainActive    = errors.New("drain in progress")
	ErrDuplicateEvent = errors.New("duplicate event id")
	ErrNilEvent       = errors.New("nil change event")
)

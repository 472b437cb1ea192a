package analytics

import (
	"errors"
	"fmt"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
)

// Sentinel kinds for analytics errors. These allow errors.Is from callers.
var (
	ErrNotInitialized  = errors.New("analytics state not initialized")
	ErrCorruption      = errors.New("analytics state corruption")
	ErrMissingPrevious = errors.New("change event missing previous state")
	ErrUnknownEvent    = errors.New("unknown change event")
	ErrUnknownKind     = errors.New("unknown distribution kind")
)

// CorruptionError reports a refused decrement. Target names a distribution
// kind or a running total.
type CorruptionError struct {
	Target  string
	Key     string
	Current int
	Delta   int
}

func (e *CorruptionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("refusing to move %s from %d by %d", e.Target, e.Current, e.Delta)
	}
	return fmt.Sprintf("refusing to move %s[%s] from %d by %d", e.Target, e.Key, e.Current, e.Delta)
}

func (e *CorruptionError) Unwrap() error { return ErrCorruption }

// OverflowError reports a change that would push a fixed-point sum out of
// the int64 range. It is refused like a corrupting decrement.
type OverflowError struct {
	Target  string
	Current int64
	Delta   int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("refusing to move %s from %d by %d: overflow", e.Target, e.Current, e.Delta)
}

func (e *OverflowError) Unwrap() error { return ErrCorruption }

// ContractError reports an event the caller should never have sent.
type ContractError struct {
	Type     model.EventType
	RecordID string
	Err      error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Type, e.RecordID, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

package validation

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is wrapped by every ValidationError.
var ErrInvalidRecord = errors.New("invalid record")

// ValidationError identifies the offending record and field.
type ValidationError struct {
	Entity   string // "tasting" or "experience"
	RecordID string
	Field    string
	Value    any
	Rule     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: field %s=%v fails %s", e.Entity, e.RecordID, e.Field, e.Value, e.Rule)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

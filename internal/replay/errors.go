package replay

import "errors"

// Error constants.
var (
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrMismatch         = errors.New("served state does not match rescan")
	ErrSubmit           = errors.New("event submission failed")
)

package replay

import "time"

// Submission retry constants.
const (
	backpressureBackoff = 5 * time.Millisecond
	maxBackoff          = 250 * time.Millisecond
	maxAttempts         = 200
)

// tolerance bounds the difference between served and rescanned averages.
const tolerance = 1e-9

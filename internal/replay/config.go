// Package replay drives a running analytics service with a generated CRUD
// history over HTTP and checks the result against a full rescan of the
// records the history leaves behind.
package replay

import "time"

// Config holds configuration for a replay run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Tastings    int           // Tastings in the initial dataset
	Experiences int           // Experiences in the initial dataset
	Events      int           // Change events in the generated history
	Invalid     int           // Additional events that must be dropped by validation
	Duplicates  int           // Accepted events resubmitted with the same id
	Workers     int           // Concurrent submission lanes
	Seed        int64         // Generator seed
	Timeout     time.Duration // HTTP request timeout
	DrainWait   time.Duration // Upper bound for POST /drain
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated int
	EventsAccepted  int
	EventsDuplicate int
	EventsRetried   int
	EventsFailed    int
	Distributions   int
	StartTime       time.Time
	Duration        time.Duration
}

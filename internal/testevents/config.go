// Package testevents seeds a planner backend with generated events and
// verifies them through a full reload.
package testevents

import "time"

// Config holds configuration for a seed run.
type Config struct {
	BaseURL       string        // Base URL of the backend
	NumEvents     int           // Number of events to generate
	NumCategories int           // Number of categories to create first
	Workers       int           // Number of concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	Month         time.Time     // Any instant in the month events land in
	OutputFile    string        // Output file for created events
	LogFile       string        // Log file for the run
	Verbose       bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	CategoriesCreated int
	EventsGenerated   int
	EventsSubmitted   int
	EventsSuccessful  int
	EventsFailed      int
	EventsVerified    int
	EventsMissing     int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)

package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/planner/internal/testevents"
)

// Default configuration constants.
const (
	defaultNumEvents     = 200
	defaultNumCategories = 4
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 10 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:5000", "Base URL of the backend")
		numEvents  = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		numCats    = flag.Int("categories", defaultNumCategories, "Number of categories to create first")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		month      = flag.String("month", "", "Month to fill as YYYY-MM (default: current month)")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write created events as JSON to this file")
		logFile    = flag.String("log", "", "Log file (default: seed_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	target := time.Now()
	if *month != "" {
		t, err := time.ParseInLocation("2006-01", *month, time.Local)
		if err != nil {
			_, _ = os.Stderr.WriteString("Invalid -month, want YYYY-MM: " + err.Error() + "\n")
			os.Exit(2)
		}
		target = t
	}

	closer, err := testevents.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &testevents.Config{
		BaseURL:       *baseURL,
		NumEvents:     *numEvents,
		NumCategories: *numCats,
		Workers:       *workers,
		Timeout:       *timeout,
		Month:         target,
		OutputFile:    *outputFile,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if _, err := testevents.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		cancel()
		_ = closer.Close()
		os.Exit(1) //nolint:gocritic // resources released above
	}
}

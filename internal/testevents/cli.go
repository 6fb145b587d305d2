package testevents

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/planner/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stderr and to logFile. If logFile is
// empty, a timestamped filename is generated. The returned closer releases
// the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stderr, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Planner Seed Tool
=================

Fills a planner backend with generated events, then reloads everything and
checks each event landed under the right day.

Usage:
  go run ./cmd/test-events [options]

Options:
  -url string
        Base URL of the backend (default "http://localhost:5000")
  -events int
        Number of events to generate and submit (default 200)
  -categories int
        Number of categories to create first (default 4)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -month string
        Month to fill, as YYYY-MM (default: current month)
  -timeout duration
        HTTP request timeout (default 10s)
  -output string
        Write created events as JSON to this file
  -log string
        Log file (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed the local backend for this month
  go run ./cmd/test-events

  # Seed a remote backend for March 2024
  go run ./cmd/test-events -url http://planner.lan:5000 -month 2024-03 -events 1000
`)
}

package replay

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/palmares/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "replay_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithWriter(multiWriter), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the replay tool.
func ShowHelp() {
	os.Stdout.WriteString(`Palmares Replay Tool
====================

Submits every athlete-season found in a page directory to a running service,
then checks that each timeline is date ordered and that every record appears
in the merged-by-event view.

Usage:
  go run ./cmd/replay -dir <pages> [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -dir string
        Page directory laid out as <athlete>/<year>/*.html
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        How long to wait for the ingest queue to drain (default 2m)
  -log string
        Log file for run output (default: replay_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/replay -dir ./testdata/pages
  go run ./cmd/replay -dir ./pages -workers 16 -url http://localhost:8080
`)
}

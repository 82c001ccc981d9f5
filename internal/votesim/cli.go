package votesim

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/parkrank/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging logs to stdout and to logFile. An empty logFile gets a
// timestamped name. The returned func closes the file.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "vote_sim_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the vote simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Park Rank Vote Simulator
========================

Casts random head-to-head votes against a running server, then checks
that ranks are dense and consistent and that the ledger is newest first.

Usage:
  go run ./cmd/vote-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -votes int
        Number of votes to cast (default 1000)
  -workers int
        Number of concurrent voters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -replay-every int
        Resend every Nth ballot with the same Idempotency-Key (default 10)
  -log string
        Log file (default: vote_sim_TIMESTAMP.log)
  -verbose
        Log every failed vote
  -help
        Show this help message

Examples:
  go run ./cmd/vote-sim -votes 5000 -workers 32
  go run ./cmd/vote-sim -url http://localhost:8080 -replay-every 0
`)
}

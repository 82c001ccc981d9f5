package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/parkrank/internal/votesim"
)

// Default configuration constants.
const (
	defaultVotes       = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultReplayEvery = 10
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		votes       = flag.Int("votes", defaultVotes, "Number of votes to cast")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent voters")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		replayEvery = flag.Int("replay-every", defaultReplayEvery, "Resend every Nth ballot with its key; 0 disables")
		logFile     = flag.String("log", "", "Log file (default: vote_sim_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Log every failed vote")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		votesim.ShowHelp()
		return
	}

	closeLog, err := votesim.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	_, err = votesim.Run(ctx, &votesim.Config{
		BaseURL:     *baseURL,
		Votes:       *votes,
		Workers:     *workers,
		Timeout:     *timeout,
		ReplayEvery: *replayEvery,
		Verbose:     *verbose,
	})
	cancel()
	_ = closeLog()

	if err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

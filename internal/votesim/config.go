// Package votesim drives a running parkrank server with concurrent random
// votes and checks the ranking and ledger it leaves behind.
package votesim

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Votes        int           // Number of votes to cast
	Workers      int           // Number of concurrent voters
	Timeout      time.Duration // HTTP request timeout
	ReplayEvery  int           // Resend every Nth ballot with its key; 0 disables
	RecentWindow int           // Votes fetched when checking the ledger
	Verbose      bool          // Log every failed vote
}

// Stats holds run statistics.
type Stats struct {
	VotesCast       int
	VotesRecorded   int
	VotesDuplicate  int
	VotesRejected   int
	VotesFailed     int
	ReplaysRejected int
	Parks           int
	Duration        time.Duration
}

type voteRequest struct {
	WinnerID int64 `json:"winnerId"`
	LoserID  int64 `json:"loserId"`
}

type voteResponse struct {
	WinnerNewRating int `json:"winnerNewRating"`
	LoserNewRating  int `json:"loserNewRating"`
}

package service

import "errors"

// Errors returned by SubmitVote and the service lifecycle.
var (
	ErrBackpressure  = errors.New("vote queue is full")
	ErrDuplicateVote = errors.New("duplicate vote")
	ErrStopped       = errors.New("service stopped")
	ErrVoteTimeout   = errors.New("vote did not settle in time")
	ErrNotStarted    = errors.New("service not started")
)

package worker

import "errors"

// ErrExpired is returned for ballots whose submitter stopped waiting
// before the worker reached them. Such ballots are not applied.
var ErrExpired = errors.New("ballot expired before apply")

package queue

import "errors"

// ErrClosed is delivered to items abandoned at shutdown.
var ErrClosed = errors.New("queue closed")

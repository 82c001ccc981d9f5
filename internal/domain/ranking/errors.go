package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrInconsistent = errors.New("ranking inconsistent")
)

package rating

import "math"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKFactor sets the K-factor; non-positive or non-finite values are ignored.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 && !math.IsInf(k, 0) && !math.IsNaN(k) {
			e.k = k
		}
	}
}

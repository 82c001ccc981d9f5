package dedupe

import "time"

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of keys kept; the least recently used
// key is evicted first. 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		if maxSize >= 0 {
			d.maxSize = maxSize
		}
	}
}

// WithTTL sets how long a key is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// Package config defines service configuration and how it is loaded.
//
// Conventions:
// - New returns a Config holding every default.
// - Load layers a YAML file and PARKRANK_ environment variables on top.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import "time"

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// KFactor is the Elo K-factor.
	KFactor float64 `koanf:"k_factor" validate:"gt=0"`

	// Store picks the park store: memory or postgres.
	Store string `koanf:"store" validate:"oneof=memory postgres"`

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string `koanf:"database_url" validate:"required_if=Store postgres"`

	DBMaxConns    int           `koanf:"db_max_conns" validate:"gte=1"`
	DBMaxConnIdle time.Duration `koanf:"db_max_conn_idle" validate:"gte=0"`
	DBMaxConnLife time.Duration `koanf:"db_max_conn_life" validate:"gte=0"`

	// SeedOnStart fills an empty store with the seed parks at startup.
	SeedOnStart bool `koanf:"seed_on_start"`

	// SeedFile overrides the embedded park list.
	SeedFile string `koanf:"seed_file"`

	// VoteQueueSize bounds ballots waiting for the worker.
	VoteQueueSize int `koanf:"vote_queue_size" validate:"gte=1"`

	// VoteTimeout bounds how long a vote request waits to settle.
	VoteTimeout time.Duration `koanf:"vote_timeout" validate:"gt=0"`

	// DedupeSize and DedupeTTL size the idempotency-key window.
	DedupeSize int           `koanf:"dedupe_size" validate:"gte=0"`
	DedupeTTL  time.Duration `koanf:"dedupe_ttl" validate:"gt=0"`

	// CacheSize and CacheTTL size the ranking read cache; size 0 disables it.
	CacheSize int           `koanf:"cache_size" validate:"gte=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gt=0"`

	// RecentVotesDefault and RecentVotesMax shape GET /api/votes/recent.
	RecentVotesDefault int `koanf:"recent_votes_default" validate:"gte=1"`
	RecentVotesMax     int `koanf:"recent_votes_max" validate:"gtefield=RecentVotesDefault"`

	// MatchupSeed makes matchups reproducible; 0 seeds from the clock.
	MatchupSeed int64 `koanf:"matchup_seed"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		KFactor:            32,
		Store:              StoreMemory,
		DBMaxConns:         10,
		DBMaxConnIdle:      time.Minute,
		DBMaxConnLife:      30 * time.Minute,
		SeedOnStart:        true,
		VoteQueueSize:      1024,
		VoteTimeout:        5 * time.Second,
		DedupeSize:         100_000,
		DedupeTTL:          10 * time.Minute,
		CacheSize:          128,
		CacheTTL:           2 * time.Second,
		RecentVotesDefault: 10,
		RecentVotesMax:     100,
	}
}

package config

import "time"

// CacheConfig defines settings for the response cache in front of the pure
// seat endpoints.  Generation is deterministic, so a response can be reused
// for as long as TTL for any identical request body.  MaxBodyBytes bounds
// both the request bodies that are hashed and the responses that are
// stored.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 10*time.Minute),
		Prefix:       getenv("CACHE_PREFIX", "cache:seatgen"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return cfg
}

// SessionConfig controls server-held editing sessions.
type SessionConfig struct {
	AutoSaveDebounce time.Duration // pending edits older than this are auto-saved
	AutoSaveInterval time.Duration // how often the auto-save sweep runs
	HistoryDepth     int           // undo snapshots kept per session
	IdleTimeout      time.Duration // sessions untouched this long are closed
}

// LoadSessionConfig reads SESSION_* variables.
func LoadSessionConfig() SessionConfig {
	cfg := SessionConfig{
		AutoSaveDebounce: envDur("SESSION_AUTOSAVE_DEBOUNCE", 30*time.Second),
		AutoSaveInterval: envDur("SESSION_AUTOSAVE_INTERVAL", 5*time.Second),
		HistoryDepth:     envInt("SESSION_HISTORY_DEPTH", 50),
		IdleTimeout:      envDur("SESSION_IDLE_TIMEOUT", 30*time.Minute),
	}
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = 5 * time.Second
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 50
	}
	return cfg
}

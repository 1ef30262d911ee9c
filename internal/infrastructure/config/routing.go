package config

import "time"

// RoutingConfig holds routing provider (geocoding + distance matrix) configuration
type RoutingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Cache settings for geocode/matrix responses
	Cache CacheConfig `mapstructure:"cache"`
}

// RateLimitConfig holds client-side rate limiting configuration
type RateLimitConfig struct {
	// Requests per second allowed against the provider
	Requests float64 `mapstructure:"requests"`
	Burst    int     `mapstructure:"burst"`
}

// CacheConfig holds the in-process response cache configuration
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Maximum cost (approximate bytes) held by the cache
	MaxCost int64 `mapstructure:"max_cost"`
	// NumCounters sizes the admission frequency sketch
	NumCounters int64         `mapstructure:"num_counters"`
	TTL         time.Duration `mapstructure:"ttl"`
}

package config

import "time"

// NotificationConfig holds the push notification sink configuration
type NotificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// IdentityConfig holds the identity service (token validation) configuration
type IdentityConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Disabled skips token validation; every request acts as the
	// configured dev actor. For local development only.
	Disabled bool `mapstructure:"disabled"`
}

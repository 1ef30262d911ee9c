package config

import "time"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Listen address, e.g. ":8080"
	Address string `mapstructure:"address"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Gin mode: debug, release, test
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
}

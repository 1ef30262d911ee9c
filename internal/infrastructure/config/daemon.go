package config

import "time"

// DaemonConfig holds long-running process configuration
type DaemonConfig struct {
	PIDFile         string        `mapstructure:"pid_file"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

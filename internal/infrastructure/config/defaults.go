package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "dispatch"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "dispatch"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}

	// Routing provider defaults
	if cfg.Routing.BaseURL == "" {
		cfg.Routing.BaseURL = "https://rsapi.goong.io"
	}
	if cfg.Routing.Timeout == 0 {
		cfg.Routing.Timeout = 10 * time.Second
	}
	if cfg.Routing.RateLimit.Requests == 0 {
		cfg.Routing.RateLimit.Requests = 5
	}
	if cfg.Routing.RateLimit.Burst == 0 {
		cfg.Routing.RateLimit.Burst = 10
	}
	if cfg.Routing.Cache.MaxCost == 0 {
		cfg.Routing.Cache.MaxCost = 16 << 20
	}
	if cfg.Routing.Cache.NumCounters == 0 {
		cfg.Routing.Cache.NumCounters = 100_000
	}
	if cfg.Routing.Cache.TTL == 0 {
		cfg.Routing.Cache.TTL = 10 * time.Minute
	}

	// Agent defaults
	if cfg.Agent.TickInterval == 0 {
		cfg.Agent.TickInterval = 10 * time.Minute
	}
	if cfg.Agent.MaxTurns == 0 {
		cfg.Agent.MaxTurns = 6
	}
	if cfg.Agent.RebalanceCap == 0 {
		cfg.Agent.RebalanceCap = 5
	}
	if cfg.Agent.LM.Model == "" {
		cfg.Agent.LM.Model = "gpt-4o-mini"
	}
	if cfg.Agent.LM.BaseURL == "" {
		cfg.Agent.LM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Agent.LM.Timeout == 0 {
		cfg.Agent.LM.Timeout = 60 * time.Second
	}

	// Notification defaults
	if cfg.Notification.Timeout == 0 {
		cfg.Notification.Timeout = 5 * time.Second
	}

	// Identity defaults
	if cfg.Identity.Timeout == 0 {
		cfg.Identity.Timeout = 5 * time.Second
	}

	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/dispatchd.pid"
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}
}

package config

import "time"

// AgentConfig holds the optimization agent configuration
type AgentConfig struct {
	// Enabled turns the periodic scheduler on in serve mode
	Enabled bool `mapstructure:"enabled"`

	// TickInterval between optimization cycles per area
	TickInterval time.Duration `mapstructure:"tick_interval"`

	// MaxTurns caps the language-model tool loop per cycle
	MaxTurns int `mapstructure:"max_turns" validate:"omitempty,min=1,max=20"`

	// RebalanceCap limits moved assignments per rebalance call
	RebalanceCap int `mapstructure:"rebalance_cap"`

	LM LMConfig `mapstructure:"lm"`
}

// LMConfig holds the chat-completions endpoint configuration
type LMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Package config centralizes configuration loading. Values resolve with the
// usual precedence: explicit config > environment variables > defaults.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Configuration defaults.
const (
	DefaultSessionCapacity = 1024
	DefaultSessionTTL      = 2 * time.Hour
	DefaultOracleTimeout   = 30 * time.Second
	DefaultBackendDriver   = "sqlite"
)

// Settings bundles the orchestrator's non-LLM runtime configuration.
type Settings struct {
	// SessionCapacity caps the number of live sessions in memory.
	SessionCapacity int
	// SessionTTL evicts idle sessions.
	SessionTTL time.Duration
	// OracleTimeout bounds each individual LLM call.
	OracleTimeout time.Duration
	// ResearchEnabled toggles the background research phase.
	ResearchEnabled bool
	// BackendDriver selects the tracker store: "sqlite" or "memory".
	BackendDriver string
	// ClarificationsFile optionally overrides clarification templates (YAML).
	ClarificationsFile string
}

// SetDefaults registers default values with Viper. Call once at startup,
// before reading the config file.
func SetDefaults() {
	viper.SetDefault("session.capacity", DefaultSessionCapacity)
	viper.SetDefault("session.ttl", DefaultSessionTTL.String())
	viper.SetDefault("oracle.timeout", DefaultOracleTimeout.String())
	viper.SetDefault("research.enabled", true)
	viper.SetDefault("backend.driver", DefaultBackendDriver)
}

// LoadSettings reads orchestrator settings from Viper. Invalid durations fall
// back to the defaults rather than failing startup.
func LoadSettings() Settings {
	s := Settings{
		SessionCapacity:    viper.GetInt("session.capacity"),
		SessionTTL:         viper.GetDuration("session.ttl"),
		OracleTimeout:      viper.GetDuration("oracle.timeout"),
		ResearchEnabled:    viper.GetBool("research.enabled"),
		BackendDriver:      viper.GetString("backend.driver"),
		ClarificationsFile: viper.GetString("slots.clarificationsFile"),
	}
	if s.SessionCapacity <= 0 {
		s.SessionCapacity = DefaultSessionCapacity
	}
	if s.SessionTTL <= 0 {
		s.SessionTTL = DefaultSessionTTL
	}
	if s.OracleTimeout <= 0 {
		s.OracleTimeout = DefaultOracleTimeout
	}
	if s.BackendDriver == "" {
		s.BackendDriver = DefaultBackendDriver
	}
	return s
}

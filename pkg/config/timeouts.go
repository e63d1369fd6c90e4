package config

import "time"

// TimeoutConfig holds timeout settings for database work.
// They are read from the connect_timeout and statement_timeout keys of the [bio2bel] section
// of the global config file.
type TimeoutConfig struct {
	// Connect bounds opening and pinging a database.
	// Default: 10s
	Connect time.Duration

	// Statement bounds a single ledger or schema statement.
	// Default: 30s
	Statement time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		Connect:   10 * time.Second,
		Statement: 30 * time.Second,
	}
}

// LoadTimeouts reads timeouts from settings, falling back to defaults.
func LoadTimeouts(l *Loader) *TimeoutConfig {
	def := DefaultTimeoutConfig()
	return &TimeoutConfig{
		Connect:   l.Duration("bio2bel.connect_timeout", def.Connect),
		Statement: l.Duration("bio2bel.statement_timeout", def.Statement),
	}
}

// global instance that can be set at startup
var globalTimeouts = DefaultTimeoutConfig()

// SetGlobalTimeouts sets the global timeout configuration
func SetGlobalTimeouts(cfg *TimeoutConfig) {
	globalTimeouts = cfg
}

// GetTimeouts returns the global timeout configuration
func GetTimeouts() *TimeoutConfig {
	return globalTimeouts
}

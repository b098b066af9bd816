package stream

import (
	"fmt"
	"time"
)

// Config holds session registry configuration.
type Config struct {
	// SessionTTL is the idle age after which the sweeper reclaims a session.
	// Clients that vanish without an end signal hold their session until
	// this TTL expires.
	SessionTTL time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`

	// SweepInterval is how often the sweeper scans for expired sessions.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.SessionTTL <= 0 {
		c.SessionTTL = time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
}

// Validate checks the configuration is coherent.
func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("stream.session_ttl must be > 0 (got: %v)", c.SessionTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("stream.sweep_interval must be > 0 (got: %v)", c.SweepInterval)
	}
	if c.SweepInterval > c.SessionTTL {
		return fmt.Errorf("stream.sweep_interval (%v) must be <= session_ttl (%v)", c.SweepInterval, c.SessionTTL)
	}
	return nil
}

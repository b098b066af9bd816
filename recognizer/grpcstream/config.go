package grpcstream

import (
	"fmt"
	"time"
)

// Config holds configuration for the gRPC recognizer provider.
type Config struct {
	// Address is the recognizer endpoint (host:port).
	Address string `yaml:"address" mapstructure:"address"`

	// Method is the full gRPC method of the bidirectional recognition stream.
	Method string `yaml:"method" mapstructure:"method"`

	// MaxChunkBytes is the largest audio payload accepted per stream write.
	MaxChunkBytes int `yaml:"max_chunk_bytes" mapstructure:"max_chunk_bytes"`

	// ConnectTimeout bounds stream establishment, not stream lifetime.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// KeepaliveTime is the client keepalive ping interval.
	KeepaliveTime time.Duration `yaml:"keepalive_time" mapstructure:"keepalive_time"`

	// Insecure disables transport security (development only).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = "/speech.v1.Recognizer/StreamingRecognize"
	}
	if c.MaxChunkBytes <= 0 {
		c.MaxChunkBytes = 20 * 1024
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.KeepaliveTime <= 0 {
		c.KeepaliveTime = 30 * time.Second
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("recognizer.address is required")
	}
	if c.MaxChunkBytes <= 0 {
		return fmt.Errorf("recognizer.max_chunk_bytes must be > 0 (got: %d)", c.MaxChunkBytes)
	}
	return nil
}

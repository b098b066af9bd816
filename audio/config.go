package audio

import "fmt"

// Config holds framer configuration.
type Config struct {
	// SampleRate is the input sample rate in Hz.
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate"`

	// FrameMillis is the target frame duration in milliseconds.
	FrameMillis int `yaml:"frame_millis" mapstructure:"frame_millis"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.FrameMillis <= 0 {
		c.FrameMillis = 500
	}
}

// Validate checks that the configuration yields at least one sample per frame.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0 (got: %d)", c.SampleRate)
	}
	if c.FrameMillis <= 0 {
		return fmt.Errorf("audio.frame_millis must be > 0 (got: %d)", c.FrameMillis)
	}
	if c.SamplesPerFrame() == 0 {
		return fmt.Errorf("audio config yields zero samples per frame (rate=%d, millis=%d)", c.SampleRate, c.FrameMillis)
	}
	return nil
}

// SamplesPerFrame returns the number of samples in one frame.
func (c *Config) SamplesPerFrame() int {
	return c.SampleRate * c.FrameMillis / 1000
}

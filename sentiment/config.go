package sentiment

import (
	"fmt"
	"math"
)

const (
	// DefaultMinLines is the minimum transcript line count for analysis.
	DefaultMinLines = 10
	// DefaultMinChars is the minimum total character count for analysis.
	DefaultMinChars = 200
	// DefaultMaxPriorResults bounds how many prior result summaries are
	// sent to the backend as context.
	DefaultMaxPriorResults = 3
	// DefaultTrendHistory bounds how many prior results feed the trend
	// window. The window never looks past rank 10, so 9 priors plus the
	// current result covers every group size.
	DefaultTrendHistory = 9
)

// Weights aggregate the two subjective scores into OverallScore. They must
// sum to 1.
type Weights struct {
	Constructiveness float64 `json:"constructiveness" yaml:"constructiveness" mapstructure:"constructiveness"`
	Understanding    float64 `json:"understanding" yaml:"understanding" mapstructure:"understanding"`
}

// Thresholds are the trend classification cut points.
type Thresholds struct {
	// Improvement is the minimum favorable diff to call a metric improving.
	Improvement float64 `json:"improvement" yaml:"improvement" mapstructure:"improvement"`
	// GoodScoreFloor: a recent average at or above this holds a
	// higher-is-better metric at stable despite small negative drift.
	GoodScoreFloor float64 `json:"good_score_floor" yaml:"good_score_floor" mapstructure:"good_score_floor"`
	// LowVolatilityCeiling: a recent volatility average at or below this
	// holds volatility at stable despite small upward drift.
	LowVolatilityCeiling float64 `json:"low_volatility_ceiling" yaml:"low_volatility_ceiling" mapstructure:"low_volatility_ceiling"`
}

// Config controls eligibility screening and trend classification.
type Config struct {
	MinLines        int        `json:"min_lines" yaml:"min_lines" mapstructure:"min_lines"`
	MinChars        int        `json:"min_chars" yaml:"min_chars" mapstructure:"min_chars"`
	MaxPriorResults int        `json:"max_prior_results" yaml:"max_prior_results" mapstructure:"max_prior_results"`
	TrendHistory    int        `json:"trend_history" yaml:"trend_history" mapstructure:"trend_history"`
	Weights         Weights    `json:"weights" yaml:"weights" mapstructure:"weights"`
	Thresholds      Thresholds `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds"`
}

// ApplyDefaults fills zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.MinLines == 0 {
		c.MinLines = DefaultMinLines
	}
	if c.MinChars == 0 {
		c.MinChars = DefaultMinChars
	}
	if c.MaxPriorResults == 0 {
		c.MaxPriorResults = DefaultMaxPriorResults
	}
	if c.TrendHistory == 0 {
		c.TrendHistory = DefaultTrendHistory
	}
	if c.Weights.Constructiveness == 0 && c.Weights.Understanding == 0 {
		c.Weights = Weights{Constructiveness: 0.5, Understanding: 0.5}
	}
	if c.Thresholds.Improvement == 0 {
		c.Thresholds.Improvement = 0.5
	}
	if c.Thresholds.GoodScoreFloor == 0 {
		c.Thresholds.GoodScoreFloor = 7
	}
	if c.Thresholds.LowVolatilityCeiling == 0 {
		c.Thresholds.LowVolatilityCeiling = 4
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MinLines < 1 {
		return fmt.Errorf("min_lines must be positive, got %d", c.MinLines)
	}
	if c.MinChars < 1 {
		return fmt.Errorf("min_chars must be positive, got %d", c.MinChars)
	}
	if c.MaxPriorResults < 0 {
		return fmt.Errorf("max_prior_results must not be negative, got %d", c.MaxPriorResults)
	}
	if c.TrendHistory < 0 {
		return fmt.Errorf("trend_history must not be negative, got %d", c.TrendHistory)
	}
	if c.Weights.Constructiveness < 0 || c.Weights.Understanding < 0 {
		return fmt.Errorf("weights must not be negative, got %+v", c.Weights)
	}
	if sum := c.Weights.Constructiveness + c.Weights.Understanding; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %g", sum)
	}
	if c.Thresholds.Improvement < 0 {
		return fmt.Errorf("improvement threshold must not be negative, got %g", c.Thresholds.Improvement)
	}
	return nil
}

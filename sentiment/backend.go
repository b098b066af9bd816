package sentiment

import (
	"context"
	"time"
)

// Line is one transcript utterance with its display speaker label, as sent
// to the analysis backend.
type Line struct {
	SpeakerLabel string `json:"speakerLabel"`
	Text         string `json:"text"`
}

// PriorSummary is the condensed view of a prior completed result passed to
// the backend as conversation history context.
type PriorSummary struct {
	AnalyzedAt            time.Time `json:"analyzedAt"`
	OverallScore          float64   `json:"overallScore"`
	VolatilityScore       float64   `json:"volatilityScore"`
	ConstructivenessScore float64   `json:"constructivenessScore"`
	UnderstandingScore    float64   `json:"understandingScore"`
}

// ScoreRequest carries the ordered transcript plus up to the configured
// number of prior result summaries, most recent first. NetDurationSeconds
// is the recording's wall time minus accumulated pauses, so the backend can
// weigh exchange density.
type ScoreRequest struct {
	Lines              []Line         `json:"lines"`
	NetDurationSeconds int64          `json:"netDurationSeconds"`
	Priors             []PriorSummary `json:"priors,omitempty"`
}

// Scores is the raw backend output before aggregation and trend
// classification. Ratios are fractions of lines; the two subjective scores
// are on a 1-10 scale.
type Scores struct {
	PositiveRatio float64 `json:"positiveRatio"`
	NeutralRatio  float64 `json:"neutralRatio"`
	NegativeRatio float64 `json:"negativeRatio"`

	// Volatility is the standard deviation of the per-line sentiment
	// signal the backend derives.
	Volatility float64 `json:"volatility"`

	Constructiveness          float64 `json:"constructiveness"`
	ConstructivenessRationale string  `json:"constructivenessRationale"`
	Understanding             float64 `json:"understanding"`
	UnderstandingRationale    string  `json:"understandingRationale"`

	Insights []string `json:"insights"`
}

// Backend is the external text-analysis service. Implementations score one
// conversation at a time; a failed call is retryable by the caller and
// must not persist anything.
type Backend interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Score(ctx context.Context, req ScoreRequest) (*Scores, error)
}

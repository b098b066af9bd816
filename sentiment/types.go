package sentiment

import "time"

// ResultStatus marks whether an analysis produced scores or was screened
// out before scoring.
type ResultStatus string

const (
	// StatusCompleted: all four scores are present.
	StatusCompleted ResultStatus = "completed"
	// StatusInsufficientData: the transcript failed an eligibility check.
	// All scores are nil and SkipReason says which check failed.
	StatusInsufficientData ResultStatus = "insufficient_data"
)

// SkipReason identifies the first eligibility check a transcript failed.
type SkipReason string

const (
	// SkipTooFewLines: fewer than the minimum transcript line count.
	SkipTooFewLines SkipReason = "too_few_lines"
	// SkipTooShort: total character count below the minimum.
	SkipTooShort SkipReason = "too_short"
	// SkipSingleSpeaker: no two distinct speakers attributed.
	SkipSingleSpeaker SkipReason = "single_speaker"
)

// Trend classifies a metric's movement against the comparison window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Result is the persisted outcome of one analysis run. At most one row
// exists per conversation; a forced re-analysis overwrites in place.
// Scores are pointers so an insufficient_data row stores them as NULL
// rather than ambiguous zeroes.
type Result struct {
	ID             string       `json:"id" gorm:"primaryKey;size:36"`
	ConversationID string       `json:"conversationId" gorm:"size:36;uniqueIndex"`
	Status         ResultStatus `json:"status" gorm:"size:32;index"`
	SkipReason     *SkipReason  `json:"skipReason,omitempty" gorm:"size:32"`

	// Partnership key, snapshotted from the conversation so prior-result
	// lookups survive later profile changes.
	Speaker1ID string `json:"speaker1Id" gorm:"size:36;index:idx_sentiment_partnership"`
	Speaker2ID string `json:"speaker2Id" gorm:"size:36;index:idx_sentiment_partnership"`

	PositiveRatio *float64 `json:"positiveRatio,omitempty"`
	NeutralRatio  *float64 `json:"neutralRatio,omitempty"`
	NegativeRatio *float64 `json:"negativeRatio,omitempty"`

	VolatilityScore       *float64 `json:"volatilityScore,omitempty"`
	ConstructivenessScore *float64 `json:"constructivenessScore,omitempty"`
	UnderstandingScore    *float64 `json:"understandingScore,omitempty"`
	OverallScore          *float64 `json:"overallScore,omitempty"`

	ConstructivenessRationale string `json:"constructivenessRationale,omitempty"`
	UnderstandingRationale    string `json:"understandingRationale,omitempty"`

	Insights []string `json:"insights,omitempty" gorm:"serializer:json"`

	VolatilityTrend       Trend `json:"volatilityTrend,omitempty" gorm:"size:16"`
	ConstructivenessTrend Trend `json:"constructivenessTrend,omitempty" gorm:"size:16"`
	UnderstandingTrend    Trend `json:"understandingTrend,omitempty" gorm:"size:16"`

	AnalyzedAt time.Time `json:"analyzedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Completed reports whether the result carries scores.
func (r *Result) Completed() bool {
	return r.Status == StatusCompleted
}

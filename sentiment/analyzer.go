package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tandemlab/converse/conversation"
	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/logger"
	"github.com/tandemlab/converse/observability"
	"github.com/tandemlab/converse/util"
)

// Analyzer runs the full analysis pipeline for one conversation:
// eligibility screening, backend scoring, aggregation, trend
// classification against the partnership's prior results, and
// persistence.
type Analyzer struct {
	conversations conversation.Store
	results       Store
	backend       Backend
	cfg           Config
	log           *logger.Logger
	metrics       *observability.PipelineMetrics
	clock         func() time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *observability.PipelineMetrics) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

// WithClock overrides the analyzer clock (tests).
func WithClock(clock func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.clock = clock }
}

// NewAnalyzer creates an analyzer. cfg must already be defaulted and
// validated.
func NewAnalyzer(conversations conversation.Store, results Store, backend Backend, cfg Config, log *logger.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		conversations: conversations,
		results:       results,
		backend:       backend,
		cfg:           cfg,
		log:           log.WithComponent("sentiment"),
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes and persists the sentiment result for a conversation.
// A completed result already on record makes the call a no-op returning
// that result, unless force is set. An ineligible transcript persists an
// insufficient_data result and returns it as a normal outcome; only a
// backend failure leaves nothing stored.
func (a *Analyzer) Analyze(ctx context.Context, conversationID string, force bool) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAnalysisRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, "conversation_id", conversationID)
	started := a.clock()

	if !force {
		existing, err := a.results.GetByConversation(ctx, conversationID)
		if err == nil && existing.Completed() {
			a.log.Info("analysis already completed", logger.Fields(logger.FieldConversationID, conversationID))
			return existing, nil
		}
		if err != nil && !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			return nil, err
		}
	}

	conv, err := a.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status != conversation.StatusCompleted {
		return nil, apperrors.Conflict(
			fmt.Sprintf("conversation %s is %s, analysis requires completed", conversationID, conv.Status))
	}

	lines, err := a.conversations.ListTranscriptLines(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if reason := a.screen(lines); reason != nil {
		result := &Result{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			Status:         StatusInsufficientData,
			SkipReason:     reason,
			Speaker1ID:     conv.Speaker1ID,
			Speaker2ID:     conv.Speaker2ID,
			AnalyzedAt:     a.clock(),
		}
		if err := a.results.Save(ctx, result); err != nil {
			return nil, err
		}
		a.log.Info("analysis skipped", logger.Fields(
			logger.FieldConversationID, conversationID,
			"skip_reason", string(*reason),
		))
		a.metrics.RecordAnalysis(ctx, string(StatusInsufficientData), a.clock().Sub(started))
		return result, nil
	}

	// One fetch serves both consumers: the backend context takes only the
	// most recent few, the trend window may look further back.
	history, err := a.results.ListPriorCompleted(ctx, conv.Speaker1ID, conv.Speaker2ID, conversationID, a.cfg.TrendHistory)
	if err != nil {
		return nil, err
	}
	contextPriors := history
	if len(contextPriors) > a.cfg.MaxPriorResults {
		contextPriors = contextPriors[:a.cfg.MaxPriorResults]
	}

	scores, err := a.backend.Score(ctx, a.buildRequest(conv, lines, contextPriors))
	if err != nil {
		observability.SetSpanError(ctx, err)
		a.log.Error("backend scoring failed", logger.ErrorFields("score", err))
		a.metrics.RecordAnalysis(ctx, "failed", a.clock().Sub(started))
		return nil, err
	}

	overall := a.cfg.Weights.Constructiveness*scores.Constructiveness +
		a.cfg.Weights.Understanding*scores.Understanding

	result := &Result{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Status:         StatusCompleted,
		Speaker1ID:     conv.Speaker1ID,
		Speaker2ID:     conv.Speaker2ID,

		PositiveRatio: util.Ptr(scores.PositiveRatio),
		NeutralRatio:  util.Ptr(scores.NeutralRatio),
		NegativeRatio: util.Ptr(scores.NegativeRatio),

		VolatilityScore:       util.Ptr(scores.Volatility),
		ConstructivenessScore: util.Ptr(scores.Constructiveness),
		UnderstandingScore:    util.Ptr(scores.Understanding),
		OverallScore:          util.Ptr(overall),

		ConstructivenessRationale: scores.ConstructivenessRationale,
		UnderstandingRationale:    scores.UnderstandingRationale,
		Insights:                  scores.Insights,

		AnalyzedAt: a.clock(),
	}
	a.classifyTrends(result, history)

	if err := a.results.Save(ctx, result); err != nil {
		return nil, err
	}
	a.log.Info("analysis completed", logger.Fields(
		logger.FieldConversationID, conversationID,
		"overall_score", overall,
		"priors", len(history),
	))
	a.metrics.RecordAnalysis(ctx, string(StatusCompleted), a.clock().Sub(started))
	return result, nil
}

// screen runs the eligibility checks in their fixed order and returns the
// first failing reason, or nil when the transcript is analyzable.
func (a *Analyzer) screen(lines []conversation.TranscriptLine) *SkipReason {
	if len(lines) < a.cfg.MinLines {
		return util.Ptr(SkipTooFewLines)
	}

	var chars int
	for _, l := range lines {
		chars += len(l.Text)
	}
	if chars < a.cfg.MinChars {
		return util.Ptr(SkipTooShort)
	}

	// Two distinct non-nil tags are required; an undiarized transcript
	// cannot be attributed to two speakers either.
	distinct := map[int]struct{}{}
	for _, l := range lines {
		if l.SpeakerTag != nil {
			distinct[*l.SpeakerTag] = struct{}{}
		}
	}
	if len(distinct) < 2 {
		return util.Ptr(SkipSingleSpeaker)
	}
	return nil
}

func (a *Analyzer) buildRequest(conv *conversation.Conversation, lines []conversation.TranscriptLine, priors []Result) ScoreRequest {
	req := ScoreRequest{
		Lines:              make([]Line, 0, len(lines)),
		NetDurationSeconds: int64(conv.NetDuration(a.clock()).Seconds()),
	}
	for _, l := range lines {
		req.Lines = append(req.Lines, Line{
			SpeakerLabel: speakerLabel(conv, l.SpeakerTag),
			Text:         l.Text,
		})
	}
	for _, p := range priors {
		req.Priors = append(req.Priors, PriorSummary{
			AnalyzedAt:            p.AnalyzedAt,
			OverallScore:          *p.OverallScore,
			VolatilityScore:       *p.VolatilityScore,
			ConstructivenessScore: *p.ConstructivenessScore,
			UnderstandingScore:    *p.UnderstandingScore,
		})
	}
	return req
}

// classifyTrends builds the most-recent-first series for each tracked
// metric (current result at index 0, priors after it) and classifies each.
func (a *Analyzer) classifyTrends(r *Result, priors []Result) {
	volatility := []float64{*r.VolatilityScore}
	constructiveness := []float64{*r.ConstructivenessScore}
	understanding := []float64{*r.UnderstandingScore}
	for _, p := range priors {
		volatility = append(volatility, *p.VolatilityScore)
		constructiveness = append(constructiveness, *p.ConstructivenessScore)
		understanding = append(understanding, *p.UnderstandingScore)
	}

	r.VolatilityTrend = classifyVolatility(volatility, a.cfg.Thresholds)
	r.ConstructivenessTrend = classifyScore(constructiveness, a.cfg.Thresholds)
	r.UnderstandingTrend = classifyScore(understanding, a.cfg.Thresholds)
}

func speakerLabel(conv *conversation.Conversation, tag *int) string {
	switch {
	case tag == nil:
		return "Unknown"
	case *tag == 1:
		return conv.Speaker1Name
	default:
		return conv.Speaker2Name
	}
}

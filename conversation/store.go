package conversation

import "context"

// StateChange describes a guarded transition. The update applies only when
// the stored conversation still matches every expected pre-state, which
// serializes concurrent transition attempts at the storage layer.
type StateChange struct {
	// ExpectStatus is the set of recording states the transition may start
	// from. Empty means any.
	ExpectStatus []Status
	// ExpectSummary is the set of summary states the transition may start
	// from. Nil means any; to require the empty summary state pass
	// []SummaryStatus{SummaryNone}.
	ExpectSummary []SummaryStatus
	// Set holds the column updates to apply.
	Set map[string]any
}

// SwapOutcome reports a bulk speaker swap.
type SwapOutcome struct {
	// Changed counts lines whose tag actually flipped.
	Changed int64 `json:"changed"`
	// Examined counts all lines of the conversation.
	Examined int64 `json:"examined"`
}

// Store is the durable record interface the lifecycle, reconciler, and
// analyzer operate through.
type Store interface {
	// CreateConversation inserts a new conversation.
	CreateConversation(ctx context.Context, c *Conversation) error

	// GetConversation returns the conversation or errors.NotFound.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// ApplyStateChange runs a guarded update and reports whether the guard
	// matched. A false return with nil error means the stored state did
	// not match the expected pre-state.
	ApplyStateChange(ctx context.Context, id string, change StateChange) (bool, error)

	// AppendTranscriptLine inserts a transcript line.
	AppendTranscriptLine(ctx context.Context, line *TranscriptLine) error

	// ListTranscriptLines returns all lines of a conversation ordered by
	// timestamp, then insertion.
	ListTranscriptLines(ctx context.Context, conversationID string) ([]TranscriptLine, error)

	// GetTranscriptLine returns the line or errors.NotFound.
	GetTranscriptLine(ctx context.Context, lineID string) (*TranscriptLine, error)

	// SetLineSpeaker assigns the speaker tag on one line.
	SetLineSpeaker(ctx context.Context, lineID string, tag *int) error

	// SwapSpeakers flips tags 1 and 2 on every attributed line of the
	// conversation; unattributed lines are untouched.
	SwapSpeakers(ctx context.Context, conversationID string) (SwapOutcome, error)

	// MaxFinalTimestamp returns the highest TimestampMs among final lines
	// of the conversation, or 0 when none exist.
	MaxFinalTimestamp(ctx context.Context, conversationID string) (int64, error)
}

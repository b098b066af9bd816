package conversation

import "time"

// Status is the recording axis of a conversation.
type Status string

const (
	// StatusReady marks a freshly created conversation with no audio yet.
	StatusReady Status = "ready"
	// StatusActive marks a conversation currently recording.
	StatusActive Status = "active"
	// StatusPaused marks a recording on hold; pause time accumulates.
	StatusPaused Status = "paused"
	// StatusCompleted is terminal for the recording axis.
	StatusCompleted Status = "completed"
)

// SummaryStatus is the post-recording confirmation axis. It is independent
// of Status: a conversation stays completed while SummaryStatus advances.
type SummaryStatus string

const (
	// SummaryNone: no diarization results available for review yet.
	SummaryNone SummaryStatus = ""
	// SummaryWaitingConfirmation: diarization is ready for user review.
	SummaryWaitingConfirmation SummaryStatus = "waiting_confirmation"
	// SummaryGenerated: the user confirmed speakers and a summary was built. Terminal.
	SummaryGenerated SummaryStatus = "generated"
	// SummarySkipped: the user declined a summary. Terminal.
	SummarySkipped SummaryStatus = "skipped"
)

// Terminal reports whether the summary axis allows no further transitions.
func (s SummaryStatus) Terminal() bool {
	return s == SummaryGenerated || s == SummarySkipped
}

// Conversation is a recorded talk between two partners. Speaker names are
// snapshotted at creation, not live-joined, so later profile edits do not
// rewrite history.
type Conversation struct {
	ID            string        `json:"id" gorm:"primaryKey;size:36"`
	Status        Status        `json:"status" gorm:"size:16;index"`
	SummaryStatus SummaryStatus `json:"summaryStatus" gorm:"size:32"`

	Speaker1ID   string `json:"speaker1Id" gorm:"size:36"`
	Speaker1Name string `json:"speaker1Name" gorm:"size:128"`
	Speaker2ID   string `json:"speaker2Id" gorm:"size:36"`
	Speaker2Name string `json:"speaker2Name" gorm:"size:128"`

	StartedAt         *time.Time `json:"startedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	PausedAt          *time.Time `json:"-"`
	TotalPauseSeconds int64      `json:"totalPauseSeconds"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NetDuration returns recording wall time minus accumulated pauses.
// Returns zero until the conversation has started.
func (c *Conversation) NetDuration(now time.Time) time.Duration {
	if c.StartedAt == nil {
		return 0
	}
	end := now
	if c.CompletedAt != nil {
		end = *c.CompletedAt
	}
	gross := end.Sub(*c.StartedAt)
	net := gross - time.Duration(c.TotalPauseSeconds)*time.Second
	if net < 0 {
		return 0
	}
	return net
}

// ValidCombination reports whether the status pair is reachable.
// The summary axis only leaves "" once recording has completed.
func ValidCombination(status Status, summary SummaryStatus) bool {
	if summary == SummaryNone {
		return true
	}
	return status == StatusCompleted
}

// TranscriptLine is one recognized utterance. Rows are append-only during
// capture; after capture only the speaker tag is mutable, via the
// Reconciler. A nil SpeakerTag means "unassigned", a valid displayable
// state rather than an error.
type TranscriptLine struct {
	ID             string `json:"id" gorm:"primaryKey;size:36"`
	ConversationID string `json:"conversationId" gorm:"size:36;index"`
	SpeakerTag     *int   `json:"speakerTag" gorm:"index"`
	Text           string `json:"text"`
	LanguageCode   string `json:"languageCode" gorm:"size:16"`
	TimestampMs    int64  `json:"timestampMs"`
	IsFinal        bool   `json:"isFinal"`

	CreatedAt time.Time `json:"createdAt"`
}

package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/logger"
)

// Lifecycle drives conversation state transitions. Every transition is
// optimistic: it succeeds only if the stored state still matches the
// expected pre-state, so two concurrent attempts cannot both win.
type Lifecycle struct {
	store Store
	log   *logger.Logger
	clock func() time.Time
}

// NewLifecycle creates a lifecycle over the given store.
func NewLifecycle(store Store, log *logger.Logger) *Lifecycle {
	return &Lifecycle{
		store: store,
		log:   log.WithComponent("lifecycle"),
		clock: time.Now,
	}
}

// WithClock overrides the lifecycle clock (tests).
func (l *Lifecycle) WithClock(clock func() time.Time) *Lifecycle {
	l.clock = clock
	return l
}

// Create inserts a new conversation in the ready state with speaker
// identities snapshotted from the request.
func (l *Lifecycle) Create(ctx context.Context, speaker1ID, speaker1Name, speaker2ID, speaker2Name string) (*Conversation, error) {
	c := &Conversation{
		ID:            uuid.New().String(),
		Status:        StatusReady,
		SummaryStatus: SummaryNone,
		Speaker1ID:    speaker1ID,
		Speaker1Name:  speaker1Name,
		Speaker2ID:    speaker2ID,
		Speaker2Name:  speaker2Name,
	}
	if err := l.store.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	l.log.Info("conversation created", logger.Fields(logger.FieldConversationID, c.ID))
	return c, nil
}

// Get returns the conversation.
func (l *Lifecycle) Get(ctx context.Context, id string) (*Conversation, error) {
	return l.store.GetConversation(ctx, id)
}

// Start moves ready → active and stamps the recording start.
func (l *Lifecycle) Start(ctx context.Context, id string) (*Conversation, error) {
	now := l.clock()
	return l.transition(ctx, id, string(StatusActive), StateChange{
		ExpectStatus: []Status{StatusReady},
		Set: map[string]any{
			"status":     StatusActive,
			"started_at": &now,
		},
	})
}

// Pause moves active → paused and stamps the pause start.
func (l *Lifecycle) Pause(ctx context.Context, id string) (*Conversation, error) {
	now := l.clock()
	return l.transition(ctx, id, string(StatusPaused), StateChange{
		ExpectStatus: []Status{StatusActive},
		Set: map[string]any{
			"status":    StatusPaused,
			"paused_at": &now,
		},
	})
}

// Resume moves paused → active, folding the elapsed pause into
// TotalPauseSeconds. Pause and resume may alternate any number of times.
func (l *Lifecycle) Resume(ctx context.Context, id string) (*Conversation, error) {
	current, err := l.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPaused || current.PausedAt == nil {
		return nil, apperrors.InvalidTransition(string(current.Status), string(StatusActive))
	}

	pauseSeconds := int64(l.clock().Sub(*current.PausedAt).Seconds())
	return l.transition(ctx, id, string(StatusActive), StateChange{
		ExpectStatus: []Status{StatusPaused},
		Set: map[string]any{
			"status":              StatusActive,
			"paused_at":           nil,
			"total_pause_seconds": current.TotalPauseSeconds + pauseSeconds,
		},
	})
}

// Complete moves active|paused → completed. Terminal for the recording
// axis and irreversible. A pause still running is folded in first.
func (l *Lifecycle) Complete(ctx context.Context, id string) (*Conversation, error) {
	current, err := l.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	now := l.clock()
	set := map[string]any{
		"status":       StatusCompleted,
		"completed_at": &now,
	}
	if current.Status == StatusPaused && current.PausedAt != nil {
		set["paused_at"] = nil
		set["total_pause_seconds"] = current.TotalPauseSeconds + int64(now.Sub(*current.PausedAt).Seconds())
	}

	completed, err := l.transition(ctx, id, string(StatusCompleted), StateChange{
		ExpectStatus: []Status{StatusActive, StatusPaused},
		Set:          set,
	})
	if err != nil {
		return nil, err
	}
	return l.enterSummaryAxis(ctx, completed)
}

// enterSummaryAxis moves a freshly completed conversation to
// waiting_confirmation when diarization attributed at least one line, so
// the speaker assignment can be reviewed. With nothing attributed the
// summary axis stays unentered.
func (l *Lifecycle) enterSummaryAxis(ctx context.Context, conv *Conversation) (*Conversation, error) {
	lines, err := l.store.ListTranscriptLines(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	diarized := false
	for _, line := range lines {
		if line.SpeakerTag != nil {
			diarized = true
			break
		}
	}
	if !diarized {
		return conv, nil
	}

	marked, err := l.MarkAwaitingConfirmation(ctx, conv.ID)
	if apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		// A concurrent caller already advanced the summary axis; the
		// completion itself stands.
		return l.store.GetConversation(ctx, conv.ID)
	}
	if err != nil {
		return nil, err
	}
	return marked, nil
}

// MarkAwaitingConfirmation enters the summary axis once diarization results
// are available for review. Complete calls it when attributed lines exist;
// valid only on a completed conversation whose summary axis has not
// started.
func (l *Lifecycle) MarkAwaitingConfirmation(ctx context.Context, id string) (*Conversation, error) {
	return l.transition(ctx, id, string(SummaryWaitingConfirmation), StateChange{
		ExpectStatus:  []Status{StatusCompleted},
		ExpectSummary: []SummaryStatus{SummaryNone},
		Set: map[string]any{
			"summary_status": SummaryWaitingConfirmation,
		},
	})
}

// ConfirmSpeakers records the user's confirmation and finalizes the summary
// axis as generated. Terminal.
func (l *Lifecycle) ConfirmSpeakers(ctx context.Context, id string) (*Conversation, error) {
	return l.transition(ctx, id, string(SummaryGenerated), StateChange{
		ExpectSummary: []SummaryStatus{SummaryWaitingConfirmation},
		Set: map[string]any{
			"summary_status": SummaryGenerated,
		},
	})
}

// SkipSummary records an explicit skip. Terminal; no summary is computed.
func (l *Lifecycle) SkipSummary(ctx context.Context, id string) (*Conversation, error) {
	return l.transition(ctx, id, string(SummarySkipped), StateChange{
		ExpectSummary: []SummaryStatus{SummaryWaitingConfirmation},
		Set: map[string]any{
			"summary_status": SummarySkipped,
		},
	})
}

// transition applies a guarded state change, translating a guard miss into
// INVALID_TRANSITION with the actual current state.
func (l *Lifecycle) transition(ctx context.Context, id, requested string, change StateChange) (*Conversation, error) {
	matched, err := l.store.ApplyStateChange(ctx, id, change)
	if err != nil {
		return nil, err
	}
	if !matched {
		current, getErr := l.store.GetConversation(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		state := string(current.Status)
		if current.SummaryStatus != SummaryNone {
			state = state + "/" + string(current.SummaryStatus)
		}
		l.log.Warn("transition rejected", logger.Fields(
			logger.FieldConversationID, id,
			"current_state", state,
			"requested_state", requested,
		))
		return nil, apperrors.InvalidTransition(state, requested)
	}

	updated, err := l.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ValidCombination(updated.Status, updated.SummaryStatus) {
		return nil, apperrors.Internal(fmt.Errorf(
			"conversation %s in unreachable state %s/%s", id, updated.Status, updated.SummaryStatus))
	}
	l.log.Info("transition applied", logger.Fields(
		logger.FieldConversationID, id,
		logger.FieldStatus, string(updated.Status),
		"summary_status", string(updated.SummaryStatus),
	))
	return updated, nil
}

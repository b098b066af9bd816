package conversation

import (
	"context"

	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/logger"
)

// Reconciler corrects speaker attribution on transcript lines after
// automatic diarization, without re-running recognition. Edits are allowed
// during review (including waiting_confirmation) and rejected once the
// summary axis is terminal, because the summary text would then reference
// a speaker mapping the transcript no longer carries.
type Reconciler struct {
	store Store
	log   *logger.Logger
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store Store, log *logger.Logger) *Reconciler {
	return &Reconciler{
		store: store,
		log:   log.WithComponent("diarization"),
	}
}

// SetSpeaker assigns a speaker tag directly to one line. tag must be 1, 2,
// or nil (unassigned); this is an assignment, not a toggle.
func (r *Reconciler) SetSpeaker(ctx context.Context, lineID string, tag *int) (*TranscriptLine, error) {
	if tag != nil && *tag != 1 && *tag != 2 {
		return nil, apperrors.InvalidInput("speakerTag", "speaker tag must be 1, 2, or null")
	}

	line, err := r.store.GetTranscriptLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if err := r.ensureEditable(ctx, line.ConversationID); err != nil {
		return nil, err
	}

	if err := r.store.SetLineSpeaker(ctx, lineID, tag); err != nil {
		return nil, err
	}
	line.SpeakerTag = tag

	r.log.Info("speaker assigned", logger.Fields(
		logger.FieldLineID, lineID,
		logger.FieldConversationID, line.ConversationID,
	))
	return line, nil
}

// SwapAll flips tags 1 and 2 on every attributed line of the conversation.
// Unattributed lines carry no assignment to swap and are untouched. A
// zero-changed outcome is valid, not an error: there may simply be no
// diarized lines yet.
func (r *Reconciler) SwapAll(ctx context.Context, conversationID string) (SwapOutcome, error) {
	if err := r.ensureEditable(ctx, conversationID); err != nil {
		return SwapOutcome{}, err
	}

	outcome, err := r.store.SwapSpeakers(ctx, conversationID)
	if err != nil {
		return SwapOutcome{}, err
	}

	r.log.Info("speakers swapped", logger.Fields(
		logger.FieldConversationID, conversationID,
		"changed", outcome.Changed,
		"examined", outcome.Examined,
	))
	return outcome, nil
}

// ensureEditable rejects edits once the summary axis is terminal.
func (r *Reconciler) ensureEditable(ctx context.Context, conversationID string) error {
	c, err := r.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if c.SummaryStatus.Terminal() {
		return apperrors.DiarizationLocked(conversationID)
	}
	return nil
}

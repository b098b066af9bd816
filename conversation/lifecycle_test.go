package conversation

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/logger"
)

func testLifecycle(t *testing.T) (*Lifecycle, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewLifecycle(store, logger.NewDefault("conversation-test")), store
}

func createConversation(t *testing.T, lc *Lifecycle) *Conversation {
	t.Helper()
	c, err := lc.Create(context.Background(), "u1", "Alice", "u2", "Bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func TestCreateStartsReady(t *testing.T) {
	lc, _ := testLifecycle(t)
	c := createConversation(t, lc)

	if c.Status != StatusReady {
		t.Errorf("status = %q, want %q", c.Status, StatusReady)
	}
	if c.SummaryStatus != SummaryNone {
		t.Errorf("summaryStatus = %q, want empty", c.SummaryStatus)
	}
	if c.Speaker1Name != "Alice" || c.Speaker2Name != "Bob" {
		t.Errorf("speaker snapshot = %q/%q", c.Speaker1Name, c.Speaker2Name)
	}
	if c.StartedAt != nil {
		t.Error("StartedAt set before Start")
	}
}

func TestFullRecordingPath(t *testing.T) {
	lc, _ := testLifecycle(t)
	ctx := context.Background()
	c := createConversation(t, lc)

	c, err := lc.Start(ctx, c.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Status != StatusActive || c.StartedAt == nil {
		t.Fatalf("after Start: status=%q startedAt=%v", c.Status, c.StartedAt)
	}

	c, err = lc.Pause(ctx, c.ID)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if c.Status != StatusPaused {
		t.Fatalf("after Pause: status=%q", c.Status)
	}

	c, err = lc.Resume(ctx, c.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if c.Status != StatusActive {
		t.Fatalf("after Resume: status=%q", c.Status)
	}

	c, err = lc.Complete(ctx, c.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.Status != StatusCompleted || c.CompletedAt == nil {
		t.Fatalf("after Complete: status=%q completedAt=%v", c.Status, c.CompletedAt)
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	lc, _ := testLifecycle(t)
	ctx := context.Background()

	cases := []struct {
		name string
		prep func(id string)
		call func(id string) error
	}{
		{
			name: "pause before start",
			prep: func(string) {},
			call: func(id string) error { _, err := lc.Pause(ctx, id); return err },
		},
		{
			name: "resume while active",
			prep: func(id string) { lc.Start(ctx, id) },
			call: func(id string) error { _, err := lc.Resume(ctx, id); return err },
		},
		{
			name: "complete from ready",
			prep: func(string) {},
			call: func(id string) error { _, err := lc.Complete(ctx, id); return err },
		},
		{
			name: "start after complete",
			prep: func(id string) { lc.Start(ctx, id); lc.Complete(ctx, id) },
			call: func(id string) error { _, err := lc.Start(ctx, id); return err },
		},
		{
			name: "confirm before review",
			prep: func(id string) { lc.Start(ctx, id); lc.Complete(ctx, id) },
			call: func(id string) error { _, err := lc.ConfirmSpeakers(ctx, id); return err },
		},
		{
			name: "review before completion",
			prep: func(id string) { lc.Start(ctx, id) },
			call: func(id string) error { _, err := lc.MarkAwaitingConfirmation(ctx, id); return err },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := createConversation(t, lc)
			tc.prep(c.ID)
			err := tc.call(c.ID)
			if !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
				t.Errorf("err = %v, want %s", err, apperrors.ErrCodeInvalidTransition)
			}
		})
	}
}

func TestPauseSecondsAccumulateAcrossCycles(t *testing.T) {
	lc, _ := testLifecycle(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lc.WithClock(func() time.Time { return now })

	c := createConversation(t, lc)
	if _, err := lc.Start(ctx, c.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// First pause: 30s.
	now = now.Add(time.Minute)
	if _, err := lc.Pause(ctx, c.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	now = now.Add(30 * time.Second)
	if _, err := lc.Resume(ctx, c.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	// Second pause runs into Complete: 90s more.
	now = now.Add(time.Minute)
	if _, err := lc.Pause(ctx, c.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	now = now.Add(90 * time.Second)
	got, err := lc.Complete(ctx, c.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if got.TotalPauseSeconds != 120 {
		t.Errorf("TotalPauseSeconds = %d, want 120", got.TotalPauseSeconds)
	}
	if got.PausedAt != nil {
		t.Error("PausedAt not cleared on Complete")
	}
	// Gross span 4m, minus 2m paused.
	if d := got.NetDuration(now); d != 2*time.Minute {
		t.Errorf("NetDuration = %v, want 2m", d)
	}
}

func TestCompleteEntersReviewWhenDiarized(t *testing.T) {
	lc, store := testLifecycle(t)
	ctx := context.Background()

	c := createConversation(t, lc)
	if _, err := lc.Start(ctx, c.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tag := 1
	if err := store.AppendTranscriptLine(ctx, &TranscriptLine{
		ID:             "line-1",
		ConversationID: c.ID,
		SpeakerTag:     &tag,
		Text:           "hello there",
		TimestampMs:    100,
		IsFinal:        true,
	}); err != nil {
		t.Fatalf("AppendTranscriptLine: %v", err)
	}

	c, err := lc.Complete(ctx, c.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.SummaryStatus != SummaryWaitingConfirmation {
		t.Fatalf("summaryStatus = %q, want %q", c.SummaryStatus, SummaryWaitingConfirmation)
	}

	// The confirmation endpoint path is now reachable.
	c, err = lc.ConfirmSpeakers(ctx, c.ID)
	if err != nil {
		t.Fatalf("ConfirmSpeakers: %v", err)
	}
	if c.SummaryStatus != SummaryGenerated {
		t.Errorf("summaryStatus = %q, want generated", c.SummaryStatus)
	}
}

func TestCompleteWithoutAttributedLinesSkipsReview(t *testing.T) {
	lc, store := testLifecycle(t)
	ctx := context.Background()

	c := createConversation(t, lc)
	lc.Start(ctx, c.ID)

	// A line with no speaker tag gives the user nothing to confirm.
	if err := store.AppendTranscriptLine(ctx, &TranscriptLine{
		ID:             "line-1",
		ConversationID: c.ID,
		Text:           "unattributed",
		TimestampMs:    100,
		IsFinal:        true,
	}); err != nil {
		t.Fatalf("AppendTranscriptLine: %v", err)
	}

	c, err := lc.Complete(ctx, c.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.SummaryStatus != SummaryNone {
		t.Errorf("summaryStatus = %q, want empty", c.SummaryStatus)
	}
}

func TestSummaryAxis(t *testing.T) {
	lc, _ := testLifecycle(t)
	ctx := context.Background()

	c := createConversation(t, lc)
	lc.Start(ctx, c.ID)
	lc.Complete(ctx, c.ID)

	c, err := lc.MarkAwaitingConfirmation(ctx, c.ID)
	if err != nil {
		t.Fatalf("MarkAwaitingConfirmation: %v", err)
	}
	if c.SummaryStatus != SummaryWaitingConfirmation {
		t.Fatalf("summaryStatus = %q", c.SummaryStatus)
	}

	c, err = lc.ConfirmSpeakers(ctx, c.ID)
	if err != nil {
		t.Fatalf("ConfirmSpeakers: %v", err)
	}
	if c.SummaryStatus != SummaryGenerated {
		t.Fatalf("summaryStatus = %q, want generated", c.SummaryStatus)
	}
	if c.Status != StatusCompleted {
		t.Errorf("recording axis moved to %q", c.Status)
	}

	// generated is terminal on the summary axis.
	_, err = lc.MarkAwaitingConfirmation(ctx, c.ID)
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		t.Errorf("re-entering review after generated: err = %v", err)
	}
	_, err = lc.SkipSummary(ctx, c.ID)
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		t.Errorf("skip after generated: err = %v", err)
	}
}

func TestSkipSummaryTerminal(t *testing.T) {
	lc, _ := testLifecycle(t)
	ctx := context.Background()

	c := createConversation(t, lc)
	lc.Start(ctx, c.ID)
	lc.Complete(ctx, c.ID)
	lc.MarkAwaitingConfirmation(ctx, c.ID)

	c, err := lc.SkipSummary(ctx, c.ID)
	if err != nil {
		t.Fatalf("SkipSummary: %v", err)
	}
	if c.SummaryStatus != SummarySkipped {
		t.Fatalf("summaryStatus = %q, want skipped", c.SummaryStatus)
	}

	_, err = lc.ConfirmSpeakers(ctx, c.ID)
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		t.Errorf("confirm after skip: err = %v", err)
	}
}

func TestConcurrentConfirmSingleWinner(t *testing.T) {
	lc, store := testLifecycle(t)
	ctx := context.Background()

	c := createConversation(t, lc)
	lc.Start(ctx, c.ID)
	lc.Complete(ctx, c.ID)
	lc.MarkAwaitingConfirmation(ctx, c.ID)

	const attempts = 8
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := lc.ConfirmSpeakers(ctx, c.ID)
			errs <- err
		}()
	}

	var wins, rejections int
	for i := 0; i < attempts; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		case apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if rejections != attempts-1 {
		t.Errorf("rejections = %d, want %d", rejections, attempts-1)
	}

	got, _ := store.GetConversation(ctx, c.ID)
	if got.SummaryStatus != SummaryGenerated {
		t.Errorf("final summaryStatus = %q", got.SummaryStatus)
	}
}

func TestTransitionOnMissingConversation(t *testing.T) {
	lc, _ := testLifecycle(t)
	_, err := lc.Start(context.Background(), "no-such-id")
	if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want %s", err, apperrors.ErrCodeNotFound)
	}
}

func TestTransitionRejectsUnreachableState(t *testing.T) {
	lc, store := testLifecycle(t)
	ctx := context.Background()

	c := createConversation(t, lc)
	lc.Start(ctx, c.ID)

	// Corrupt the row: an active conversation must not carry a summary
	// state. The next transition lands on an unreachable pair and is
	// refused instead of persisting through it.
	store.ApplyStateChange(ctx, c.ID, StateChange{
		Set: map[string]any{"summary_status": SummaryWaitingConfirmation},
	})

	_, err := lc.SkipSummary(ctx, c.ID)
	if !apperrors.HasCode(err, apperrors.ErrCodeInternal) {
		t.Errorf("err = %v, want %s", err, apperrors.ErrCodeInternal)
	}
}

func TestValidCombination(t *testing.T) {
	if !ValidCombination(StatusActive, SummaryNone) {
		t.Error("active with no summary should be valid")
	}
	if ValidCombination(StatusActive, SummaryWaitingConfirmation) {
		t.Error("summary axis must not advance before completion")
	}
	if !ValidCombination(StatusCompleted, SummaryGenerated) {
		t.Error("completed/generated should be valid")
	}
}

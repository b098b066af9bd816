package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/tandemlab/converse/errors"
)

// memStore is an in-memory Store with the same guard semantics as the GORM
// store, used across the package tests.
type memStore struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	lines         map[string]*TranscriptLine
}

func newMemStore() *memStore {
	return &memStore{
		conversations: make(map[string]*Conversation),
		lines:         make(map[string]*TranscriptLine),
	}
}

func (s *memStore) CreateConversation(ctx context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.conversations[c.ID] = &cp
	return nil
}

func (s *memStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, apperrors.NotFound("conversation", id)
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) ApplyStateChange(ctx context.Context, id string, change StateChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return false, apperrors.NotFound("conversation", id)
	}

	if len(change.ExpectStatus) > 0 && !statusIn(c.Status, change.ExpectStatus) {
		return false, nil
	}
	if change.ExpectSummary != nil && !summaryIn(c.SummaryStatus, change.ExpectSummary) {
		return false, nil
	}

	for col, val := range change.Set {
		switch col {
		case "status":
			c.Status = val.(Status)
		case "summary_status":
			c.SummaryStatus = val.(SummaryStatus)
		case "started_at":
			c.StartedAt = timePtr(val)
		case "completed_at":
			c.CompletedAt = timePtr(val)
		case "paused_at":
			c.PausedAt = timePtr(val)
		case "total_pause_seconds":
			c.TotalPauseSeconds = val.(int64)
		}
	}
	c.UpdatedAt = time.Now()
	return true, nil
}

func timePtr(val any) *time.Time {
	if val == nil {
		return nil
	}
	return val.(*time.Time)
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func summaryIn(s SummaryStatus, set []SummaryStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (s *memStore) AppendTranscriptLine(ctx context.Context, line *TranscriptLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line.CreatedAt = time.Now()
	cp := *line
	s.lines[line.ID] = &cp
	return nil
}

func (s *memStore) ListTranscriptLines(ctx context.Context, conversationID string) ([]TranscriptLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TranscriptLine
	for _, l := range s.lines {
		if l.ConversationID == conversationID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimestampMs != out[j].TimestampMs {
			return out[i].TimestampMs < out[j].TimestampMs
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memStore) GetTranscriptLine(ctx context.Context, lineID string) (*TranscriptLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[lineID]
	if !ok {
		return nil, apperrors.NotFound("transcript line", lineID)
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) SetLineSpeaker(ctx context.Context, lineID string, tag *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[lineID]
	if !ok {
		return apperrors.NotFound("transcript line", lineID)
	}
	l.SpeakerTag = tag
	return nil
}

func (s *memStore) SwapSpeakers(ctx context.Context, conversationID string) (SwapOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var outcome SwapOutcome
	for _, l := range s.lines {
		if l.ConversationID != conversationID {
			continue
		}
		outcome.Examined++
		if l.SpeakerTag == nil {
			continue
		}
		switch *l.SpeakerTag {
		case 1:
			two := 2
			l.SpeakerTag = &two
			outcome.Changed++
		case 2:
			one := 1
			l.SpeakerTag = &one
			outcome.Changed++
		}
	}
	return outcome, nil
}

func (s *memStore) MaxFinalTimestamp(ctx context.Context, conversationID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for _, l := range s.lines {
		if l.ConversationID == conversationID && l.IsFinal && l.TimestampMs > max {
			max = l.TimestampMs
		}
	}
	return max, nil
}

var _ Store = (*memStore)(nil)

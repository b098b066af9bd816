package conversation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/tandemlab/converse/logger"
	"github.com/tandemlab/converse/recognizer"
)

// Broadcaster fans a freshly appended transcript line out to live
// listeners. Implementations must not block.
type Broadcaster interface {
	Publish(conversationID string, data []byte)
}

// Ingestor appends recognizer transcript events to the durable transcript.
// It implements stream.EventSink.
type Ingestor struct {
	store       Store
	log         *logger.Logger
	broadcaster Broadcaster
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithBroadcaster publishes each appended line to live listeners.
func WithBroadcaster(b Broadcaster) IngestorOption {
	return func(i *Ingestor) { i.broadcaster = b }
}

// NewIngestor creates a transcript ingestor over the given store.
func NewIngestor(store Store, log *logger.Logger, opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		store: store,
		log:   log.WithComponent("ingest"),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// OnEvent appends one transcript event. Final rows keep non-decreasing
// timestamps within a conversation: a final event arriving with an earlier
// timestamp than an already-stored final row is clamped forward, since the
// recognizer occasionally restates offsets after a stream reconnect.
// Append failures are logged, not propagated: the event source is a
// one-way channel pump with no caller to signal.
func (i *Ingestor) OnEvent(ctx context.Context, conversationID string, ev recognizer.Event) {
	ts := ev.TimestampMs
	if ev.IsFinal {
		maxFinal, err := i.store.MaxFinalTimestamp(ctx, conversationID)
		if err != nil {
			i.log.Error("reading max final timestamp", logger.ErrorFields("ingest", err))
			return
		}
		if ts < maxFinal {
			ts = maxFinal
		}
	}

	line := &TranscriptLine{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SpeakerTag:     ev.SpeakerTag,
		Text:           ev.Text,
		LanguageCode:   ev.LanguageCode,
		TimestampMs:    ts,
		IsFinal:        ev.IsFinal,
	}
	if err := i.store.AppendTranscriptLine(ctx, line); err != nil {
		i.log.Error("appending transcript line", logger.ErrorFields("ingest", err))
		return
	}

	if i.broadcaster != nil {
		data, err := json.Marshal(line)
		if err != nil {
			i.log.Error("encoding transcript line", logger.ErrorFields("ingest", err))
			return
		}
		i.broadcaster.Publish(conversationID, data)
	}
}

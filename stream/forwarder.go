package stream

import (
	"context"

	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/logger"
	"github.com/tandemlab/converse/observability"
)

// Forwarder writes framed audio into the recognizer channel of a session.
type Forwarder struct {
	registry      *Registry
	maxChunkBytes int
	log           *logger.Logger
	metrics       *observability.PipelineMetrics
}

// NewForwarder creates a forwarder. The chunk limit comes from the
// recognizer provider, not from local configuration, since it is the
// backend's accepted payload size.
func NewForwarder(registry *Registry, log *logger.Logger, metrics *observability.PipelineMetrics) *Forwarder {
	return &Forwarder{
		registry:      registry,
		maxChunkBytes: registry.provider.MaxChunkBytes(),
		log:           log.WithComponent("forwarder"),
		metrics:       metrics,
	}
}

// Write forwards one frame to the session's channel, splitting it into
// consecutive chunks of at most the recognizer's payload limit (final
// remainder shorter), written in order. Sessions are never auto-created;
// the caller must have opened one. A failed channel write surfaces as
// CHANNEL_WRITE_FAILED and leaves the session open for retry with the
// next frame.
func (f *Forwarder) Write(ctx context.Context, sessionID string, frame []byte) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanFrameWrite)
	defer span.End()
	observability.SetSpanAttribute(ctx, "session_id", sessionID)
	observability.SetSpanAttribute(ctx, "frame_bytes", len(frame))

	session, err := f.registry.Get(sessionID)
	if err != nil {
		return err
	}
	f.registry.Touch(sessionID)

	// The channel write happens outside any registry lock; it may block on
	// recognizer backpressure.
	for offset := 0; offset < len(frame); offset += f.maxChunkBytes {
		end := offset + f.maxChunkBytes
		if end > len(frame) {
			end = len(frame)
		}
		if err := session.Channel.Write(ctx, frame[offset:end]); err != nil {
			observability.SetSpanError(ctx, err)
			return apperrors.ChannelWriteFailed(sessionID, err)
		}
	}

	f.metrics.RecordFrameForwarded(ctx, len(frame))
	return nil
}

// End flushes and gracefully terminates the session's channel, then
// unregisters it. Idempotent: ending an unknown session reports
// ended=false with no error.
func (f *Forwarder) End(ctx context.Context, sessionID string) bool {
	ended := f.registry.Close(sessionID)
	if !ended {
		f.log.Debug("end for unknown session", logger.Fields(logger.FieldSessionID, sessionID))
	}
	return ended
}

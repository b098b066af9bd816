package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/tandemlab/converse/errors"
	"github.com/tandemlab/converse/logger"
	"github.com/tandemlab/converse/observability"
	"github.com/tandemlab/converse/recognizer"
)

// EventSink receives transcript events consumed from a session's channel.
type EventSink interface {
	OnEvent(ctx context.Context, conversationID string, ev recognizer.Event)
}

// Registry maps session ids to open recognition channels and owns their
// lifecycle. Construct one per process and pass it by reference; tests get
// isolated registries the same way.
type Registry struct {
	provider recognizer.Provider
	cfg      Config
	log      *logger.Logger
	metrics  *observability.PipelineMetrics
	sink     EventSink
	clock    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	// byConversation enforces at most one live channel per conversation.
	// A nil value marks an open in flight so concurrent opens lose early.
	byConversation map[string]*Session
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithEventSink sets the sink that receives transcript events.
func WithEventSink(sink EventSink) RegistryOption {
	return func(r *Registry) { r.sink = sink }
}

// WithMetrics sets the pipeline metrics instruments.
func WithMetrics(m *observability.PipelineMetrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// WithClock overrides the registry clock (tests).
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) { r.clock = clock }
}

// NewRegistry creates a session registry backed by the given provider.
func NewRegistry(cfg Config, provider recognizer.Provider, log *logger.Logger, opts ...RegistryOption) *Registry {
	cfg.ApplyDefaults()
	r := &Registry{
		provider:       provider,
		cfg:            cfg,
		log:            log.WithComponent("stream"),
		clock:          time.Now,
		sessions:       make(map[string]*Session),
		byConversation: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates a session for the conversation and opens its recognition
// channel. Fails with SESSION_ALREADY_OPEN if a live session (or an open in
// flight) exists for the conversation. The channel is dialed outside the
// registry lock; the conversation slot is reserved first so concurrent
// opens on the same id cannot both win.
func (r *Registry) Open(ctx context.Context, conversationID string, req recognizer.StreamRequest) (*Session, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanSessionOpen)
	defer span.End()
	observability.SetSpanAttribute(ctx, "conversation_id", conversationID)

	r.mu.Lock()
	if _, exists := r.byConversation[conversationID]; exists {
		r.mu.Unlock()
		return nil, apperrors.SessionAlreadyOpen(conversationID)
	}
	r.byConversation[conversationID] = nil // reservation
	r.mu.Unlock()

	req.ConversationID = conversationID
	// The channel must outlive the request that opened it: the session ends
	// on an explicit end call or the TTL sweep, not when the open handler
	// returns. Establishment stays bounded by the provider's ConnectTimeout.
	channel, err := r.provider.OpenStream(context.WithoutCancel(ctx), req)
	if err != nil {
		r.mu.Lock()
		delete(r.byConversation, conversationID)
		r.mu.Unlock()
		observability.SetSpanError(ctx, err)
		return nil, apperrors.ExternalServiceError("recognizer", err)
	}

	now := r.clock()
	session := &Session{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Channel:        channel,
		CreatedAt:      now,
		lastActivity:   now,
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.byConversation[conversationID] = session
	r.mu.Unlock()

	r.metrics.RecordSessionOpened(ctx)
	r.log.Info("session opened", logger.Fields(
		logger.FieldSessionID, session.ID,
		logger.FieldConversationID, conversationID,
	))

	if r.sink != nil {
		go r.consumeEvents(session)
	}
	return session, nil
}

// Get returns the session or a SESSION_NOT_FOUND error.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok || session == nil {
		return nil, apperrors.SessionNotFound(sessionID)
	}
	return session, nil
}

// Touch refreshes the session's activity time for the TTL sweep.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[sessionID]; ok && session != nil {
		session.lastActivity = r.clock()
	}
}

// Close ends the session and releases its channel. Idempotent: closing an
// unknown or already-closed session reports ended=false with no error,
// because clients retry end signals after network loss.
func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
		delete(r.byConversation, session.ConversationID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	// CloseSend flushes buffered bytes and half-closes; run outside the
	// lock since it may block on the transport.
	if err := session.Channel.CloseSend(); err != nil {
		r.log.Warn("channel close error", logger.Fields(
			logger.FieldSessionID, sessionID,
			logger.FieldError, err.Error(),
		))
	}

	r.metrics.RecordSessionClosed(context.Background())
	r.log.Info("session closed", logger.Fields(
		logger.FieldSessionID, sessionID,
		logger.FieldConversationID, session.ConversationID,
	))
	return true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes and closes every session idle longer than maxAge and
// returns the count removed. It tolerates sessions closed concurrently by
// requests mid-sweep; Close on an already-removed session is a no-op.
func (r *Registry) Sweep(maxAge time.Duration) int {
	now := r.clock()

	r.mu.Lock()
	var expired []string
	for id, session := range r.sessions {
		if session.Age(now) > maxAge {
			expired = append(expired, id)
		}
	}
	r.mu.Unlock()

	removed := 0
	for _, id := range expired {
		if r.Close(id) {
			removed++
		}
	}

	if removed > 0 {
		r.metrics.RecordSessionsSwept(context.Background(), removed)
		r.log.Info("sessions swept", logger.Fields("removed", removed))
	}
	return removed
}

// RunSweeper runs the sweep loop on a fixed interval until ctx is canceled,
// independent of request traffic.
func (r *Registry) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	r.log.Info("sweeper started", logger.Fields(
		"interval", r.cfg.SweepInterval.String(),
		"session_ttl", r.cfg.SessionTTL.String(),
	))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			r.Sweep(r.cfg.SessionTTL)
		}
	}
}

// CloseAll closes every live session. Used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Close(id)
	}
}

// consumeEvents pumps the session's transcript events into the sink until
// the channel closes.
func (r *Registry) consumeEvents(session *Session) {
	for ev := range session.Channel.Events() {
		r.sink.OnEvent(context.Background(), session.ConversationID, ev)
	}
}

package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tandemlab/converse/logger"
)

// keepAliveInterval must stay under typical proxy idle timeouts (60s).
const keepAliveInterval = 30 * time.Second

// EventTypeConnected names the initial event sent on a new connection.
const EventTypeConnected = "connected"

// ConnectedEvent is the payload of the initial connection event.
type ConnectedEvent struct {
	SubscriberID   string `json:"subscriberId"`
	ConversationID string `json:"conversationId"`
}

// ServeSSE streams the conversation's transcript events over one HTTP
// connection until the client disconnects or the hub shuts down.
func ServeSSE(hub *Hub, log *logger.Logger, w http.ResponseWriter, r *http.Request, conversationID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections are long-lived; the server's write timeout must not
	// apply to them.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Warn("could not disable write deadline", logger.Fields(
			"conversation_id", conversationID,
			"error", err.Error(),
		))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := NewSubscriber(uuid.New().String(), conversationID)
	hub.Register(sub)
	defer hub.Unregister(sub)

	connected, _ := json.Marshal(ConnectedEvent{
		SubscriberID:   sub.ID(),
		ConversationID: conversationID,
	})
	_, _ = fmt.Fprintf(w, "event: %s\n", EventTypeConnected)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", connected)
	flusher.Flush()

	log.Debug("live transcript subscriber connected", logger.Fields(
		"subscriber_id", sub.ID(),
		"conversation_id", conversationID,
		"remote_addr", r.RemoteAddr,
	))

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()

		case <-keepAlive.C:
			// SSE comment line, keeps intermediaries from closing the
			// connection.
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

package sse

import (
	"sync"

	"github.com/tandemlab/converse/logger"
)

// subscriberBuffer bounds the per-subscriber event queue. A subscriber
// that falls this far behind starts losing events rather than stalling
// the hub.
const subscriberBuffer = 256

// Subscriber is one client listening to a conversation's transcript.
type Subscriber struct {
	id             string
	conversationID string
	events         chan []byte
}

// NewSubscriber creates a subscriber for the given conversation.
func NewSubscriber(id, conversationID string) *Subscriber {
	return &Subscriber{
		id:             id,
		conversationID: conversationID,
		events:         make(chan []byte, subscriberBuffer),
	}
}

// ID returns the subscriber's unique identifier.
func (s *Subscriber) ID() string {
	return s.id
}

// ConversationID returns the conversation this subscriber listens to.
func (s *Subscriber) ConversationID() string {
	return s.conversationID
}

// Events returns the channel delivering this subscriber's events.
func (s *Subscriber) Events() <-chan []byte {
	return s.events
}

// send queues data for the subscriber. Returns false when the queue is
// full and the event was dropped.
func (s *Subscriber) send(data []byte) bool {
	select {
	case s.events <- data:
		return true
	default:
		return false
	}
}

type publishMsg struct {
	conversationID string
	data           []byte
}

// Hub routes published transcript events to the subscribers of each
// conversation. Run the event loop in its own goroutine; Publish,
// Register, and Unregister are safe from any goroutine.
type Hub struct {
	log *logger.Logger

	register   chan *Subscriber
	unregister chan *Subscriber
	publish    chan publishMsg
	done       chan struct{}

	mu sync.RWMutex
	// byConversation holds the live subscribers keyed by conversation.
	byConversation map[string]map[string]*Subscriber
	stopped        bool
}

// NewHub creates a hub. Call Run to start routing.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:            log.WithComponent("sse"),
		register:       make(chan *Subscriber),
		unregister:     make(chan *Subscriber),
		publish:        make(chan publishMsg, subscriberBuffer),
		done:           make(chan struct{}),
		byConversation: make(map[string]map[string]*Subscriber),
	}
}

// Run drives the hub until Stop is called. Blocks; run it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case sub := <-h.register:
			h.mu.Lock()
			subs, ok := h.byConversation[sub.conversationID]
			if !ok {
				subs = make(map[string]*Subscriber)
				h.byConversation[sub.conversationID] = subs
			}
			subs[sub.id] = sub
			h.mu.Unlock()
			h.log.Debug("subscriber registered", logger.Fields(
				"subscriber_id", sub.id,
				"conversation_id", sub.conversationID,
			))

		case sub := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.byConversation[sub.conversationID]; ok {
				if _, live := subs[sub.id]; live {
					delete(subs, sub.id)
					close(sub.events)
				}
				if len(subs) == 0 {
					delete(h.byConversation, sub.conversationID)
				}
			}
			h.mu.Unlock()
			h.log.Debug("subscriber unregistered", logger.Fields(
				"subscriber_id", sub.id,
				"conversation_id", sub.conversationID,
			))

		case msg := <-h.publish:
			h.fanOut(msg.conversationID, msg.data)
		}
	}
}

// Stop shuts the hub down, closing every subscriber. Safe to call more
// than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

// Register adds a subscriber to the hub.
func (h *Hub) Register(sub *Subscriber) {
	select {
	case h.register <- sub:
	case <-h.done:
	}
}

// Unregister removes a subscriber and closes its event channel.
func (h *Hub) Unregister(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish queues data for every subscriber of the conversation. Never
// blocks the caller: when the hub's queue is full the event is dropped.
func (h *Hub) Publish(conversationID string, data []byte) {
	select {
	case h.publish <- publishMsg{conversationID: conversationID, data: data}:
	case <-h.done:
	default:
		h.log.Warn("publish queue full, dropping event", logger.Fields(
			"conversation_id", conversationID,
		))
	}
}

// SubscriberCount returns the number of live subscribers for the
// conversation.
func (h *Hub) SubscriberCount(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byConversation[conversationID])
}

func (h *Hub) fanOut(conversationID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.byConversation[conversationID] {
		if !sub.send(data) {
			h.log.Warn("subscriber queue full, dropping event", logger.Fields(
				"subscriber_id", sub.id,
				"conversation_id", conversationID,
			))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.byConversation {
		for id, sub := range subs {
			close(sub.events)
			delete(subs, id)
		}
	}
	h.byConversation = make(map[string]map[string]*Subscriber)
}

package stream

import (
	"time"

	"github.com/tandemlab/converse/recognizer"
)

// Session is the live binding between a recording conversation and an open
// recognizer channel. The registry is its sole owner; the channel handle is
// exclusive to this session.
type Session struct {
	ID             string
	ConversationID string
	Channel        recognizer.Channel
	CreatedAt      time.Time

	// lastActivity guards the TTL sweep. Written under the registry mutex.
	lastActivity time.Time
}

// Age returns the time since the session's last activity.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.lastActivity)
}

package sentiment

import "context"

// Store persists analysis results.
type Store interface {
	// GetByConversation returns the result for a conversation, or a
	// NOT_FOUND error when none exists.
	GetByConversation(ctx context.Context, conversationID string) (*Result, error)

	// Save upserts the result keyed by conversation.
	Save(ctx context.Context, r *Result) error

	// ListPriorCompleted returns up to limit completed results for the
	// partnership, most recent first, excluding the named conversation.
	// Speaker order is normalized: a partnership recorded as (a, b)
	// matches a query for (b, a).
	ListPriorCompleted(ctx context.Context, speaker1ID, speaker2ID, excludeConversationID string, limit int) ([]Result, error)
}

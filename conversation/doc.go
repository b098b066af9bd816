// Package conversation owns the durable records of a recorded talk: the
// conversation itself, its transcript lines, and the state machines that
// govern them.
//
// Two independent status axes live on a conversation. The recording axis
// (ready → active ⇄ paused → completed) tracks capture; the summary axis
// ("" → waiting_confirmation → generated|skipped) starts only after the
// recording axis is completed. Transitions are strict: an attempt from the
// wrong state fails with INVALID_TRANSITION rather than silently no-oping,
// because a skipped stage would produce a summary with unconfirmed speakers.
//
// Concurrent transition attempts serialize at the storage layer with
// guarded updates: a transition succeeds only if the stored state still
// matches the expected pre-state.
package conversation

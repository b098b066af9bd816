package recognizer

import "context"

// Channel is an exclusively owned duplex handle to one recognition stream.
//
// Writes preserve arrival order and may block on backpressure from the
// recognizer; callers must not hold shared locks across Write. CloseSend
// flushes and half-closes the outbound side; the recognizer finishes
// emitting events and then closes the Events channel.
type Channel interface {
	// Write sends one audio chunk. The chunk must not exceed the provider's
	// maximum payload size; splitting is the caller's responsibility.
	Write(ctx context.Context, chunk []byte) error

	// CloseSend gracefully terminates the outbound stream. Idempotent.
	CloseSend() error

	// Events returns the inbound transcript event stream. The channel is
	// closed when the recognizer finishes or the stream fails.
	Events() <-chan Event
}

// Provider opens recognition channels.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string

	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool

	// OpenStream opens a new duplex recognition channel.
	OpenStream(ctx context.Context, req StreamRequest) (Channel, error)

	// MaxChunkBytes returns the largest payload one Write may carry.
	MaxChunkBytes() int
}

// Package audio converts a continuous stream of floating-point samples into
// fixed-duration 16-bit PCM frames ready for transport.
//
// The framer buffers incoming samples and emits one frame each time the
// buffer reaches the configured sample count (500 ms of audio by default).
// Partial buffers carry over between calls, so frame boundaries are
// independent of how the input arrives. Concatenating emitted frames in
// order reproduces the input exactly; nothing is dropped or reordered.
package audio

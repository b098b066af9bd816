// Package errors defines the service error taxonomy.
//
// Four classes of failure flow through the capture pipeline:
//
//   - not-found: unknown session or conversation. Recoverable, mapped to 404.
//   - invalid-state: a lifecycle transition attempted from the wrong state.
//     Rejected with the current and requested state, never silently coerced.
//   - upstream-failure: recognizer channel or analysis backend error.
//     Marked retryable; the caller retries at the frame or request level.
//   - input: malformed or missing request fields, mapped to 400.
//
// Insufficient analysis data is deliberately NOT an error: it is a normal
// terminal classification carried in sentiment.Result.
package errors

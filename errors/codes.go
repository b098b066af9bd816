package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates a request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeChannelWriteFailed indicates a write to the recognizer channel failed.
	// The session stays open; the caller may retry with the next frame.
	ErrCodeChannelWriteFailed ErrorCode = "CHANNEL_WRITE_FAILED"
	// ErrCodeExternalService indicates an upstream service returned an error.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Resource errors (not retryable)
const (
	// ErrCodeNotFound indicates the requested resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeSessionNotFound indicates no stream session is registered
	// under the given session id.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrCodeSessionAlreadyOpen indicates a live session already exists
	// for the conversation.
	ErrCodeSessionAlreadyOpen ErrorCode = "SESSION_ALREADY_OPEN"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeConflict indicates a conflict with the current resource state.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// State errors (not retryable)
const (
	// ErrCodeInvalidTransition indicates a lifecycle transition was attempted
	// from a state that does not allow it.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	// ErrCodeDiarizationLocked indicates speaker attribution can no longer be
	// edited because the summary sub-state is terminal.
	ErrCodeDiarizationLocked ErrorCode = "DIARIZATION_LOCKED"
)

// Input errors (not retryable)
const (
	// ErrCodeInvalidInput indicates invalid request input.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeRateLimited indicates the client exceeded its request budget.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeDatabaseError indicates a database operation failed.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// retryableCodes maps the codes that callers may safely retry.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeChannelWriteFailed: true,
	ErrCodeExternalService:    true,
	ErrCodeDatabaseError:      true,
}

// IsRetryableCode reports whether operations failing with the code may be retried.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

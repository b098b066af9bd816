package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := SessionNotFound("sess-1")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("session-not-found must not be retryable")
	}
	if err.Details["session_id"] != "sess-1" {
		t.Errorf("expected session_id detail, got %v", err.Details)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ChannelWriteFailed("sess-1", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !err.Retryable {
		t.Error("channel write failures must be retryable")
	}
}

func TestInvalidTransition(t *testing.T) {
	err := InvalidTransition("generated", "waiting_confirmation")
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d", err.HTTPStatus)
	}
	if err.Details["current_state"] != "generated" {
		t.Errorf("expected current_state detail, got %v", err.Details)
	}
	if err.Details["requested_state"] != "waiting_confirmation" {
		t.Errorf("expected requested_state detail, got %v", err.Details)
	}
}

func TestHasCode(t *testing.T) {
	err := SessionAlreadyOpen("conv-1")
	wrapped := fmt.Errorf("open: %w", err)

	if !HasCode(wrapped, ErrCodeSessionAlreadyOpen) {
		t.Error("expected HasCode to match through wrapping")
	}
	if HasCode(wrapped, ErrCodeSessionNotFound) {
		t.Error("expected HasCode to reject a different code")
	}
	if HasCode(errors.New("plain"), ErrCodeSessionNotFound) {
		t.Error("expected HasCode to reject plain errors")
	}
}

func TestIsRetryableCode(t *testing.T) {
	retryable := []ErrorCode{ErrCodeChannelWriteFailed, ErrCodeExternalService, ErrCodeTimeout}
	for _, c := range retryable {
		if !IsRetryableCode(c) {
			t.Errorf("expected %s retryable", c)
		}
	}
	final := []ErrorCode{ErrCodeInvalidTransition, ErrCodeSessionAlreadyOpen, ErrCodeDiarizationLocked}
	for _, c := range final {
		if IsRetryableCode(c) {
			t.Errorf("expected %s not retryable", c)
		}
	}
}

func TestToResponse(t *testing.T) {
	resp := DiarizationLocked("conv-2").ToResponse()
	if resp.Error.Code != ErrCodeDiarizationLocked {
		t.Errorf("unexpected code %s", resp.Error.Code)
	}
	if resp.Error.Details["conversation_id"] != "conv-2" {
		t.Errorf("expected conversation_id detail, got %v", resp.Error.Details)
	}
}

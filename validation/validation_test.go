package validation

import (
	"testing"

	"github.com/tandemlab/converse/errors"
)

type frameRequest struct {
	SessionID     string `json:"sessionId" validate:"required,uuid"`
	FrameSequence int64  `json:"frameSequence" validate:"min=0"`
	AudioBytes    string `json:"audioBytes" validate:"required,base64"`
}

func TestValidate_OK(t *testing.T) {
	req := frameRequest{
		SessionID:     "7f9c24e5-2f31-4bcf-9f3a-9a0d3e5b6c7d",
		FrameSequence: 3,
		AudioBytes:    "AAAA",
	}
	if err := Validate(req); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	req := frameRequest{SessionID: "not-a-uuid", FrameSequence: -1}
	err := Validate(req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected field details, got %v", appErr.Details)
	}
	if len(fields) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(fields), fields)
	}
}

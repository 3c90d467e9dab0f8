package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "invalid frame range")

	if err.Code != CodeValidation {
		t.Errorf("expected code=%s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "invalid frame range" {
		t.Errorf("expected message='invalid frame range', got %s", err.Message)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("job", "abc-123")

	if err.Code != CodeNotFound {
		t.Errorf("expected code=%s, got %s", CodeNotFound, err.Code)
	}
	if !strings.Contains(err.Message, "job not found: abc-123") {
		t.Errorf("unexpected message: %s", err.Message)
	}
	if err.Fields["id"] != "abc-123" {
		t.Errorf("expected id field, got %v", err.Fields["id"])
	}
	if !IsNotFound(err) {
		t.Error("expected IsNotFound to be true")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeValidation, "invalid"),
			contains: []string{"VALIDATION_ERROR", "invalid"},
		},
		{
			name: "error with op",
			err: &Error{
				Code:    CodeInternal,
				Message: "redis failed",
				Op:      "broker.enqueue",
			},
			contains: []string{"broker.enqueue", "INTERNAL_ERROR", "redis failed"},
		},
		{
			name: "error with underlying",
			err: &Error{
				Code:    CodeInternal,
				Message: "wrapper",
				Err:     fmt.Errorf("underlying error"),
			},
			contains: []string{"wrapper", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrapPreservesCode(t *testing.T) {
	original := NotFound("job directory", "xyz")
	wrapped := Wrap(original, "layout.find", "lookup failed")

	if wrapped.Code != CodeNotFound {
		t.Errorf("expected wrapped code=%s, got %s", CodeNotFound, wrapped.Code)
	}
	if !IsNotFound(wrapped) {
		t.Error("expected IsNotFound through wrapping")
	}
	if !Is(wrapped, original) {
		t.Error("expected wrapped error to match original via Is")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "op", "msg") != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("disk full"), "layout.create", "mkdir failed")

	if wrapped.Code != CodeInternal {
		t.Errorf("expected default internal code, got %s", wrapped.Code)
	}
	if !strings.Contains(wrapped.Error(), "disk full") {
		t.Errorf("expected underlying error in message, got %s", wrapped.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, 400},
		{CodeBadRequest, 400},
		{CodeNotFound, 404},
		{CodeUnavailable, 503},
		{CodeTimeout, 504},
		{CodeInternal, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			got := (&Error{Code: tt.code}).HTTPStatus()
			if got != tt.want {
				t.Errorf("HTTPStatus(%s)=%d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(fmt.Errorf("plain")) != CodeInternal {
		t.Error("expected plain errors to map to internal code")
	}
	if GetCode(Validation("bad")) != CodeValidation {
		t.Error("expected validation code")
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("end_frame", "must be >= start_frame")

	if !IsValidation(err) {
		t.Error("expected validation error")
	}
	if err.Fields["field"] != "end_frame" {
		t.Errorf("expected field name in fields, got %v", err.Fields["field"])
	}
}

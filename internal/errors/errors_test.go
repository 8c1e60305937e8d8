package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := NewAIError(ErrCodeAIStreamFailed, "stream broke", cause)

	expected := "AI_STREAM_FAILED: stream broke (caused by: unexpected EOF)"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if err.Unwrap() != cause {
		t.Errorf("Expected Unwrap to return the cause")
	}

	plain := NewValidationError(ErrCodeMissingTargetRole, "target role is required", nil)
	if plain.Error() != "MISSING_TARGET_ROLE: target role is required" {
		t.Errorf("Unexpected message: %s", plain.Error())
	}
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	base := NewIOError(ErrCodeScannedPDF, "scanned", nil)
	wrapped := fmt.Errorf("parse upload: %w", base)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("Expected AppError to be found through wrapping")
	}
	if appErr.Type != ErrorTypeIO {
		t.Errorf("Expected type io, got %s", appErr.Type)
	}
	if !HasCode(wrapped, ErrCodeScannedPDF) {
		t.Error("Expected HasCode to match")
	}
	if HasCode(wrapped, ErrCodePDFUnreadable) {
		t.Error("Expected HasCode not to match a different code")
	}
	if HasCode(io.EOF, ErrCodeScannedPDF) {
		t.Error("Expected HasCode to be false for a plain error")
	}
}

func TestLogErrorExpandsAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewAIError(ErrCodeAnalysisUnparsable, "no usable fields", io.EOF).
		WithContext("analysis_id", "abc")
	logger.LogError(err, "roast failed", "provider", "mock")

	var record map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), jsonErr)
	}

	checks := map[string]string{
		"msg":           "roast failed",
		"error_type":    "ai",
		"error_code":    ErrCodeAnalysisUnparsable,
		"error_message": "no usable fields",
		"error_cause":   "EOF",
		"analysis_id":   "abc",
		"provider":      "mock",
	}
	for key, want := range checks {
		if got, _ := record[key].(string); got != want {
			t.Errorf("Expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

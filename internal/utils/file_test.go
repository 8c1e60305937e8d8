package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumeroast/internal/errors"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(small, []byte("Jane Doe\nGo developer"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		maxSize int64
		wantErr string
	}{
		{"valid", small, DefaultMaxResumeSize, ""},
		{"no limit", small, 0, ""},
		{"empty name", "", 0, "cannot be empty"},
		{"missing", filepath.Join(dir, "nope.txt"), 0, "does not exist"},
		{"directory", dir, 0, "is a directory"},
		{"too large", small, 4, "larger than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.path, tt.maxSize)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFileKinds(t *testing.T) {
	if !IsTextFile("cv.MD") {
		t.Error("Expected .MD to be text")
	}
	if IsTextFile("cv.pdf") {
		t.Error("Expected .pdf not to be text")
	}
	if !IsPDFFile("CV.PDF") {
		t.Error("Expected .PDF to be a PDF")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for size, want := range tests {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d): expected %q, got %q", size, want, got)
		}
	}
}

func TestExtractResumeTextPlain(t *testing.T) {
	text, err := ExtractResumeText("resume.txt", []byte("\n  Jane Doe\nSkills: Go  \n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "Jane Doe\nSkills: Go" {
		t.Errorf("Unexpected text %q", text)
	}

	if _, err := ExtractResumeText("resume.txt", []byte("   \n")); !errors.HasCode(err, errors.ErrCodeEmptyResume) {
		t.Errorf("Expected EMPTY_RESUME, got %v", err)
	}
	if _, err := ExtractResumeText("resume.bin", []byte{0xff, 0xfe, 0x00}); !errors.HasCode(err, errors.ErrCodeUnsupportedFormat) {
		t.Errorf("Expected UNSUPPORTED_FORMAT, got %v", err)
	}
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	_, err := ExtractResumeText("resume.pdf", []byte("%PDF-1.4\nthis is not really a pdf"))
	if !errors.HasCode(err, errors.ErrCodePDFUnreadable) {
		t.Errorf("Expected PDF_UNREADABLE, got %v", err)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	input := "Jane  Doe\r\n\r\n\r\n\r\nExperience\t\t\n  Acme Corp  "
	want := "Jane Doe\n\nExperience\nAcme Corp"
	if got := NormalizeWhitespace(input); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

package common

import (
	"strings"
	"testing"

	"resumeroast/internal/ai"
	"resumeroast/internal/diff"
	"resumeroast/internal/sections"
)

var configuredFormats = []string{"json", "text", "markdown", "yaml"}

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: configuredFormats},
		{name: "yaml", format: "yaml", supportedFormats: configuredFormats},
		{
			name:             "patch is not a configured roast format",
			format:           "patch",
			supportedFormats: configuredFormats,
			expectedError:    "unsupported output format 'patch'. Supported formats: [json text markdown yaml]",
		},
		{
			name:             "case sensitive",
			format:           "JSON",
			supportedFormats: configuredFormats,
			expectedError:    "unsupported output format 'JSON'. Supported formats: [json text markdown yaml]",
		},
		{
			name:             "empty format string",
			format:           "",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format ''. Supported formats: [json]",
		},
		{name: "no restrictions configured", format: "xml", supportedFormats: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)

			if tt.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, err.Error())
			}
		})
	}
}

func TestValidateFormatFor(t *testing.T) {
	tests := []struct {
		name   string
		format string
		sample any
		valid  bool
	}{
		{"diff as patch", "patch", diff.Result{}, true},
		{"diff sections as ansi", "ansi", []diff.Result{}, true},
		{"roast as markdown", "markdown", &ai.RoastResult{}, true},
		{"roast as patch", "patch", &ai.RoastResult{}, false},
		{"sections as yaml", "yaml", []sections.Detected{}, true},
		{"sections as ansi", "ansi", []sections.Detected{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormatFor(tt.format, tt.sample)
			if tt.valid && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !strings.Contains(err.Error(), "json") {
					t.Errorf("Expected error to list supported formats, got %v", err)
				}
			}
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	result := GetSupportedFormats(configuredFormats)
	if strings.Join(result, ",") != "json,text,markdown,yaml" {
		t.Errorf("Expected configured formats unchanged, got %v", result)
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", configuredFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", configuredFormats)
		}
	})
}

package common

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumeroast/internal/ai"
	"resumeroast/internal/config"
	"resumeroast/internal/errors"
	"resumeroast/internal/sections"
	"resumeroast/internal/types"
)

const resumeText = `Jane Doe

Summary
Hard-working team player.

Experience
Maintained the payments API.
`

func newTestLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelError)
}

func writeResume(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func detectSections(_ context.Context, text string) ([]sections.Detected, *ai.TokenUsage, error) {
	return sections.Detect(text), nil, nil
}

func firstFile(contents []string) (string, error) {
	return contents[0], nil
}

func TestRunCommandWritesToStdout(t *testing.T) {
	var out bytes.Buffer
	cfg := CommandConfig{OutputFormat: "text", Stdout: &out}

	err := RunCommand(context.Background(), newTestLogger(), cfg,
		[]string{writeResume(t, "resume.txt", resumeText)}, firstFile, detectSections, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "=== SECTIONS (2) ===") {
		t.Errorf("Expected sections listing, got:\n%s", out.String())
	}
}

func TestRunCommandWritesToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "nested", "sections.json")
	cfg := CommandConfig{OutputFormat: "json", OutputFile: output}

	err := RunCommand(context.Background(), newTestLogger(), cfg,
		[]string{writeResume(t, "resume.md", resumeText)}, firstFile, detectSections, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Expected output file, got %v", err)
	}
	var detected []sections.Detected
	if err := json.Unmarshal(data, &detected); err != nil {
		t.Fatalf("Expected JSON output, got %v", err)
	}
	if len(detected) != 2 || detected[1].Name != "Experience" {
		t.Errorf("Unexpected sections %+v", detected)
	}
}

func TestRunCommandFileErrors(t *testing.T) {
	large := writeResume(t, "large.txt", strings.Repeat("x", 64))

	tests := []struct {
		name    string
		file    string
		maxSize int64
		code    string
	}{
		{"missing", filepath.Join(t.TempDir(), "nope.txt"), 0, errors.ErrCodeFileNotFound},
		{"too large", large, 16, errors.ErrCodeFileTooLarge},
		{"empty", writeResume(t, "empty.txt", "  \n"), 0, errors.ErrCodeEmptyResume},
		{"binary", writeResume(t, "resume.bin", "\xff\xfe\x00"), 0, errors.ErrCodeUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CommandConfig{OutputFormat: "json", MaxFileSize: tt.maxSize, Stdout: io.Discard}
			err := RunCommand(context.Background(), newTestLogger(), cfg, []string{tt.file}, firstFile, detectSections, nil)
			if !errors.HasCode(err, tt.code) {
				t.Errorf("Expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestRunCommandRejectsUnsupportedFormat(t *testing.T) {
	cfg := CommandConfig{OutputFormat: "patch", Stdout: io.Discard}
	err := RunCommand(context.Background(), newTestLogger(), cfg,
		[]string{writeResume(t, "resume.txt", resumeText)}, firstFile, detectSections, nil)
	if !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Expected INVALID_FORMAT, got %v", err)
	}
}

func TestRunCommandWithMockRoast(t *testing.T) {
	service, err := ai.NewService(&config.AIConfig{
		Provider:      config.ProviderMock,
		Model:         "mock-roast",
		Timeout:       5 * time.Second,
		MockChunkSize: 32,
	}, nil, nil, newTestLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	createInput := func(contents []string) (*types.AnalysisRequest, error) {
		return &types.AnalysisRequest{ResumeText: contents[0], TargetRole: "Backend Engineer"}, nil
	}
	partials := 0
	roast := func(ctx context.Context, req *types.AnalysisRequest) (*ai.RoastResult, *ai.TokenUsage, error) {
		result, err := service.Roast(ctx, req, func(*types.PartialAnalysis) { partials++ })
		if err != nil {
			return nil, nil, err
		}
		return result, result.Usage, nil
	}

	var out bytes.Buffer
	cfg := CommandConfig{OutputFormat: "markdown", Stdout: &out}
	var logged *types.AnalysisRequest
	err = RunCommand(context.Background(), newTestLogger(), cfg,
		[]string{writeResume(t, "resume.txt", resumeText)}, createInput, roast,
		func(req *types.AnalysisRequest, _ CommandConfig) { logged = req })
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if logged == nil || logged.TargetRole != "Backend Engineer" {
		t.Error("Expected log callback to receive the request")
	}
	if partials == 0 {
		t.Error("Expected partial snapshots during the roast")
	}
	if !strings.Contains(out.String(), "# Resume Roast") || !strings.Contains(out.String(), "58/100") {
		t.Errorf("Unexpected roast output:\n%s", out.String())
	}
}

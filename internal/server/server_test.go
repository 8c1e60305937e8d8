package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"resumeroast/internal/ai"
	"resumeroast/internal/config"
	"resumeroast/internal/diff"
	appErrors "resumeroast/internal/errors"
	"resumeroast/internal/types"
)

const testResume = `Jane Doe

Summary
Hard-working team player with experience in software development.

Experience
Responsible for maintaining the payments API.
`

func newTestLogger() *appErrors.Logger {
	return appErrors.NewLoggerWithWriter(io.Discard, slog.LevelError)
}

func newTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	aiCfg := &config.AIConfig{
		Provider:      config.ProviderMock,
		Model:         "mock-roast",
		Timeout:       5 * time.Second,
		MockChunkSize: 64,
	}
	service, err := ai.NewService(aiCfg, nil, nil, newTestLogger())
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	if cfg.Version == "" {
		cfg.Version = "test"
	}
	s := NewServer(nil, cfg, service, newTestLogger())
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

type sseEvent struct {
	name string
	data string
}

func readEvents(body string) []sseEvent {
	var events []sseEvent
	for _, frame := range strings.Split(body, "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(frame, "\n") {
			if after, ok := strings.CutPrefix(line, "event: "); ok {
				ev.name = after
			} else if after, ok := strings.CutPrefix(line, "data: "); ok {
				ev.data = after
			}
		}
		if ev.name != "" {
			events = append(events, ev)
		}
	}
	return events
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, ServerConfig{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", resp["status"])
	}
	if resp["service"] != serviceName || resp["version"] != "test" {
		t.Errorf("Unexpected service/version %v/%v", resp["service"], resp["version"])
	}
	if _, ok := resp["ai_model"]; !ok {
		t.Error("Expected ai_model in health response")
	}
}

func TestHealthRejectsWrongMethod(t *testing.T) {
	s := newTestServer(t, ServerConfig{})

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	s := newTestServer(t, ServerConfig{APIKeys: []string{"k1", "k2"}, MaxRequestSize: 1024})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Server struct {
			MaxRequestSize int64 `json:"max_request_size_bytes"`
			APIKeys        int   `json:"api_keys_configured"`
		} `json:"server"`
		RateLimiting map[string]any `json:"rate_limiting"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Server.MaxRequestSize != 1024 || resp.Server.APIKeys != 2 {
		t.Errorf("Unexpected server stats %+v", resp.Server)
	}
	if resp.RateLimiting["enabled"] != false {
		t.Errorf("Expected rate limiting disabled, got %v", resp.RateLimiting)
	}
}

func TestParseHandler(t *testing.T) {
	s := newTestServer(t, ServerConfig{MaxFileSize: 64})

	t.Run("text upload", func(t *testing.T) {
		rec := serve(s, uploadRequest(t, "file", "resume.txt", []byte("  Jane Doe\nEngineer  \n")))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp types.ParseResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if !resp.Success || resp.Text != "Jane Doe\nEngineer" {
			t.Errorf("Unexpected parse response %+v", resp)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		rec := serve(s, uploadRequest(t, "document", "resume.txt", []byte("Jane")))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Error != "No file provided" {
			t.Errorf("Expected 'No file provided', got %q", resp.Error)
		}
	})

	t.Run("too large", func(t *testing.T) {
		rec := serve(s, uploadRequest(t, "file", "resume.txt", bytes.Repeat([]byte("a"), 100)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); !strings.HasPrefix(resp.Error, "File too large") {
			t.Errorf("Expected size error, got %q", resp.Error)
		}
	})

	t.Run("unreadable pdf", func(t *testing.T) {
		rec := serve(s, uploadRequest(t, "file", "resume.pdf", []byte("%PDF-1.4 not really")))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Expected status 422, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != appErrors.ErrCodePDFUnreadable {
			t.Errorf("Expected PDF_UNREADABLE, got %q", resp.Code)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		rec := serve(s, uploadRequest(t, "file", "resume.txt", []byte("   \n")))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Expected status 422, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != appErrors.ErrCodeEmptyResume {
			t.Errorf("Expected EMPTY_RESUME, got %q", resp.Code)
		}
	})
}

func TestAnalyzeHandlerStreamsEvents(t *testing.T) {
	s := newTestServer(t, ServerConfig{})

	rec := serve(s, jsonRequest(t, "/api/v1/analyze", types.AnalysisRequest{
		ResumeText: testResume,
		TargetRole: "Backend Engineer",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event stream content type, got %q", ct)
	}

	events := readEvents(rec.Body.String())
	if len(events) < 4 {
		t.Fatalf("Expected at least 4 events, got %d", len(events))
	}
	if events[0].name != "status" || !strings.Contains(events[0].data, "Starting analysis") {
		t.Errorf("Expected starting status first, got %+v", events[0])
	}

	partials := 0
	for _, ev := range events[1 : len(events)-2] {
		if ev.name != "partial" {
			t.Errorf("Expected only partial events mid-stream, got %q", ev.name)
		}
		partials++
	}
	if partials == 0 {
		t.Error("Expected at least one partial event")
	}

	done := events[len(events)-2]
	if done.name != "status" || !strings.Contains(done.data, "Analysis complete") {
		t.Errorf("Expected completion status, got %+v", done)
	}

	final := events[len(events)-1]
	if final.name != "complete" {
		t.Fatalf("Expected complete event last, got %q", final.name)
	}
	var result ai.RoastResult
	if err := json.Unmarshal([]byte(final.data), &result); err != nil {
		t.Fatalf("Failed to decode complete event: %v", err)
	}
	if result.Analysis == nil || result.Analysis.OverallScore == nil {
		t.Errorf("Expected an overall score in the result, got %+v", result.Analysis)
	}
}

func TestAnalyzeHandlerValidation(t *testing.T) {
	s := newTestServer(t, ServerConfig{})

	t.Run("missing role", func(t *testing.T) {
		rec := serve(s, jsonRequest(t, "/api/v1/analyze", types.AnalysisRequest{ResumeText: testResume}))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != appErrors.ErrCodeMissingTargetRole {
			t.Errorf("Expected MISSING_TARGET_ROLE, got %q", resp.Code)
		}
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := serve(s, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rec.Code)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"resumeText":`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rec := serve(s, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rec.Code)
		}
	})
}

func TestDiffHandler(t *testing.T) {
	s := newTestServer(t, ServerConfig{})

	rec := serve(s, jsonRequest(t, "/api/v1/diff", types.DiffRequest{
		Original: "Maintained the API",
		Improved: "Built the API",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var result diff.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result.Stats.HasChanges() {
		t.Errorf("Expected changes, got %+v", result.Stats)
	}
	original, improved := diff.Reconstruct(result.Segments)
	if original != "Maintained the API" || improved != "Built the API" {
		t.Errorf("Expected segments to reconstruct inputs, got %q / %q", original, improved)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, ServerConfig{APIKeys: []string{"secret-key-123"}})
	body := types.DiffRequest{Original: "a", Improved: "b"}

	tests := []struct {
		name   string
		header func(*http.Request)
		want   int
	}{
		{"missing key", func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong key", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, http.StatusUnauthorized},
		{"x-api-key", func(r *http.Request) { r.Header.Set("X-API-Key", "secret-key-123") }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-key-123") }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, "/api/v1/diff", body)
			tt.header(req)
			if rec := serve(s, req); rec.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	// Health stays public
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("Expected public health endpoint, got %d", rec.Code)
	}
}

func TestSetAPIKeysRotation(t *testing.T) {
	s := newTestServer(t, ServerConfig{APIKeys: []string{"old-key"}})
	s.SetAPIKeys([]string{"new-key", ""})

	if s.apiKeyCount() != 1 {
		t.Errorf("Expected 1 key after rotation, got %d", s.apiKeyCount())
	}
	if s.validAPIKey("old-key") {
		t.Error("Expected old key to be rejected after rotation")
	}
	if !s.validAPIKey("new-key") {
		t.Error("Expected new key to be accepted")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, ServerConfig{RateLimit: &config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  1,
		ByIP:           true,
	}})
	body := types.DiffRequest{Original: "a", Improved: "b"}

	if rec := serve(s, jsonRequest(t, "/api/v1/diff", body)); rec.Code != http.StatusOK {
		t.Fatalf("Expected first request to pass, got %d", rec.Code)
	}

	rec := serve(s, jsonRequest(t, "/api/v1/diff", body))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
	}

	other := jsonRequest(t, "/api/v1/diff", body)
	other.RemoteAddr = "198.51.100.7:4000"
	if rec := serve(s, other); rec.Code != http.StatusOK {
		t.Errorf("Expected a different client to have its own budget, got %d", rec.Code)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	s := newTestServer(t, ServerConfig{MaxRequestSize: 32})

	rec := serve(s, jsonRequest(t, "/api/v1/diff", types.DiffRequest{
		Original: strings.Repeat("word ", 20),
		Improved: "short",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); !strings.Contains(resp.Message, "too large") {
		t.Errorf("Expected size limit message, got %q", resp.Message)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s := newTestServer(t, ServerConfig{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if _, err := uuid.Parse(rec.Header().Get("X-Request-ID")); err != nil {
		t.Errorf("Expected generated UUID request id, got %q", rec.Header().Get("X-Request-ID"))
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	if got := serve(s, req).Header().Get("X-Request-ID"); got != id {
		t.Errorf("Expected request id %q to be echoed, got %q", id, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid\r\n")
	if got := serve(s, req).Header().Get("X-Request-ID"); got == "not-a-uuid\r\n" {
		t.Error("Expected malformed request id to be replaced")
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("Expected '****', got %q", got)
	}
	if got := maskAPIKey("abcdefghijkl"); got != "abcdefgh****" {
		t.Errorf("Expected 'abcdefgh****', got %q", got)
	}
}

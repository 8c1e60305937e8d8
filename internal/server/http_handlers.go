package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	appErrors "resumeroast/internal/errors"
)

const serviceName = "resumeroast"

// healthTimeout returns the configured model check timeout
func (s *Server) healthTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout > 0 {
		return s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout
	}
	return 10 * time.Second
}

// healthHandler reports service health including AI model availability.
// An unavailable model marks the service degraded with a 503.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.healthTimeout())
	defer cancel()

	modelInfo := s.Service.GetModelInfo(ctx)
	response := map[string]any{
		"status":   "healthy",
		"service":  serviceName,
		"version":  s.Version,
		"uptime":   time.Since(s.startedAt).Round(time.Second).String(),
		"ai_model": modelInfo,
	}

	if breaker, ok := s.Service.GetStats()["circuit_breaker"]; ok {
		response["circuit_breaker"] = breaker
	}
	if s.PromptWatcher != nil {
		response["prompt_watcher"] = map[string]any{
			"running":       s.PromptWatcher.IsRunning(),
			"watched_files": s.PromptWatcher.WatchedFiles(),
		}
	}
	if s.KeyWatcher != nil {
		response["api_key_watcher"] = s.KeyWatcher.Status()
	}

	status := http.StatusOK
	if modelInfo == nil || !modelInfo.Available {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting and AI service info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": serviceName,
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_file_size_bytes":    s.MaxFileSize,
			"api_keys_configured":    s.apiKeyCount(),
		},
		"ai": s.Service.GetStats(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.AppConfig != nil && s.AppConfig.Prompts != nil {
		response["prompts"] = map[string]any{
			"version": s.AppConfig.Prompts.Version(),
			"sources": s.AppConfig.Prompts.Sources(),
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   error,
		Message: message,
	})
}

// writeAppError writes an AppError's message and code with statusCode.
// Any other error becomes a generic 500 so internal details stay in the logs.
func writeAppError(w http.ResponseWriter, err error, statusCode int) {
	appErr, ok := appErrors.AsAppError(err)
	if !ok {
		writeErrorResponse(w, "An unexpected error occurred. Please try again.", "", http.StatusInternalServerError)
		return
	}
	writeJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
	})
}

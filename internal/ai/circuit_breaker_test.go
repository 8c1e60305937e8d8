package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"resumeroast/internal/config"
	appErrors "resumeroast/internal/errors"
)

func newTestLogger() *appErrors.Logger {
	return appErrors.NewLoggerWithWriter(io.Discard, slog.LevelError)
}

func breakerConfig() *config.CircuitBreakerConfig {
	return &config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
}

func TestBreakerTripsAfterFailures(t *testing.T) {
	cb := NewBreaker[*TokenUsage]("Test", breakerConfig(), newTestLogger())
	failure := errors.New("upstream down")

	for range 2 {
		if _, err := cb.Execute(func() (*TokenUsage, error) { return nil, failure }); !errors.Is(err, failure) {
			t.Fatalf("Expected upstream error, got %v", err)
		}
	}

	if cb.IsHealthy() {
		t.Error("Expected breaker to be open after repeated failures")
	}

	called := false
	_, err := cb.Execute(func() (*TokenUsage, error) {
		called = true
		return &TokenUsage{}, nil
	})
	if called {
		t.Error("Expected open breaker to reject the call")
	}
	if !IsOpenError(err) {
		t.Errorf("Expected open state error, got %v", err)
	}

	stats := cb.GetStats()
	if stats["name"] != "AI-Test" {
		t.Errorf("Expected name 'AI-Test', got %v", stats["name"])
	}
	if stats["state"] != "open" {
		t.Errorf("Expected state 'open', got %v", stats["state"])
	}
}

func TestBreakerIgnoresCallerErrors(t *testing.T) {
	cb := NewBreaker[*TokenUsage]("Caller", breakerConfig(), newTestLogger())

	callerErrors := []error{
		context.Canceled,
		&consumerError{err: errors.New("client went away")},
	}
	for range 3 {
		for _, callerErr := range callerErrors {
			_, _ = cb.Execute(func() (*TokenUsage, error) { return nil, callerErr })
		}
	}

	if !cb.IsHealthy() {
		t.Error("Expected caller errors not to trip the breaker")
	}
}

func TestDisabledBreaker(t *testing.T) {
	cfg := breakerConfig()
	cfg.Enabled = false

	cb := NewBreaker[*TokenUsage]("Disabled", cfg, newTestLogger())
	if cb != nil {
		t.Fatal("Expected nil breaker when disabled")
	}

	usage, err := cb.Execute(func() (*TokenUsage, error) { return &TokenUsage{TotalTokens: 3}, nil })
	if err != nil || usage.TotalTokens != 3 {
		t.Errorf("Expected nil breaker to run the call directly, got %v, %v", usage, err)
	}
	if !cb.IsHealthy() {
		t.Error("Expected nil breaker to be healthy")
	}
	if enabled := cb.GetStats()["enabled"]; enabled != false {
		t.Errorf("Expected enabled=false, got %v", enabled)
	}
}

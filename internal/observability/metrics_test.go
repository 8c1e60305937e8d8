package observability

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"resumeroast/internal/config"
)

func allMetricsEnabled() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations: config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
		Streaming:    config.StreamingMetricsConfig{Enabled: true, TrackChunks: true, TrackPartials: true, TrackFinalizeMethod: true},
		BusinessMetrics: config.BusinessMetricsConfig{
			Enabled: true, TrackSuccessRates: true, TrackContentSizes: true, TrackDiffs: true,
		},
		Infrastructure: config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true},
	}
}

func newTestMetrics(t *testing.T, flags config.CustomMetricsConfig) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"), flags)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	return m, reader
}

// counterTotal sums all data points of the named Int64 sum metric
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestStreamingMetrics(t *testing.T) {
	m, reader := newTestMetrics(t, allMetricsEnabled())
	ctx := context.Background()

	m.RecordStreamChunk(ctx, 10)
	m.RecordStreamChunk(ctx, 5)
	m.RecordPartial(ctx)
	m.RecordFinalize(ctx, "strict", false)

	if got := counterTotal(t, reader, "resumeroast_stream_chunks_total"); got != 2 {
		t.Errorf("Expected 2 chunks, got %d", got)
	}
	if got := counterTotal(t, reader, "resumeroast_stream_bytes_total"); got != 15 {
		t.Errorf("Expected 15 bytes, got %d", got)
	}
	if got := counterTotal(t, reader, "resumeroast_partials_emitted_total"); got != 1 {
		t.Errorf("Expected 1 partial, got %d", got)
	}
	if got := counterTotal(t, reader, "resumeroast_finalize_total"); got != 1 {
		t.Errorf("Expected 1 finalize, got %d", got)
	}
}

func TestDisabledGroupsRecordNothing(t *testing.T) {
	m, reader := newTestMetrics(t, config.CustomMetricsConfig{})
	ctx := context.Background()

	m.RecordStreamChunk(ctx, 10)
	m.RecordDiff(ctx, "cli", 4)
	m.RecordRateLimitHit(ctx, "/api/v1/analyze")

	for _, name := range []string{
		"resumeroast_stream_chunks_total",
		"resumeroast_diffs_total",
		"resumeroast_rate_limit_hits_total",
	} {
		if got := counterTotal(t, reader, name); got != 0 {
			t.Errorf("Expected %s to be 0, got %d", name, got)
		}
	}
}

func TestTrackAIOperationWithTokens(t *testing.T) {
	m, reader := newTestMetrics(t, allMetricsEnabled())
	wantErr := errors.New("boom")

	err := m.TrackAIOperationWithTokens(context.Background(), "roast", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &TokenUsage{InputTokens: 3, OutputTokens: 4, TotalTokens: 7}}
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err = m.TrackAIOperationWithTokens(context.Background(), "roast", func(ctx context.Context) *AIOperationResult {
		return &AIOperationResult{Error: wantErr}
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected wrapped operation error, got %v", err)
	}

	if got := counterTotal(t, reader, "resumeroast_ai_requests_total"); got != 2 {
		t.Errorf("Expected 2 requests, got %d", got)
	}
	if got := counterTotal(t, reader, "resumeroast_ai_errors_total"); got != 1 {
		t.Errorf("Expected 1 error, got %d", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordStreamChunk(ctx, 1)
	m.RecordPartial(ctx)
	m.RecordFinalize(ctx, "partial", true)
	m.RecordRoast(ctx, true, "mock")
	m.RecordResumeParsed(ctx, "pdf", 100, true)
	m.RecordDiff(ctx, "http", 3)
	m.RecordRateLimitHit(ctx, "/")

	called := false
	err := m.TrackAIOperationWithTokens(ctx, "roast", func(ctx context.Context) *AIOperationResult {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("Expected operation to run without error, called=%v err=%v", called, err)
	}
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(GetObservabilityConfig(nil, "test"), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if om.GetMetrics() != nil {
		t.Error("Expected nil metrics for disabled manager")
	}
	if om.Tracer("x") == nil {
		t.Error("Expected a no-op tracer")
	}
	if err := om.Shutdown(context.Background()); err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.ServiceName = "resumeroast"
	cfg.Observability.Enabled = true
	cfg.Observability.SampleRate = 0.5
	cfg.Observability.Tracing.Enabled = true
	cfg.Observability.Tracing.SampleRate = 0.25
	cfg.Observability.CustomMetrics = allMetricsEnabled()

	obs := GetObservabilityConfig(cfg, "1.2.3")
	if obs.ServiceVersion != "1.2.3" {
		t.Errorf("Expected version fallback, got %q", obs.ServiceVersion)
	}
	if obs.SampleRate != 0.25 {
		t.Errorf("Expected tracing sample rate, got %v", obs.SampleRate)
	}
	if obs.CustomMetrics.Streaming.Enabled {
		t.Error("Expected custom metrics cleared when metrics are disabled")
	}
}

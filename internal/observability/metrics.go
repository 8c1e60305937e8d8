package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"resumeroast/internal/config"
)

// Metrics holds all custom metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	flags config.CustomMetricsConfig

	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Stream parser metrics
	StreamChunks     metric.Int64Counter
	StreamBytes      metric.Int64Counter
	PartialsEmitted  metric.Int64Counter
	FinalizeOutcomes metric.Int64Counter

	// Business metrics
	RoastsCompleted metric.Int64Counter
	ResumesParsed   metric.Int64Counter
	ResumeSize      metric.Int64Histogram
	DiffsComputed   metric.Int64Counter
	DiffSegments    metric.Int64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// NewMetrics creates every instrument on the given meter. Groups disabled in
// flags are still created but never recorded.
func NewMetrics(meter metric.Meter, flags config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{flags: flags}

	if err := m.createAIMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createStreamingMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createBusinessMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createInfrastructureMetrics(meter); err != nil {
		return nil, err
	}
	return m, nil
}

// createAIMetrics creates AI-related metrics
func (m *Metrics) createAIMetrics(meter metric.Meter) error {
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"resumeroast_ai_processing_duration_seconds",
		metric.WithDescription("Time spent streaming an AI analysis"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"resumeroast_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"resumeroast_ai_errors_total",
		metric.WithDescription("Total number of AI errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"resumeroast_ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return nil
}

// createStreamingMetrics creates stream parser metrics
func (m *Metrics) createStreamingMetrics(meter metric.Meter) error {
	var err error

	m.StreamChunks, err = meter.Int64Counter(
		"resumeroast_stream_chunks_total",
		metric.WithDescription("Number of text chunks received from the model"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stream chunks metric: %w", err)
	}

	m.StreamBytes, err = meter.Int64Counter(
		"resumeroast_stream_bytes_total",
		metric.WithDescription("Bytes of model output received"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stream bytes metric: %w", err)
	}

	m.PartialsEmitted, err = meter.Int64Counter(
		"resumeroast_partials_emitted_total",
		metric.WithDescription("Partial analyses delivered to clients"),
	)
	if err != nil {
		return fmt.Errorf("failed to create partials metric: %w", err)
	}

	m.FinalizeOutcomes, err = meter.Int64Counter(
		"resumeroast_finalize_total",
		metric.WithDescription("Finalized analyses by recovery method"),
	)
	if err != nil {
		return fmt.Errorf("failed to create finalize metric: %w", err)
	}

	return nil
}

// createBusinessMetrics creates business-related metrics
func (m *Metrics) createBusinessMetrics(meter metric.Meter) error {
	var err error

	m.RoastsCompleted, err = meter.Int64Counter(
		"resumeroast_roasts_total",
		metric.WithDescription("Total number of resume roasts"),
	)
	if err != nil {
		return fmt.Errorf("failed to create roasts metric: %w", err)
	}

	m.ResumesParsed, err = meter.Int64Counter(
		"resumeroast_resumes_parsed_total",
		metric.WithDescription("Total number of uploaded resumes parsed"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resumes parsed metric: %w", err)
	}

	m.ResumeSize, err = meter.Int64Histogram(
		"resumeroast_resume_size_bytes",
		metric.WithDescription("Size of uploaded resumes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resume size metric: %w", err)
	}

	m.DiffsComputed, err = meter.Int64Counter(
		"resumeroast_diffs_total",
		metric.WithDescription("Total number of word diffs computed"),
	)
	if err != nil {
		return fmt.Errorf("failed to create diffs metric: %w", err)
	}

	m.DiffSegments, err = meter.Int64Histogram(
		"resumeroast_diff_segments",
		metric.WithDescription("Segments produced per word diff"),
	)
	if err != nil {
		return fmt.Errorf("failed to create diff segments metric: %w", err)
	}

	return nil
}

// createInfrastructureMetrics creates infrastructure-related metrics
func (m *Metrics) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	m.RateLimitHits, err = meter.Int64Counter(
		"resumeroast_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// TrackAIOperationWithTokens instruments an AI operation with tracing, metrics, and token usage
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult, attributes ...attribute.KeyValue) error {
	tracer := otel.Tracer("resumeroast.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if m != nil && m.flags.AIOperations.Enabled {
		m.recordAIMetrics(ctx, operation, err, duration, result, span, attributes)
	}
	return err
}

// recordAIMetrics records all AI-related metrics
func (m *Metrics) recordAIMetrics(ctx context.Context, operation string, err error, duration float64, result *AIOperationResult, span oteltrace.Span, extra []attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}, extra...)

	if m.flags.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.recordTokenUsage(ctx, result, attrs, span)

	span.SetAttributes(attrs...)
}

// recordTokenUsage records token usage metrics and span attributes
func (m *Metrics) recordTokenUsage(ctx context.Context, result *AIOperationResult, attrs []attribute.KeyValue, span oteltrace.Span) {
	if result == nil || result.TokenUsage == nil {
		return
	}

	if m.flags.AIOperations.TrackTokenUsage {
		tokenTypes := []struct {
			tokenType string
			value     int64
		}{
			{"input", result.TokenUsage.InputTokens},
			{"output", result.TokenUsage.OutputTokens},
			{"total", result.TokenUsage.TotalTokens},
		}
		for _, tt := range tokenTypes {
			tokenAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("token_type", tt.tokenType))
			m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
		}
	}

	span.SetAttributes(
		attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
		attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
		attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
	)
}

// RecordStreamChunk counts one chunk of model output
func (m *Metrics) RecordStreamChunk(ctx context.Context, size int) {
	if m == nil || !m.flags.Streaming.Enabled || !m.flags.Streaming.TrackChunks {
		return
	}
	m.StreamChunks.Add(ctx, 1)
	m.StreamBytes.Add(ctx, int64(size))
}

// RecordPartial counts one partial analysis delivered to a client
func (m *Metrics) RecordPartial(ctx context.Context) {
	if m == nil || !m.flags.Streaming.Enabled || !m.flags.Streaming.TrackPartials {
		return
	}
	m.PartialsEmitted.Add(ctx, 1)
}

// RecordFinalize counts a finalized stream by the method that produced it
func (m *Metrics) RecordFinalize(ctx context.Context, method string, empty bool) {
	if m == nil || !m.flags.Streaming.Enabled || !m.flags.Streaming.TrackFinalizeMethod {
		return
	}
	m.FinalizeOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("empty", empty),
	))
}

// RecordRoast counts a completed roast request
func (m *Metrics) RecordRoast(ctx context.Context, success bool, provider string) {
	if m == nil || !m.flags.BusinessMetrics.Enabled {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("provider", provider)}
	if m.flags.BusinessMetrics.TrackSuccessRates {
		attrs = append(attrs, attribute.Bool("success", success))
	}
	m.RoastsCompleted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordResumeParsed counts an uploaded resume and optionally its size
func (m *Metrics) RecordResumeParsed(ctx context.Context, kind string, size int64, success bool) {
	if m == nil || !m.flags.BusinessMetrics.Enabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind), attribute.Bool("success", success))
	m.ResumesParsed.Add(ctx, 1, attrs)
	if m.flags.BusinessMetrics.TrackContentSizes {
		m.ResumeSize.Record(ctx, size, attrs)
	}
}

// RecordDiff counts a computed diff and the number of segments it produced
func (m *Metrics) RecordDiff(ctx context.Context, source string, segments int) {
	if m == nil || !m.flags.BusinessMetrics.Enabled || !m.flags.BusinessMetrics.TrackDiffs {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.DiffsComputed.Add(ctx, 1, attrs)
	m.DiffSegments.Record(ctx, int64(segments), attrs)
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, endpoint string) {
	if m == nil || !m.flags.Infrastructure.Enabled || !m.flags.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

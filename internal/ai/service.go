package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"resumeroast/internal/config"
	"resumeroast/internal/diff"
	"resumeroast/internal/errors"
	"resumeroast/internal/observability"
	"resumeroast/internal/sections"
	"resumeroast/internal/stream"
	"resumeroast/internal/types"
)

// RewrittenSummaryDiff names the diff between the resume's own summary and
// the model's rewrittenSummary.
const RewrittenSummaryDiff = "Rewritten Summary"

// SectionDiff is the word diff of one section's original and improved text
type SectionDiff struct {
	Name     string         `json:"name" yaml:"name"`
	Segments []diff.Segment `json:"segments" yaml:"segments"`
	Stats    diff.Summary   `json:"stats" yaml:"stats"`
}

// RoastResult is the outcome of a completed roast
type RoastResult struct {
	ID           string                 `json:"id" yaml:"id"`
	Analysis     *types.PartialAnalysis `json:"analysis" yaml:"analysis"`
	Method       stream.Method          `json:"method" yaml:"method"`
	Usage        *TokenUsage            `json:"usage,omitempty" yaml:"usage,omitempty"`
	SectionDiffs []SectionDiff          `json:"sectionDiffs,omitempty" yaml:"sectionDiffs,omitempty"`
	Warnings     []string               `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Model        string                 `json:"model" yaml:"model"`
	Provider     string                 `json:"provider" yaml:"provider"`
	DurationMs   int64                  `json:"durationMs" yaml:"durationMs"`
}

// Service runs resume roasts against a StreamProvider
type Service struct {
	Provider StreamProvider // Exported for access from server package
	config   *config.AIConfig
	metrics  *observability.Metrics
	logger   *errors.Logger
}

// NewService creates a new AI service for the configured provider. metrics may be nil.
func NewService(cfg *config.AIConfig, prompts *config.PromptStore, metrics *observability.Metrics, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"base_url", cfg.BaseURL,
		"temperature", cfg.Temperature,
		"max_tokens", cfg.MaxTokens,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries)

	builder := NewPromptBuilder(prompts)

	var provider StreamProvider
	var err error

	switch cfg.Provider {
	case config.ProviderGemini:
		provider, err = NewGeminiProvider(cfg, builder, logger)
	case config.ProviderAnthropic:
		provider, err = NewAnthropicProvider(cfg, builder, logger)
	case config.ProviderMock:
		provider, err = NewMockProvider(cfg, builder, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return NewServiceWithProvider(provider, cfg, metrics, logger), nil
}

// NewServiceWithProvider creates a service around an existing provider
func NewServiceWithProvider(provider StreamProvider, cfg *config.AIConfig, metrics *observability.Metrics, logger *errors.Logger) *Service {
	return &Service{
		Provider: provider,
		config:   cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// ValidateRequest checks that a roast request carries resume text and a target role
func ValidateRequest(req *types.AnalysisRequest) error {
	if req == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid request", nil)
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		return errors.NewValidationError(errors.ErrCodeEmptyResume, "Resume text is required", nil)
	}
	if strings.TrimSpace(req.TargetRole) == "" {
		return errors.NewValidationError(errors.ErrCodeMissingTargetRole, "Target role is required", nil)
	}
	return nil
}

// Roast streams an analysis of req from the provider. onPartial, when not nil,
// receives every snapshot the parser produces while the response streams in.
// A response from which nothing can be extracted fails with ANALYSIS_UNPARSEABLE.
func (s *Service) Roast(ctx context.Context, req *types.AnalysisRequest, onPartial func(*types.PartialAnalysis)) (*RoastResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := s.logger.With("roast_id", id)
	start := time.Now()

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	logger.Info("Roast started",
		"provider", s.config.Provider,
		"model", s.config.Model,
		"target_role", req.TargetRole,
		"resume_length", len(req.ResumeText))

	parser := stream.NewParser()
	var usage *TokenUsage

	err := s.metrics.TrackAIOperationWithTokens(ctx, "roast", func(ctx context.Context) *observability.AIOperationResult {
		u, err := s.Provider.StreamAnalysis(ctx, req, func(chunk string) error {
			s.metrics.RecordStreamChunk(ctx, len(chunk))
			if snapshot := parser.AddChunk(chunk); snapshot != nil {
				s.metrics.RecordPartial(ctx)
				if onPartial != nil {
					onPartial(snapshot)
				}
			}
			return nil
		})
		usage = u
		return &observability.AIOperationResult{Error: err, TokenUsage: toObservabilityUsage(u)}
	}, attribute.String("provider", s.config.Provider), attribute.String("model", s.config.Model))

	if err != nil {
		s.metrics.RecordRoast(ctx, false, s.config.Provider)
		logger.LogError(err, "Roast failed",
			"chunks", parser.Chunks(),
			"duration", time.Since(start))
		return nil, err
	}

	analysis := parser.Finalize()
	method := parser.Method()
	s.metrics.RecordFinalize(ctx, string(method), analysis.IsEmpty())

	logger.Debug("Stream finalized",
		"method", method,
		"chunks", parser.Chunks(),
		"response_length", len(parser.Content()))

	if analysis.IsEmpty() {
		s.metrics.RecordRoast(ctx, false, s.config.Provider)
		appErr := errors.NewAIError(errors.ErrCodeAnalysisUnparsable,
			"The model response could not be parsed into an analysis", nil).
			WithContext("roast_id", id).
			WithContext("response_length", len(parser.Content()))
		logger.LogError(appErr, "Roast produced no analysis")
		return nil, appErr
	}

	warnings := ValidateAnalysis(analysis)
	if len(warnings) > 0 {
		logger.Warn("Analysis is incomplete",
			"method", method,
			"warnings", len(warnings))
	}

	result := &RoastResult{
		ID:           id,
		Analysis:     analysis,
		Method:       method,
		Usage:        usage,
		SectionDiffs: s.sectionDiffs(ctx, req.ResumeText, analysis),
		Warnings:     warnings,
		Model:        s.config.Model,
		Provider:     s.config.Provider,
		DurationMs:   time.Since(start).Milliseconds(),
	}

	s.metrics.RecordRoast(ctx, true, s.config.Provider)
	logger.Info("Roast completed",
		"method", method,
		"overall_score", derefInt(analysis.OverallScore),
		"sections", len(analysis.Sections),
		"diffs", len(result.SectionDiffs),
		"warnings", len(warnings),
		"duration_ms", result.DurationMs)

	return result, nil
}

// SectionDiffs computes word diffs for every section carrying both original
// and improved text, plus the rewritten summary against the resume's own
// summary section when both exist.
func SectionDiffs(resumeText string, analysis *types.PartialAnalysis) []SectionDiff {
	if analysis == nil {
		return nil
	}

	var diffs []SectionDiff
	for _, section := range analysis.Sections {
		if section.Original == "" || section.Improved == "" {
			continue
		}
		diffs = append(diffs, newSectionDiff(section.Name, section.Original, section.Improved))
	}

	if analysis.RewrittenSummary != nil && *analysis.RewrittenSummary != "" {
		if summary, ok := sections.ByName(sections.Detect(resumeText))["Summary"]; ok && summary.Content != "" {
			diffs = append(diffs, newSectionDiff(RewrittenSummaryDiff, summary.Content, *analysis.RewrittenSummary))
		}
	}
	return diffs
}

func (s *Service) sectionDiffs(ctx context.Context, resumeText string, analysis *types.PartialAnalysis) []SectionDiff {
	diffs := SectionDiffs(resumeText, analysis)
	for _, d := range diffs {
		s.metrics.RecordDiff(ctx, "roast", len(d.Segments))
	}
	return diffs
}

func newSectionDiff(name, original, improved string) SectionDiff {
	segments := diff.Compute(original, improved)
	return SectionDiff{Name: name, Segments: segments, Stats: diff.Stats(segments)}
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// GetStats returns provider and circuit breaker statistics
func (s *Service) GetStats() map[string]any {
	stats := map[string]any{
		"provider": s.config.Provider,
		"model":    s.config.Model,
	}
	if b, ok := s.Provider.(interface{ BreakerStats() map[string]any }); ok {
		stats["circuit_breaker"] = b.BreakerStats()
	}
	return stats
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}

func toObservabilityUsage(u *TokenUsage) *observability.TokenUsage {
	if u == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func derefInt(v *int) int {
	if v == nil {
		return -1
	}
	return *v
}

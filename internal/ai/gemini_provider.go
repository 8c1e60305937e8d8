package ai

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"resumeroast/internal/config"
	"resumeroast/internal/errors"
	"resumeroast/internal/types"
)

// modelCheckTimeout bounds GetModelInfo calls
const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements StreamProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         *config.AIConfig
	prompts        *PromptBuilder
	circuitBreaker *Breaker[*TokenUsage]
	modelBreaker   *Breaker[*genai.Model]
	logger         *errors.Logger
}

// Ensure GeminiProvider implements StreamProvider
var _ StreamProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.AIConfig, prompts *PromptBuilder, logger *errors.Logger) (*GeminiProvider, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	// Model lookups are less critical than analyses and get a lenient breaker
	modelBreakerConfig := cfg.CircuitBreaker
	modelBreakerConfig.MinRequests = max(modelBreakerConfig.MinRequests, 5)
	modelBreakerConfig.FailureThreshold = max(modelBreakerConfig.FailureThreshold, 0.8)

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		prompts:        prompts,
		circuitBreaker: NewBreaker[*TokenUsage]("gemini-roast", &cfg.CircuitBreaker, logger),
		modelBreaker:   NewBreaker[*genai.Model]("gemini-model", &modelBreakerConfig, logger),
		logger:         logger,
	}, nil
}

// StreamAnalysis implements StreamProvider using GenerateContentStream with a
// JSON response schema
func (g *GeminiProvider) StreamAnalysis(ctx context.Context, req *types.AnalysisRequest, onChunk func(string) error) (*TokenUsage, error) {
	systemPrompt, userPrompt, err := g.prompts.Build(req)
	if err != nil {
		return nil, err
	}

	tracer := otel.Tracer("resumeroast.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.stream_analysis")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderGemini),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(g.config.Temperature)),
		attribute.Int("input.resume_length", len(req.ResumeText)),
	)

	genaiConfig := g.buildGenerateConfig(systemPrompt)

	usage, err := streamWithRetry(ctx, "gemini_stream", g.config.MaxRetries, g.circuitBreaker, g.logger, onChunk,
		func(ctx context.Context, emit func(string) error) (*TokenUsage, error) {
			var usage *TokenUsage
			for resp, err := range g.client.Models.GenerateContentStream(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig) {
				if err != nil {
					return nil, err
				}
				if u := extractTokenUsage(resp); u != nil {
					usage = u
				}
				if err := emit(resp.Text()); err != nil {
					return nil, err
				}
			}
			return usage, nil
		})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, wrapStreamError(err, "Gemini")
	}

	span.SetAttributes(attribute.Bool("success", true))
	return usage, nil
}

// buildGenerateConfig creates the structured output config for analysis requests
func (g *GeminiProvider) buildGenerateConfig(systemPrompt string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   buildGeminiSchema(),
		MaxOutputTokens:  int32(g.config.MaxTokens),
	}

	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	// Apply temperature configuration if set
	if g.config.Temperature > 0 {
		cfg.Temperature = genai.Ptr(g.config.Temperature)
	}

	return cfg
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Provider:  config.ProviderGemini,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", config.ProviderGemini,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// BreakerStats returns the analysis circuit breaker statistics
func (g *GeminiProvider) BreakerStats() map[string]any {
	return g.circuitBreaker.GetStats()
}

// Close implements StreamProvider. The genai client holds no resources.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from a Gemini response chunk
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

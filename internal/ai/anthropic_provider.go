package ai

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"resumeroast/internal/config"
	"resumeroast/internal/errors"
	"resumeroast/internal/types"
)

// AnthropicProvider implements StreamProvider for the Anthropic Messages API
// and compatible endpoints such as Z AI.
type AnthropicProvider struct {
	client         anthropic.Client
	config         *config.AIConfig
	prompts        *PromptBuilder
	circuitBreaker *Breaker[*TokenUsage]
	logger         *errors.Logger
}

// Ensure AnthropicProvider implements StreamProvider
var _ StreamProvider = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates a new Anthropic-compatible provider instance
func NewAnthropicProvider(cfg *config.AIConfig, prompts *PromptBuilder, logger *errors.Logger) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"Anthropic provider requires an API key", nil)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are handled by streamWithRetry so they respect delivered output
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:         anthropic.NewClient(opts...),
		config:         cfg,
		prompts:        prompts,
		circuitBreaker: NewBreaker[*TokenUsage]("anthropic-roast", &cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// StreamAnalysis implements StreamProvider using Messages.NewStreaming
func (a *AnthropicProvider) StreamAnalysis(ctx context.Context, req *types.AnalysisRequest, onChunk func(string) error) (*TokenUsage, error) {
	systemPrompt, userPrompt, err := a.prompts.Build(req)
	if err != nil {
		return nil, err
	}

	tracer := otel.Tracer("resumeroast.ai.anthropic")
	ctx, span := tracer.Start(ctx, "anthropic.stream_analysis")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderAnthropic),
		attribute.String("ai.model", a.config.Model),
		attribute.String("ai.base_url", a.config.BaseURL),
		attribute.Int("input.resume_length", len(req.ResumeText)),
	)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.config.Model),
		MaxTokens: int64(a.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if a.config.Temperature > 0 {
		// Anthropic accepts temperatures up to 1.0
		params.Temperature = anthropic.Float(min(float64(a.config.Temperature), 1.0))
	}

	usage, err := streamWithRetry(ctx, "anthropic_stream", a.config.MaxRetries, a.circuitBreaker, a.logger, onChunk,
		func(ctx context.Context, emit func(string) error) (*TokenUsage, error) {
			stream := a.client.Messages.NewStreaming(ctx, params)
			defer stream.Close()

			message := anthropic.Message{}
			for stream.Next() {
				event := stream.Current()
				if err := message.Accumulate(event); err != nil {
					return nil, err
				}

				switch ev := event.AsAny().(type) {
				case anthropic.ContentBlockDeltaEvent:
					if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
						if err := emit(delta.Text); err != nil {
							return nil, err
						}
					}
				}
			}
			if err := stream.Err(); err != nil {
				return nil, err
			}

			return &TokenUsage{
				InputTokens:  message.Usage.InputTokens,
				OutputTokens: message.Usage.OutputTokens,
				TotalTokens:  message.Usage.InputTokens + message.Usage.OutputTokens,
			}, nil
		})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, wrapStreamError(err, "Anthropic")
	}

	span.SetAttributes(attribute.Bool("success", true))
	return usage, nil
}

// GetModelInfo reports the configured model. Compatible endpoints do not all
// serve the models API, so availability follows the circuit breaker state.
func (a *AnthropicProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{
		Name:      a.config.Model,
		Provider:  config.ProviderAnthropic,
		Available: a.circuitBreaker.IsHealthy(),
	}
	if !info.Available {
		info.Error = "circuit breaker is not closed"
	}
	return info
}

// BreakerStats returns the analysis circuit breaker statistics
func (a *AnthropicProvider) BreakerStats() map[string]any {
	return a.circuitBreaker.GetStats()
}

// Close implements StreamProvider
func (a *AnthropicProvider) Close() error {
	return nil
}

package ai

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"resumeroast/internal/config"
	"resumeroast/internal/errors"
	"resumeroast/internal/types"
)

//go:embed mock_roast.json
var defaultMockResponse string

// MockProvider replays a canned response in fixed-size chunks. It makes no
// network calls and is used for offline runs and tests.
type MockProvider struct {
	response  string
	chunkSize int
	config    *config.AIConfig
	prompts   *PromptBuilder
	breaker   *Breaker[*TokenUsage]
	logger    *errors.Logger

	// ChunkDelay is slept between chunks
	ChunkDelay time.Duration
	// FailAfter, when positive, makes the stream fail with Err after that many chunks
	FailAfter int
	// Err is returned by a failing stream; nil selects a generic error
	Err error
}

// Ensure MockProvider implements StreamProvider
var _ StreamProvider = (*MockProvider)(nil)

// NewMockProvider creates a mock provider. The response is read from
// cfg.MockResponseFile when set, else the built-in sample is used.
func NewMockProvider(cfg *config.AIConfig, prompts *PromptBuilder, logger *errors.Logger) (*MockProvider, error) {
	response := defaultMockResponse
	if cfg.MockResponseFile != "" {
		data, err := os.ReadFile(cfg.MockResponseFile)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("Failed to read mock response file: %s", cfg.MockResponseFile), err)
		}
		response = string(data)
	}

	return NewMockProviderWithResponse(cfg, prompts, logger, response), nil
}

// NewMockProviderWithResponse creates a mock provider replaying response
func NewMockProviderWithResponse(cfg *config.AIConfig, prompts *PromptBuilder, logger *errors.Logger, response string) *MockProvider {
	chunkSize := cfg.MockChunkSize
	if chunkSize <= 0 {
		chunkSize = 16
	}
	return &MockProvider{
		response:  response,
		chunkSize: chunkSize,
		config:    cfg,
		prompts:   prompts,
		breaker:   NewBreaker[*TokenUsage]("mock-roast", &cfg.CircuitBreaker, logger),
		logger:    logger,
	}
}

// StreamAnalysis implements StreamProvider
func (m *MockProvider) StreamAnalysis(ctx context.Context, req *types.AnalysisRequest, onChunk func(string) error) (*TokenUsage, error) {
	_, userPrompt, err := m.prompts.Build(req)
	if err != nil {
		return nil, err
	}

	usage, err := streamWithRetry(ctx, "mock_stream", m.config.MaxRetries, m.breaker, m.logger, onChunk,
		func(ctx context.Context, emit func(string) error) (*TokenUsage, error) {
			for i, chunk := range splitChunks(m.response, m.chunkSize) {
				if m.FailAfter > 0 && i >= m.FailAfter {
					return nil, m.failure()
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if m.ChunkDelay > 0 {
					select {
					case <-time.After(m.ChunkDelay):
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				if err := emit(chunk); err != nil {
					return nil, err
				}
			}

			input, output := estimateTokens(userPrompt), estimateTokens(m.response)
			return &TokenUsage{InputTokens: input, OutputTokens: output, TotalTokens: input + output}, nil
		})
	if err != nil {
		return nil, wrapStreamError(err, "Mock")
	}
	return usage, nil
}

func (m *MockProvider) failure() error {
	if m.Err != nil {
		return m.Err
	}
	return fmt.Errorf("mock stream interrupted")
}

// GetModelInfo implements StreamProvider
func (m *MockProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{
		Name:        m.config.Model,
		Provider:    config.ProviderMock,
		DisplayName: "Mock roast replay",
		Available:   true,
	}
}

// BreakerStats returns the circuit breaker statistics
func (m *MockProvider) BreakerStats() map[string]any {
	return m.breaker.GetStats()
}

// Close implements StreamProvider
func (m *MockProvider) Close() error {
	return nil
}

// splitChunks cuts s into pieces of at most size bytes without splitting a
// UTF-8 sequence
func splitChunks(s string, size int) []string {
	var chunks []string
	for len(s) > 0 {
		n := min(size, len(s))
		for n < len(s) && !isRuneStart(s[n]) {
			n++
		}
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// estimateTokens approximates a token count at four bytes per token
func estimateTokens(s string) int64 {
	return int64((len(strings.TrimSpace(s)) + 3) / 4)
}

package ai

import (
	"context"

	"resumeroast/internal/types"
)

// StreamProvider streams a resume analysis from a model as raw text chunks.
// onChunk is called in order for every non-empty piece of text. Returning an
// error from onChunk aborts the stream and that error is returned unchanged.
type StreamProvider interface {
	StreamAnalysis(ctx context.Context, req *types.AnalysisRequest, onChunk func(string) error) (*TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens" yaml:"inputTokens"`
	OutputTokens int64 `json:"outputTokens" yaml:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens" yaml:"totalTokens"`
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

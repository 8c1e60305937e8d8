package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"resumeroast/internal/errors"
)

// retryBaseDelay is the first backoff step; each further attempt doubles it.
var retryBaseDelay = time.Second

const maxRetryBackoff = 30 * time.Second

// streamAttempt performs one provider call, passing every text delta to emit.
type streamAttempt func(ctx context.Context, emit func(string) error) (*TokenUsage, error)

// streamWithRetry runs attempt behind the breaker with retries. Only attempts
// that failed before delivering any text are retried: once the consumer has
// seen output, replaying the response would corrupt its accumulated state.
func streamWithRetry(
	ctx context.Context,
	operation string,
	maxRetries int,
	breaker *Breaker[*TokenUsage],
	logger *errors.Logger,
	onChunk func(string) error,
	attempt streamAttempt,
) (*TokenUsage, error) {
	usage, err := breaker.Execute(func() (*TokenUsage, error) {
		return retryStream(ctx, operation, maxRetries, logger, onChunk, attempt)
	})

	var ce *consumerError
	if stderrors.As(err, &ce) {
		return usage, ce.err
	}
	return usage, err
}

func retryStream(
	ctx context.Context,
	operation string,
	maxRetries int,
	logger *errors.Logger,
	onChunk func(string) error,
	attempt streamAttempt,
) (*TokenUsage, error) {
	var lastErr error
	attempts := 0

	for n := 0; n <= maxRetries; n++ {
		if n > 0 {
			logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", n,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoffDelay(n)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		attempts++
		delivered := false
		emit := func(text string) error {
			if text == "" {
				return nil
			}
			delivered = true
			if err := onChunk(text); err != nil {
				return &consumerError{err: err}
			}
			return nil
		}

		usage, err := attempt(ctx, emit)
		if err == nil {
			if n > 0 {
				logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempts)
			}
			return usage, nil
		}

		lastErr = err

		if isCallerError(err) {
			return nil, err
		}
		if delivered {
			logger.Warn("AI stream failed after output was delivered, not retrying",
				"operation", operation,
				"attempt", n+1,
				"error", err.Error())
			break
		}
		if !isRetryableError(err) {
			logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	logger.LogError(lastErr, "AI operation failed",
		"operation", operation,
		"total_attempts", attempts)

	return nil, fmt.Errorf("operation '%s' failed after %d attempt(s): %w", operation, attempts, lastErr)
}

// backoffDelay returns the exponential backoff with up to 10% jitter for the
// given retry number (1-based), capped at maxRetryBackoff.
func backoffDelay(retry int) time.Duration {
	baseDelay := retryBaseDelay << (retry - 1)
	if baseDelay <= 0 || baseDelay > maxRetryBackoff {
		baseDelay = maxRetryBackoff
	}

	var jitter time.Duration
	if jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1)); jitterMax.Sign() > 0 {
		if jitterBig, err := rand.Int(rand.Reader, jitterMax); err == nil {
			jitter = time.Duration(jitterBig.Int64())
		}
	}

	return min(baseDelay+jitter, maxRetryBackoff)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil || isCallerError(err) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var googleErr *googleapi.Error
	if stderrors.As(err, &googleErr) {
		return isRetryableStatus(googleErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return isRetryableStatus(genaiErr.Code)
	}

	var anthropicErr *anthropic.Error
	if stderrors.As(err, &anthropicErr) {
		return isRetryableStatus(anthropicErr.StatusCode)
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529: // Anthropic "overloaded"
		return true
	}
	return false
}

// wrapStreamError converts a provider failure into an AppError, leaving
// consumer and cancellation errors untouched
func wrapStreamError(err error, provider string) error {
	if isCallerError(err) {
		return err
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	if IsOpenError(err) {
		return errors.NewAIError(errors.ErrCodeAIServiceFailed,
			provider+" is temporarily unavailable (circuit open)", err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewAIError(errors.ErrCodeAITimeout, provider+" analysis timed out", err)
	}
	return errors.NewAIError(errors.ErrCodeAIStreamFailed, provider+" analysis stream failed", err)
}

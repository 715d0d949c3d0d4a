package conlang

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetryFn executes a function with exponential backoff retry.
func WithRetryFn[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt.
		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// IsRetryable checks if an error is retryable. Only transport errors flagged
// retryable by the adapter qualify; input and configuration errors never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return false
}

// RetryableProvider wraps a Provider with retry logic. A streamed dispatch is
// retried only if it failed before the first increment was delivered, so
// onPartial never observes text from an abandoned attempt.
type RetryableProvider struct {
	provider Provider
	config   RetryConfig
}

// NewRetryableProvider creates a new provider with retry logic.
func NewRetryableProvider(provider Provider, cfg RetryConfig) *RetryableProvider {
	return &RetryableProvider{
		provider: provider,
		config:   cfg,
	}
}

// Dispatch implements Provider with retry logic.
func (p *RetryableProvider) Dispatch(ctx context.Context, req TranslationRequest, msgs MessageList, onPartial func(string)) (string, error) {
	delivered := false
	wrapped := onPartial
	if onPartial != nil {
		wrapped = func(s string) {
			delivered = true
			onPartial(s)
		}
	}

	return WithRetryFn(ctx, p.config, func() (string, error) {
		raw, err := p.provider.Dispatch(ctx, req, msgs, wrapped)
		if err != nil && delivered {
			// Partial output already reached the caller; re-running would
			// violate streaming monotonicity.
			return "", &TransportError{Message: "stream failed after partial delivery", Cause: err, Retryable: false}
		}
		return raw, err
	})
}

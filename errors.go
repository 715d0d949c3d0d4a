package conlang

import "fmt"

// ConfigError indicates missing or invalid provider configuration (for
// example a missing API key). It is raised before any network call.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// InputError indicates a request that was rejected locally before dispatch:
// unsupported image format, oversized image, same source and target language,
// or an empty request.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// TransportError indicates a provider or network failure. Message carries the
// provider's own error text when it supplied one.
type TransportError struct {
	Message   string
	Cause     error
	Retryable bool // whether the operation can be retried
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// HistoryError indicates a history persistence failure.
type HistoryError struct {
	Message string
	Cause   error
}

func (e *HistoryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("history error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("history error: %s", e.Message)
}

func (e *HistoryError) Unwrap() error {
	return e.Cause
}

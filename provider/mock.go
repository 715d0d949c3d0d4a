package provider

import (
	"context"

	conlang "github.com/supastishn/conlang-translator"
)

// MockProvider is a scripted provider for testing.
type MockProvider struct {
	Response  string                      // raw text returned on success
	Partials  []string                    // optional increments replayed through onPartial
	Err       error                       // error to return instead of a response
	CallCount int                         // number of times Dispatch was called
	LastReq   *conlang.TranslationRequest // last request received
	LastMsgs  conlang.MessageList         // last message list received
}

// NewMockProvider creates a mock that replies with the given raw text.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

// Dispatch returns the scripted response, replaying Partials through
// onPartial first when both are set.
func (m *MockProvider) Dispatch(_ context.Context, req conlang.TranslationRequest, msgs conlang.MessageList, onPartial func(string)) (string, error) {
	m.CallCount++
	reqCopy := req
	m.LastReq = &reqCopy
	m.LastMsgs = msgs

	if m.Err != nil {
		return "", m.Err
	}
	if onPartial != nil {
		for _, p := range m.Partials {
			onPartial(p)
		}
	}
	return m.Response, nil
}

// Reset clears the recorded calls.
func (m *MockProvider) Reset() {
	m.CallCount = 0
	m.LastReq = nil
	m.LastMsgs = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)

package provider

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	conlang "github.com/supastishn/conlang-translator"
)

// FreeTierBaseURL is the fixed public chat-completions endpoint used when no
// API key is available. It accepts unauthenticated requests.
const FreeTierBaseURL = "https://ai.hackclub.com"

// FreeTier posts to a fixed keyless chat endpoint. The endpoint accepts text
// only: image attachments are rejected, or silently dropped when the settings
// ask for that, before any network call. Streaming is not offered.
type FreeTier struct {
	baseURL string
}

// NewFreeTier creates the free-tier adapter against the public endpoint.
func NewFreeTier() *FreeTier {
	return &FreeTier{baseURL: FreeTierBaseURL}
}

// NewFreeTierWithBaseURL creates the adapter against a different endpoint.
// Used by tests.
func NewFreeTierWithBaseURL(baseURL string) *FreeTier {
	return &FreeTier{baseURL: baseURL}
}

// Dispatch sends the prompt to the keyless endpoint.
func (f *FreeTier) Dispatch(ctx context.Context, req conlang.TranslationRequest, msgs conlang.MessageList, _ func(string)) (string, error) {
	if hasImage(msgs) {
		switch req.Settings.FreeTierImages {
		case conlang.ImageDrop:
			msgs = dropImages(msgs)
		default:
			return "", &conlang.InputError{Message: "the free provider does not support image attachments"}
		}
	}

	cfg := openai.DefaultConfig("")
	cfg.BaseURL = strings.TrimRight(f.baseURL, "/")
	client := openai.NewClientWithConfig(cfg)

	model := req.Settings.Model
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(msgs),
		Temperature: req.Settings.Temperature,
	})
	if err != nil {
		return "", wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &conlang.TransportError{Message: "no choices in provider response", Retryable: true}
	}
	return resp.Choices[0].Message.Content, nil
}

func hasImage(msgs conlang.MessageList) bool {
	for _, m := range msgs {
		if m.ImageURL != "" {
			return true
		}
	}
	return false
}

// dropImages returns a copy of the list with image references removed.
// The original list is never mutated after dispatch.
func dropImages(msgs conlang.MessageList) conlang.MessageList {
	out := make(conlang.MessageList, 0, len(msgs))
	for _, m := range msgs {
		m.ImageURL = ""
		out = append(out, m)
	}
	return out
}

// Verify FreeTier implements Provider
var _ Provider = (*FreeTier)(nil)

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"

	conlang "github.com/supastishn/conlang-translator"
)

// DirectAPI posts to a user-configured OpenAI-compatible chat-completions
// endpoint, bearer-authenticated with the user's key. It is the only adapter
// that supports incremental delivery.
type DirectAPI struct {
	http *resty.Client
}

// NewDirectAPI creates the direct adapter.
func NewDirectAPI() *DirectAPI {
	return &DirectAPI{
		http: resty.New().
			SetHeader("User-Agent", conlang.UserAgent()),
	}
}

// Dispatch sends the prompt. When streaming is enabled and onPartial is
// given, the response is read as SSE frames and onPartial receives the full
// accumulated text after every increment; otherwise a single JSON reply is
// awaited.
func (d *DirectAPI) Dispatch(ctx context.Context, req conlang.TranslationRequest, msgs conlang.MessageList, onPartial func(string)) (string, error) {
	settings := req.Settings
	if settings.APIKey == "" {
		return "", &conlang.ConfigError{Message: "API key is not set for the direct provider"}
	}
	if settings.BaseURL == "" {
		return "", &conlang.ConfigError{Message: "base URL is not set for the direct provider"}
	}

	if settings.StreamingEnabled && onPartial != nil {
		return d.stream(ctx, settings, msgs, onPartial)
	}
	return d.complete(ctx, settings, msgs)
}

// complete performs a non-streamed chat completion via the OpenAI client.
func (d *DirectAPI) complete(ctx context.Context, settings conlang.Settings, msgs conlang.MessageList) (string, error) {
	cfg := openai.DefaultConfig(settings.APIKey)
	cfg.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       settings.Model,
		Messages:    toOpenAIMessages(msgs),
		Temperature: settings.Temperature,
	})
	if err != nil {
		return "", wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &conlang.TransportError{Message: "no choices in provider response", Retryable: true}
	}
	return resp.Choices[0].Message.Content, nil
}

// stream posts with stream=true and assembles the SSE frames.
func (d *DirectAPI) stream(ctx context.Context, settings conlang.Settings, msgs conlang.MessageList, onPartial func(string)) (string, error) {
	body := openai.ChatCompletionRequest{
		Model:       settings.Model,
		Messages:    toOpenAIMessages(msgs),
		Temperature: settings.Temperature,
		Stream:      true,
	}

	url := strings.TrimRight(settings.BaseURL, "/") + "/chat/completions"
	resp, err := d.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+settings.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetBody(body).
		SetDoNotParseResponse(true).
		Post(url)
	if err != nil {
		return "", &conlang.TransportError{Message: "streaming request failed", Cause: err, Retryable: true}
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() != http.StatusOK {
		msg := readErrorBody(raw)
		if msg == "" {
			msg = fmt.Sprintf("streaming translation failed: %s", resp.Status())
		}
		return "", &conlang.TransportError{Message: msg, Retryable: retryableStatus(resp.StatusCode())}
	}

	return assembleStream(raw, onPartial)
}

// toOpenAIMessages converts the provider-agnostic message list to the wire
// format. A message with an image becomes a multi-part content list with the
// instruction text first.
func toOpenAIMessages(msgs conlang.MessageList) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		msg := openai.ChatCompletionMessage{Role: string(m.Role)}
		if m.ImageURL != "" {
			msg.MultiContent = []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: m.Content},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    m.ImageURL,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			}
		} else {
			msg.Content = m.Content
		}
		out = append(out, msg)
	}
	return out
}

// wrapOpenAIError converts a go-openai failure into a TransportError carrying
// the provider's own message when one was supplied.
func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &conlang.TransportError{
			Message:   apiErr.Message,
			Cause:     err,
			Retryable: retryableStatus(apiErr.HTTPStatusCode),
		}
	}
	return &conlang.TransportError{Message: "translation request failed", Cause: err, Retryable: true}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// readErrorBody extracts {"error":{"message":...}} from a failed response
// body, tolerating both object and bare-string error fields.
func readErrorBody(r io.Reader) string {
	buf, _ := io.ReadAll(io.LimitReader(r, 64*1024))
	return extractErrorMessage(buf)
}

func extractErrorMessage(body []byte) string {
	var withObj struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &withObj); err == nil && withObj.Error.Message != "" {
		return withObj.Error.Message
	}
	var withStr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &withStr); err == nil && withStr.Error != "" {
		return withStr.Error
	}
	return ""
}

// Verify DirectAPI implements Provider
var _ Provider = (*DirectAPI)(nil)

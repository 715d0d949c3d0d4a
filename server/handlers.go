package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	conlang "github.com/supastishn/conlang-translator"
)

// translatePayload is the function-call request body.
type translatePayload struct {
	SourceText   string           `json:"sourceText"`
	SourceLang   conlang.Language `json:"sourceLang"`
	TargetLang   conlang.Language `json:"targetLang"`
	ImageDataURL string           `json:"imageDataUrl"`
	Settings     struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
	} `json:"settings"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": conlang.Version,
	})
}

// handleTranslate performs one translation with the server-side credential
// and replies with the canonical envelope {"translation": raw}. The raw model
// reply is returned unparsed; clients run the XML parser themselves.
func (s *Server) handleTranslate(c *gin.Context) {
	var payload translatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req := conlang.TranslationRequest{
		SourceText:   payload.SourceText,
		SourceLang:   payload.SourceLang,
		TargetLang:   payload.TargetLang,
		ImageDataURL: payload.ImageDataURL,
		Settings:     s.requestSettings(payload),
	}

	if err := conlang.ValidateRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgs, err := s.prompts.Build(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := s.complete(c, req.Settings, msgs)
	if err != nil {
		s.logger.Error("upstream completion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"translation": raw})
}

// requestSettings merges the thin payload settings over the defaults. The
// payload never carries a credential; the server's own key is applied at the
// transport layer.
func (s *Server) requestSettings(payload translatePayload) conlang.Settings {
	settings := conlang.DefaultSettings()
	settings.Model = payload.Settings.Model
	if settings.Model == "" {
		settings.Model = s.cfg.DefaultModel
	}
	settings.Temperature = payload.Settings.Temperature
	settings.StreamingEnabled = false
	return settings
}

// complete posts the chat completion upstream. The key rides in the query
// string the way the Gemini OpenAI-compatible endpoint expects.
func (s *Server) complete(c *gin.Context, settings conlang.Settings, msgs conlang.MessageList) (string, error) {
	body := openai.ChatCompletionRequest{
		Model:       settings.Model,
		Messages:    toWireMessages(msgs),
		Temperature: settings.Temperature,
	}

	url := strings.TrimRight(s.cfg.UpstreamBaseURL, "/") + "/chat/completions"

	var completion openai.ChatCompletionResponse
	resp, err := s.http.R().
		SetContext(c.Request.Context()).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", s.cfg.GeminiAPIKey).
		SetBody(body).
		SetResult(&completion).
		Post(url)
	if err != nil {
		return "", &conlang.TransportError{Message: "upstream request failed", Cause: err, Retryable: true}
	}
	if resp.IsError() {
		msg := upstreamErrorMessage(resp.Body())
		return "", &conlang.TransportError{Message: msg}
	}
	if len(completion.Choices) == 0 {
		return "", &conlang.TransportError{Message: "no choices in upstream response"}
	}
	return completion.Choices[0].Message.Content, nil
}

func toWireMessages(msgs conlang.MessageList) []openai.ChatCompletionMessage {
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

func upstreamErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return "upstream model error"
}

package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"

	conlang "github.com/supastishn/conlang-translator"
)

// Defaults for the hosted backend function.
const (
	defaultFunctionEndpoint = "https://fra.cloud.appwrite.io/v1"
	defaultProjectID        = "draconic-translator"
	defaultFunctionID       = "gemini"
)

// FunctionConfig configures the serverless-function adapter. Zero values use
// the hosted defaults.
type FunctionConfig struct {
	Endpoint   string // BaaS endpoint root
	ProjectID  string
	FunctionID string
}

// FunctionCall invokes a named serverless function through the BaaS REST API
// with a synchronous execution. The function holds the model credentials
// server-side; the payload carries the original request fields, not a
// rendered prompt.
type FunctionCall struct {
	cfg  FunctionConfig
	http *resty.Client
}

// NewFunctionCall creates the function-call adapter.
func NewFunctionCall(cfg FunctionConfig) *FunctionCall {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultFunctionEndpoint
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = defaultProjectID
	}
	if cfg.FunctionID == "" {
		cfg.FunctionID = defaultFunctionID
	}
	return &FunctionCall{
		cfg: cfg,
		http: resty.New().
			SetHeader("User-Agent", conlang.UserAgent()),
	}
}

// functionPayload is the reduced request forwarded to the function.
type functionPayload struct {
	SourceText   string           `json:"sourceText"`
	SourceLang   conlang.Language `json:"sourceLang"`
	TargetLang   conlang.Language `json:"targetLang"`
	ImageDataURL string           `json:"imageDataUrl,omitempty"`
	Settings     struct {
		Model       string  `json:"model,omitempty"`
		Temperature float32 `json:"temperature"`
	} `json:"settings"`
}

// execution is the relevant slice of the BaaS execution record. Older
// deployments name the output field "response" instead of "responseBody".
type execution struct {
	Status       string `json:"status"`
	ResponseBody string `json:"responseBody"`
	Response     string `json:"response"`
	Stderr       string `json:"stderr"`
}

func (e execution) body() string {
	if e.ResponseBody != "" {
		return e.ResponseBody
	}
	return e.Response
}

// Dispatch submits a synchronous execution and unwraps the function's reply.
// The function's canonical response is the envelope {"translation": "..."};
// a raw chat-completion object from an older function build is also
// unwrapped. Bare unwrapped text is not a supported shape.
func (f *FunctionCall) Dispatch(ctx context.Context, req conlang.TranslationRequest, _ conlang.MessageList, _ func(string)) (string, error) {
	payload := functionPayload{
		SourceText:   req.SourceText,
		SourceLang:   req.SourceLang,
		TargetLang:   req.TargetLang,
		ImageDataURL: req.ImageDataURL,
	}
	payload.Settings.Model = req.Settings.Model
	payload.Settings.Temperature = req.Settings.Temperature

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &conlang.TransportError{Message: "encoding function payload failed", Cause: err}
	}

	url := strings.TrimRight(f.cfg.Endpoint, "/") + "/functions/" + f.cfg.FunctionID + "/executions"

	var exec execution
	resp, err := f.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Appwrite-Project", f.cfg.ProjectID).
		SetBody(map[string]any{"body": string(body), "async": false}).
		SetResult(&exec).
		Post(url)
	if err != nil {
		return "", &conlang.TransportError{Message: "function call failed", Cause: err, Retryable: true}
	}
	if resp.IsError() {
		msg := extractErrorMessage(resp.Body())
		if msg == "" {
			msg = "function call failed: " + resp.Status()
		}
		return "", &conlang.TransportError{Message: msg, Retryable: retryableStatus(resp.StatusCode())}
	}
	if exec.Status == "failed" {
		msg := strings.TrimSpace(exec.Stderr)
		if msg == "" {
			msg = "function execution failed"
		}
		return "", &conlang.TransportError{Message: msg}
	}

	return unwrapFunctionResponse(exec.body())
}

// unwrapFunctionResponse normalizes the two supported response shapes to raw
// reply text.
func unwrapFunctionResponse(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", &conlang.TransportError{Message: "empty function response"}
	}

	// Canonical envelope. The field is a pointer so a legitimately empty
	// translation is still recognized as the envelope shape.
	var envelope struct {
		Translation *string `json:"translation"`
		Error       string  `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err == nil {
		if envelope.Error != "" {
			return "", &conlang.TransportError{Message: envelope.Error}
		}
		if envelope.Translation != nil {
			return *envelope.Translation, nil
		}
	}

	// Legacy: the function relayed the upstream chat completion verbatim.
	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(body), &completion); err == nil && len(completion.Choices) > 0 {
		return completion.Choices[0].Message.Content, nil
	}

	return "", &conlang.TransportError{Message: "unrecognized function response shape"}
}

// Verify FunctionCall implements Provider
var _ Provider = (*FunctionCall)(nil)

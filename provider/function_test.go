package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	conlang "github.com/supastishn/conlang-translator"
)

func functionRequest() conlang.TranslationRequest {
	settings := conlang.DefaultSettings()
	settings.Provider = conlang.ProviderFunction
	settings.Model = "gemini-1.5-flash"
	return conlang.TranslationRequest{
		SourceText: "Hello",
		SourceLang: conlang.English,
		TargetLang: conlang.Draconic,
		Settings:   settings,
	}
}

func functionServer(t *testing.T, respond func(w http.ResponseWriter, payload functionPayload)) (*httptest.Server, *FunctionCall) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/gemini/executions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Appwrite-Project"); got != "draconic-translator" {
			t.Errorf("Project header = %q", got)
		}

		var envelope struct {
			Body  string `json:"body"`
			Async bool   `json:"async"`
		}
		json.NewDecoder(r.Body).Decode(&envelope)
		if envelope.Async {
			t.Error("Execution must be synchronous")
		}

		var payload functionPayload
		if err := json.Unmarshal([]byte(envelope.Body), &payload); err != nil {
			t.Errorf("Payload is not valid JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		respond(w, payload)
	}))

	fc := NewFunctionCall(FunctionConfig{Endpoint: srv.URL})
	return srv, fc
}

func TestFunctionCall_CanonicalEnvelope(t *testing.T) {
	var gotPayload functionPayload
	srv, fc := functionServer(t, func(w http.ResponseWriter, payload functionPayload) {
		gotPayload = payload
		body, _ := json.Marshal(map[string]string{"translation": "<translation>grrah</translation>"})
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "completed",
			"responseBody": string(body),
		})
	})
	defer srv.Close()

	raw, err := fc.Dispatch(context.Background(), functionRequest(), nil, nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if raw != "<translation>grrah</translation>" {
		t.Errorf("Raw = %q", raw)
	}

	// The payload carries the original request fields, not a rendered prompt.
	if gotPayload.SourceText != "Hello" {
		t.Errorf("SourceText = %q", gotPayload.SourceText)
	}
	if gotPayload.SourceLang != conlang.English || gotPayload.TargetLang != conlang.Draconic {
		t.Errorf("Languages = %s -> %s", gotPayload.SourceLang, gotPayload.TargetLang)
	}
	if gotPayload.Settings.Model != "gemini-1.5-flash" {
		t.Errorf("Model = %q", gotPayload.Settings.Model)
	}
}

func TestFunctionCall_LegacyCompletionShape(t *testing.T) {
	srv, fc := functionServer(t, func(w http.ResponseWriter, _ functionPayload) {
		completion := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "<translation>grrah</translation>"}},
			},
		}
		body, _ := json.Marshal(completion)
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "completed",
			"responseBody": string(body),
		})
	})
	defer srv.Close()

	raw, err := fc.Dispatch(context.Background(), functionRequest(), nil, nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if raw != "<translation>grrah</translation>" {
		t.Errorf("Raw = %q", raw)
	}
}

func TestFunctionCall_LegacyResponseField(t *testing.T) {
	// Older deployments use "response" instead of "responseBody".
	srv, fc := functionServer(t, func(w http.ResponseWriter, _ functionPayload) {
		body, _ := json.Marshal(map[string]string{"translation": "grrah"})
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "completed",
			"response": string(body),
		})
	})
	defer srv.Close()

	raw, err := fc.Dispatch(context.Background(), functionRequest(), nil, nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if raw != "grrah" {
		t.Errorf("Raw = %q", raw)
	}
}

func TestFunctionCall_FunctionError(t *testing.T) {
	srv, fc := functionServer(t, func(w http.ResponseWriter, _ functionPayload) {
		body, _ := json.Marshal(map[string]string{"error": "GEMINI_API_KEY not configured"})
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "completed",
			"responseBody": string(body),
		})
	})
	defer srv.Close()

	_, err := fc.Dispatch(context.Background(), functionRequest(), nil, nil)
	var transportErr *conlang.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if !strings.Contains(transportErr.Message, "GEMINI_API_KEY not configured") {
		t.Errorf("Function error not surfaced: %q", transportErr.Message)
	}
}

func TestFunctionCall_ExecutionFailed(t *testing.T) {
	srv, fc := functionServer(t, func(w http.ResponseWriter, _ functionPayload) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "failed",
			"stderr": "TypeError: cannot read property",
		})
	})
	defer srv.Close()

	_, err := fc.Dispatch(context.Background(), functionRequest(), nil, nil)
	var transportErr *conlang.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if !strings.Contains(transportErr.Message, "TypeError") {
		t.Errorf("Stderr not surfaced: %q", transportErr.Message)
	}
}

func TestFunctionCall_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Project with the requested ID could not be found"},
		})
	}))
	defer srv.Close()

	fc := NewFunctionCall(FunctionConfig{Endpoint: srv.URL})
	_, err := fc.Dispatch(context.Background(), functionRequest(), nil, nil)

	var transportErr *conlang.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if !strings.Contains(transportErr.Message, "could not be found") {
		t.Errorf("Backend error not surfaced: %q", transportErr.Message)
	}
}

func TestUnwrapFunctionResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"canonical", `{"translation":"grrah"}`, "grrah", false},
		{"canonical empty translation", `{"translation":""}`, "", false},
		{"error envelope", `{"error":"boom"}`, "", true},
		{"legacy completion", `{"choices":[{"message":{"content":"grrah"}}]}`, "grrah", false},
		{"empty", ``, "", true},
		{"bare text unsupported", `just some text`, "", true},
		{"empty envelope", `{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := unwrapFunctionResponse(tt.body)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unwrapFunctionResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("unwrapFunctionResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFunctionCall_Defaults(t *testing.T) {
	fc := NewFunctionCall(FunctionConfig{})
	if fc.cfg.Endpoint != defaultFunctionEndpoint {
		t.Errorf("Endpoint = %q", fc.cfg.Endpoint)
	}
	if fc.cfg.ProjectID != defaultProjectID {
		t.Errorf("ProjectID = %q", fc.cfg.ProjectID)
	}
	if fc.cfg.FunctionID != defaultFunctionID {
		t.Errorf("FunctionID = %q", fc.cfg.FunctionID)
	}
}

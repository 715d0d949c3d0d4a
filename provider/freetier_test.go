package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	conlang "github.com/supastishn/conlang-translator"
)

func freeTierRequest() conlang.TranslationRequest {
	settings := conlang.DefaultSettings()
	settings.Provider = conlang.ProviderFreeTier
	settings.APIKey = "" // never needed
	return conlang.TranslationRequest{
		SourceText: "Hello",
		SourceLang: conlang.English,
		TargetLang: conlang.Draconic,
		Settings:   settings,
	}
}

func imageMessages() conlang.MessageList {
	return conlang.MessageList{
		{Role: conlang.RoleSystem, Content: "You are a translator."},
		{Role: conlang.RoleUser, Content: "Translate this.", ImageURL: "data:image/png;base64,eA=="},
	}
}

func TestFreeTier_Dispatch(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "<translation>grrah</translation>"}},
			},
		})
	}))
	defer srv.Close()

	f := NewFreeTierWithBaseURL(srv.URL)
	raw, err := f.Dispatch(context.Background(), freeTierRequest(), promptMessages(), nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if raw != "<translation>grrah</translation>" {
		t.Errorf("Raw = %q", raw)
	}
	// Keyless: no credential leaves the process.
	if gotAuth != "" && gotAuth != "Bearer " {
		t.Errorf("Expected no credential, got Authorization = %q", gotAuth)
	}
}

func TestFreeTier_RejectsImages(t *testing.T) {
	f := NewFreeTierWithBaseURL("http://unused.invalid")

	req := freeTierRequest()
	req.Settings.FreeTierImages = conlang.ImageReject

	_, err := f.Dispatch(context.Background(), req, imageMessages(), nil)
	var inputErr *conlang.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("Expected InputError, got %v", err)
	}
}

func TestFreeTier_DropsImages(t *testing.T) {
	var sawMultipart bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content any `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		for _, m := range body.Messages {
			if _, isList := m.Content.([]any); isList {
				sawMultipart = true
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "<translation>grrah</translation>"}},
			},
		})
	}))
	defer srv.Close()

	req := freeTierRequest()
	req.Settings.FreeTierImages = conlang.ImageDrop

	msgs := imageMessages()
	f := NewFreeTierWithBaseURL(srv.URL)
	raw, err := f.Dispatch(context.Background(), req, msgs, nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if raw != "<translation>grrah</translation>" {
		t.Errorf("Raw = %q", raw)
	}
	if sawMultipart {
		t.Error("Image part should have been dropped before dispatch")
	}
	// The caller's message list is untouched.
	if msgs[1].ImageURL == "" {
		t.Error("Dispatch must not mutate the caller's messages")
	}
}

func TestFreeTier_NoStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Stream {
			t.Error("Free tier must never request streaming")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "<translation>grrah</translation>"}},
			},
		})
	}))
	defer srv.Close()

	req := freeTierRequest()
	req.Settings.StreamingEnabled = true // ignored by this adapter

	calls := 0
	f := NewFreeTierWithBaseURL(srv.URL)
	if _, err := f.Dispatch(context.Background(), req, promptMessages(), func(string) { calls++ }); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no partial callbacks, got %d", calls)
	}
}

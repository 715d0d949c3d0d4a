package conlang

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Translator is the translation pipeline: validate, build the prompt,
// dispatch to a provider, parse the reply, record history.
//
// It holds no mutable state of its own besides the history store, and it
// imposes no mutex: a caller that fires two concurrent requests gets two
// independent completions and must serialize at the call site if that is
// undesired.
type Translator struct {
	resolver  Resolver
	resources ResourceProvider
	history   HistoryStore
	logger    *zap.Logger
	retry     *RetryConfig
	limiter   *RateLimiter
	now       func() time.Time
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithResources sets the linguistic resource provider used by the prompt
// builder.
func WithResources(r ResourceProvider) TranslatorOption {
	return func(t *Translator) {
		t.resources = r
	}
}

// WithHistory sets the history store. Completed translations are appended to
// it; without one, history recording is skipped.
func WithHistory(h HistoryStore) TranslatorOption {
	return func(t *Translator) {
		t.history = h
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = l
	}
}

// WithRetry wraps every dispatch in exponential-backoff retry for retryable
// transport errors.
func WithRetry(cfg RetryConfig) TranslatorOption {
	return func(t *Translator) {
		t.retry = &cfg
	}
}

// WithRateLimit applies a token-bucket rate limit to dispatches.
func WithRateLimit(cfg RateLimitConfig) TranslatorOption {
	return func(t *Translator) {
		t.limiter = NewRateLimiter(cfg)
	}
}

// NewTranslator creates a Translator. The resolver maps each request's
// settings to a concrete provider adapter.
func NewTranslator(resolver Resolver, opts ...TranslatorOption) *Translator {
	t := &Translator{
		resolver: resolver,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate runs one request to completion without streaming.
func (t *Translator) Translate(ctx context.Context, req TranslationRequest) (*Result, error) {
	return t.translate(ctx, req, nil)
}

// TranslateStream runs one request, invoking onPartial with the full
// accumulated raw text after every increment when the selected provider
// delivers incrementally. Callers that want a live preview can run Parse on
// each partial; the final Result uses the identical parse.
func (t *Translator) TranslateStream(ctx context.Context, req TranslationRequest, onPartial func(string)) (*Result, error) {
	return t.translate(ctx, req, onPartial)
}

func (t *Translator) translate(ctx context.Context, req TranslationRequest, onPartial func(string)) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	builder := PromptBuilder{Resources: t.resources}
	msgs, err := builder.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	prov, err := t.resolver(req.Settings)
	if err != nil {
		return nil, err
	}
	if t.retry != nil {
		prov = NewRetryableProvider(prov, *t.retry)
	}
	if t.limiter != nil {
		prov = &rateLimitedProvider{provider: prov, limiter: t.limiter}
	}

	t.logger.Debug("dispatching translation",
		zap.String("provider", string(req.Settings.Provider)),
		zap.String("source", string(req.SourceLang)),
		zap.String("target", string(req.TargetLang)),
		zap.Bool("image", req.ImageDataURL != ""),
	)

	raw, err := prov.Dispatch(ctx, req, msgs, onPartial)
	if err != nil {
		t.logger.Warn("translation dispatch failed", zap.Error(err))
		return nil, err
	}

	parsed := Parse(raw)
	result := &Result{Raw: raw, Parsed: parsed}

	if t.history != nil {
		entry := t.newHistoryEntry(req, parsed.Translation)
		if err := t.history.Add(entry); err != nil {
			// History is a convenience; a persistence failure must not void a
			// completed translation.
			t.logger.Warn("failed to record history", zap.Error(err))
		} else {
			result.Entry = &entry
		}
	}

	return result, nil
}

func (t *Translator) newHistoryEntry(req TranslationRequest, translated string) HistoryEntry {
	logged := req.SourceText
	if logged == "" && req.ImageDataURL != "" {
		logged = "[Image Input]"
	}
	now := t.now()
	return HistoryEntry{
		ID:             now.UnixMilli(),
		CreatedAt:      now.UTC().Format(time.RFC3339),
		SourceText:     logged,
		TranslatedText: translated,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
	}
}

// ValidateRequest checks the local invariants that must hold before any
// network call: a supported language pair, non-empty input, a supported
// image attachment, and a sampling temperature in range.
func ValidateRequest(req TranslationRequest) error {
	if !req.SourceLang.ValidSource() {
		return &InputError{Message: "unknown source language: " + string(req.SourceLang)}
	}
	if !req.TargetLang.ValidTarget() {
		return &InputError{Message: "invalid target language: " + string(req.TargetLang)}
	}
	if req.SourceLang == req.TargetLang && req.SourceLang != Detect {
		return &InputError{Message: "source and target languages cannot be the same"}
	}
	if req.SourceText == "" && req.ImageDataURL == "" {
		return &InputError{Message: "enter text or attach an image to translate"}
	}
	if req.Settings.Temperature < 0 || req.Settings.Temperature > 2 {
		return &InputError{Message: "temperature must be between 0 and 2"}
	}
	if req.ImageDataURL != "" {
		if err := ValidateImageDataURL(req.ImageDataURL); err != nil {
			return err
		}
	}
	return nil
}

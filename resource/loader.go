// Package resource fetches the linguistic reference material (grammar notes,
// dictionary CSV fragments, conlang rule files) that grounds the model's
// translations. Loading degrades instead of failing: a file that cannot be
// fetched contributes a placeholder string so a translation can still proceed
// on the model's own knowledge.
package resource

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	conlang "github.com/supastishn/conlang-translator"
	"github.com/supastishn/conlang-translator/cache"
)

// Well-known material paths under the base URL.
const (
	grammarPath      = "/materials/grammar.txt"
	dwlPath          = "/materials/dwl.txt"
	obwaKimoPath     = "/materials/conlangs/obwakimo.txt"
	illuveterianPath = "/materials/conlangs/illuveterian.txt"
	csvDirPath       = "/materials/csvs"
	csvIndexPath     = csvDirPath + "/index.json"
)

// fallbackCSVFiles is used when the dictionary index is missing. The names
// match the upstream spreadsheet exports.
var fallbackCSVFiles = []string{
	"WIP - Draconic Dictionary - Common Phrases.csv",
	"WIP - Draconic Dictionary - Dictionary.csv",
	"WIP - Draconic Dictionary - Noun Forms.csv",
	"WIP - Draconic Dictionary - Phonology.csv",
	"WIP - Draconic Dictionary - Pronouns & Determiners.csv",
	"WIP - Draconic Dictionary - Verb Conjugation.csv",
}

// Loader fetches reference material over HTTP with optional caching.
type Loader struct {
	http    *resty.Client
	baseURL string
	cache   cache.ResourceCache
	logger  *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache sets a cache for fetched files. Static materials rarely change,
// so even a short TTL removes almost all refetching.
func WithCache(c cache.ResourceCache) Option {
	return func(l *Loader) {
		l.cache = c
	}
}

// WithLogger sets a logger for fetch failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader that resolves material paths against baseURL.
func NewLoader(baseURL string, opts ...Option) *Loader {
	l := &Loader{
		http: resty.New().
			SetHeader("User-Agent", conlang.UserAgent()),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches one material file. On any failure it returns a bracketed
// placeholder naming the path, never an error: the prompt builder treats the
// placeholder as the resource text and the translation proceeds degraded.
func (l *Loader) Load(ctx context.Context, path string) string {
	if l.cache != nil {
		if body, ok := l.cache.Get(path); ok {
			return body
		}
	}

	resp, err := l.http.R().
		SetContext(ctx).
		Get(l.baseURL + path)
	if err != nil {
		l.logger.Warn("resource fetch failed", zap.String("path", path), zap.Error(err))
		return fmt.Sprintf("[Resource %s could not be loaded due to an error]", path)
	}
	if resp.IsError() {
		l.logger.Warn("resource not found",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()))
		return fmt.Sprintf("[Resource file (%s) not found or could not be loaded]", path)
	}

	body := string(resp.Body())
	if l.cache != nil {
		if err := l.cache.Set(path, body); err != nil {
			l.logger.Warn("resource cache write failed", zap.String("path", path), zap.Error(err))
		}
	}
	return body
}

// csvFiles lists the dictionary fragments, preferring the directory's
// index.json (a JSON array of filenames, filtered to .csv) and falling back
// to the fixed export list when the index is absent.
func (l *Loader) csvFiles(ctx context.Context) []string {
	var listed []string
	resp, err := l.http.R().
		SetContext(ctx).
		SetResult(&listed).
		Get(l.baseURL + csvIndexPath)
	if err == nil && !resp.IsError() && len(listed) > 0 {
		files := make([]string, 0, len(listed))
		for _, name := range listed {
			if strings.HasSuffix(strings.ToLower(name), ".csv") {
				files = append(files, name)
			}
		}
		if len(files) > 0 {
			return files
		}
	}
	return fallbackCSVFiles
}

// DictionaryBundle fetches every Draconic dictionary fragment and joins them,
// each wrapped in a "### name ###" header so the model can tell the sheets
// apart.
func (l *Loader) DictionaryBundle(ctx context.Context) string {
	var b strings.Builder
	for _, file := range l.csvFiles(ctx) {
		body := l.Load(ctx, csvDirPath+"/"+file)
		fmt.Fprintf(&b, "\n### %s ###\n%s\n", file, body)
	}
	return b.String()
}

// Block returns the reference sections for the languages involved in a
// request, ready to append to the system prompt. Languages outside the
// request contribute nothing.
func (l *Loader) Block(ctx context.Context, source, target conlang.Language) string {
	involved := func(lang conlang.Language) bool {
		return source == lang || target == lang
	}

	var b strings.Builder
	if involved(conlang.Draconic) {
		b.WriteString("\n\nDRACONIC RESOURCES:\nDictionary:\n")
		b.WriteString(l.DictionaryBundle(ctx))
		b.WriteString("\nGrammar:\n")
		b.WriteString(l.Load(ctx, grammarPath))
	}
	if involved(conlang.DWL) {
		b.WriteString("\n\nDIACRITICAL WALUIGI LANGUAGE RESOURCES:\n")
		b.WriteString(l.Load(ctx, dwlPath))
	}
	if involved(conlang.ObwaKimo) {
		b.WriteString("\n\nOBWA KIMO RESOURCES:\n")
		b.WriteString(l.Load(ctx, obwaKimoPath))
	}
	if involved(conlang.Illuveterian) {
		b.WriteString("\n\nILLUVETERIAN RESOURCES:\n")
		b.WriteString(l.Load(ctx, illuveterianPath))
	}
	return b.String()
}

// Verify Loader implements ResourceProvider
var _ conlang.ResourceProvider = (*Loader)(nil)

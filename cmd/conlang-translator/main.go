// Command conlang-translator translates between English and constructed
// languages using AI.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	conlang "github.com/supastishn/conlang-translator"
	"github.com/supastishn/conlang-translator/cache"
	"github.com/supastishn/conlang-translator/history"
	"github.com/supastishn/conlang-translator/provider"
	"github.com/supastishn/conlang-translator/resource"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = conlang.Version
	commit    = conlang.GitCommit
	buildDate = conlang.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("conlang-translator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Flags
	sourceLang := fs.String("source", "english", "Source language (english, draconic, dwl, obwakimo, illuveterian, detect)")
	targetLang := fs.String("target", "draconic", "Target language")
	providerKind := fs.String("provider", "direct", "Provider (direct, function, freetier)")
	apiKey := fs.String("api-key", "", "API key for the direct provider (default: OPENAI_API_KEY env)")
	baseURL := fs.String("base-url", "", "Chat-completions base URL for the direct provider")
	model := fs.String("model", "", "Model to use")
	temperature := fs.Float64("temperature", 0, "Sampling temperature [0,2]")
	stream := fs.Bool("stream", true, "Stream the response incrementally (direct provider only)")
	explain := fs.Bool("explain", false, "Ask for an explanation alongside the translation")
	imagePath := fs.String("image", "", "Image file to translate text from")
	materials := fs.String("materials", "", "Base URL for linguistic reference files")
	draconicOutput := fs.String("draconic-output", "normal", "Draconic romanization (normal, simplified)")
	dwlMode := fs.String("dwl-mode", "natural", "DWL-to-English rendering (natural, raw)")
	freeImages := fs.String("free-images", "reject", "Free-tier image handling (reject, drop)")
	noHistory := fs.Bool("no-history", false, "Do not record this translation")
	listHistory := fs.Bool("history", false, "List recent translations and exit")
	clearHistory := fs.Bool("clear-history", false, "Clear the translation history and exit")
	removeID := fs.Int64("remove", 0, "Remove one history entry by id and exit")
	jsonOutput := fs.Bool("json", false, "Output result as JSON")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", conlang.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	store, err := openHistory()
	if err != nil {
		return err
	}

	// History maintenance modes exit before any translation.
	switch {
	case *listHistory:
		return printHistory(stdout, store)
	case *clearHistory:
		return store.Clear()
	case *removeID != 0:
		return store.Remove(*removeID)
	}

	settings := conlang.DefaultSettings()
	settings.Provider = conlang.ProviderKind(*providerKind)
	settings.IncludeExplanation = *explain
	settings.StreamingEnabled = *stream
	settings.DraconicOutput = *draconicOutput
	settings.DWLToEnglish = *dwlMode
	settings.FreeTierImages = conlang.ImagePolicy(*freeImages)
	if *model != "" {
		settings.Model = *model
	}
	if *baseURL != "" {
		settings.BaseURL = *baseURL
	}
	if *temperature != 0 {
		settings.Temperature = float32(*temperature)
	}

	if settings.Provider == conlang.ProviderDirect {
		key := *apiKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return fmt.Errorf("API key required for the direct provider (--api-key or OPENAI_API_KEY env)")
		}
		settings.APIKey = key
	}

	// Get input
	var input string
	if fs.NArg() > 0 {
		input = strings.Join(fs.Args(), " ")
	} else if *imagePath == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		input = strings.TrimRight(string(data), "\n")
	}

	req := conlang.TranslationRequest{
		SourceText: input,
		SourceLang: conlang.Language(*sourceLang),
		TargetLang: conlang.Language(*targetLang),
		Settings:   settings,
	}
	if *imagePath != "" {
		dataURL, err := imageToDataURL(*imagePath)
		if err != nil {
			return err
		}
		req.ImageDataURL = dataURL
	}

	// Build options
	opts := []conlang.TranslatorOption{
		conlang.WithRetry(conlang.DefaultRetryConfig()),
	}
	if !*noHistory {
		opts = append(opts, conlang.WithHistory(store))
	}
	if *materials != "" {
		opts = append(opts, conlang.WithResources(
			resource.NewLoader(*materials, resource.WithCache(cache.NewInMemoryCache(3600)))))
	}

	translator := conlang.NewTranslator(provider.Resolve, opts...)

	if !*quiet {
		fmt.Fprintf(stderr, "Translating %s to %s...\n",
			req.SourceLang.Label(), req.TargetLang.Label())
	}

	start := time.Now()
	var result *conlang.Result
	if *stream && !*quiet && !*jsonOutput {
		// Print increments as they arrive; each callback carries the full
		// text so far.
		printed := 0
		result, err = translator.TranslateStream(context.Background(), req, func(sofar string) {
			fmt.Fprint(stderr, sofar[printed:])
			printed = len(sofar)
		})
		if printed > 0 {
			fmt.Fprintln(stderr)
		}
	} else {
		result, err = translator.Translate(context.Background(), req)
	}
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	if *jsonOutput {
		return outputJSON(stdout, result, elapsed)
	}

	fmt.Fprintln(stdout, result.Parsed.Translation)
	if result.Parsed.Explanation != "" {
		fmt.Fprintf(stderr, "\nExplanation:\n%s\n", result.Parsed.Explanation)
	}
	if !*quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
	}

	return nil
}

// openHistory opens the persistent history under the user config directory.
// When no config directory is available the history is kept in memory only.
func openHistory() (*history.Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return history.NewStore(nil)
	}
	path := filepath.Join(dir, "conlang-translator", "history.json")
	return history.NewStore(history.NewFileStore(path))
}

func printHistory(w io.Writer, store *history.Store) error {
	entries := store.List()
	if len(entries) == 0 {
		fmt.Fprintln(w, "history is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%d  %s  %s -> %s\n    %s\n    %s\n",
			e.ID, e.CreatedAt,
			e.SourceLang.Label(), e.TargetLang.Label(),
			e.SourceText, e.TranslatedText)
	}
	return nil
}

// imageToDataURL reads an image file into the data-URL form the providers
// accept.
func imageToDataURL(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	var mime string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".png":
		mime = "image/png"
	case ".gif":
		mime = "image/gif"
	case ".webp":
		mime = "image/webp"
	default:
		return "", fmt.Errorf("unsupported image format: please use PNG, JPEG, GIF or WEBP")
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func outputJSON(w io.Writer, result *conlang.Result, elapsed time.Duration) error {
	type output struct {
		Translation string `json:"translation"`
		Explanation string `json:"explanation,omitempty"`
		Raw         string `json:"raw"`
		ElapsedMS   int64  `json:"elapsed_ms"`
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{
		Translation: result.Parsed.Translation,
		Explanation: result.Parsed.Explanation,
		Raw:         result.Raw,
		ElapsedMS:   elapsed.Milliseconds(),
	})
}

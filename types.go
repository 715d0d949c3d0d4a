// Package conlang provides prompt construction, provider dispatch and
// response parsing for a constructed-language translator backed by LLM APIs.
package conlang

import "context"

// ProviderKind selects which backend carries out a translation request.
type ProviderKind string

const (
	// ProviderDirect calls a user-configured OpenAI-compatible chat-completions
	// endpoint with a bearer API key. Supports streaming.
	ProviderDirect ProviderKind = "direct"
	// ProviderFunction invokes a serverless backend function that holds the
	// model credentials server-side.
	ProviderFunction ProviderKind = "function"
	// ProviderFreeTier posts to a fixed public, keyless chat endpoint.
	// No images, no streaming.
	ProviderFreeTier ProviderKind = "freetier"
)

// ImagePolicy controls what the free-tier adapter does with image attachments,
// which its endpoint cannot accept.
type ImagePolicy string

const (
	// ImageReject fails the request before dispatch when an image is attached.
	ImageReject ImagePolicy = "reject"
	// ImageDrop silently strips the image and sends text only.
	ImageDrop ImagePolicy = "drop"
)

// DraconicOutput values for Settings.DraconicOutput.
const (
	DraconicNormal     = "normal"
	DraconicSimplified = "simplified"
)

// DWLToEnglish values for Settings.DWLToEnglish.
const (
	DWLNatural = "natural"
	DWLRaw     = "raw"
)

// Settings is the user-editable translation configuration. It is persisted
// externally as an opaque JSON blob and treated as read-only input by the
// core: every function that needs it takes it as an explicit argument.
type Settings struct {
	Provider           ProviderKind `json:"providerType"`
	APIKey             string       `json:"apiKey"`
	BaseURL            string       `json:"baseUrl"`
	Model              string       `json:"model"`
	Temperature        float32      `json:"temperature"`
	SystemPrompt       string       `json:"systemPrompt"`
	StreamingEnabled   bool         `json:"streamingEnabled"`
	IncludeExplanation bool         `json:"includeExplanation"`
	DraconicOutput     string       `json:"draconicOutputType"`
	DWLToEnglish       string       `json:"dwlToEnglishType"`
	FreeTierImages     ImagePolicy  `json:"freeTierImagePolicy"`
}

// DefaultSystemPrompt is the stock translator persona.
const DefaultSystemPrompt = "You are an expert multilingual translator. " +
	"Translate the text as requested, using the provided linguistic resources. " +
	"Follow all output formatting instructions precisely."

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		Provider:           ProviderDirect,
		BaseURL:            "https://api.openai.com/v1",
		Model:              "gpt-4o",
		Temperature:        0,
		SystemPrompt:       DefaultSystemPrompt,
		StreamingEnabled:   true,
		IncludeExplanation: false,
		DraconicOutput:     DraconicNormal,
		DWLToEnglish:       DWLNatural,
		FreeTierImages:     ImageReject,
	}
}

// TranslationRequest is one unit of work. At least one of SourceText and
// ImageDataURL must be set, and SourceLang must differ from TargetLang unless
// SourceLang is Detect.
type TranslationRequest struct {
	SourceText   string
	SourceLang   Language
	TargetLang   Language
	ImageDataURL string // optional data: URL (PNG, JPEG, GIF or WEBP)
	Settings     Settings
}

// Role of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one provider-agnostic chat turn. When ImageURL is set the
// message is delivered as a multi-part content list: text first, image second.
type Message struct {
	Role     Role
	Content  string
	ImageURL string
}

// MessageList is an ordered prompt. It is built fresh for every request and
// never mutated after dispatch.
type MessageList []Message

// ParsedResponse is the interpreted provider reply. Translation is never lost:
// when the wrapping markup is malformed the entire raw reply becomes the
// translation.
type ParsedResponse struct {
	Translation string `json:"translation"`
	Explanation string `json:"explanation,omitempty"`
}

// HistoryEntry is one completed translation. Entries are immutable after
// creation and owned by the history store.
type HistoryEntry struct {
	ID             int64    `json:"id"`        // millisecond timestamp
	CreatedAt      string   `json:"timestamp"` // ISO-8601
	SourceText     string   `json:"sourceText"`
	TranslatedText string   `json:"translatedText"`
	SourceLang     Language `json:"sourceLang"`
	TargetLang     Language `json:"targetLang"`
}

// Result is the outcome of a completed translation.
type Result struct {
	Raw    string // full raw provider reply
	Parsed ParsedResponse
	Entry  *HistoryEntry // nil when no history store is configured
}

// Provider is the interface for translation backends. Implementations live in
// the provider package; this definition sits at the root so adapters and the
// orchestrator do not import each other.
//
// Dispatch sends the prompt and returns the raw reply text. The request is
// passed alongside the built MessageList because the function-call backend
// forwards the original fields rather than a rendered prompt. onPartial, when
// non-nil and the backend supports incremental delivery, receives the full
// accumulated text after every increment, in arrival order.
type Provider interface {
	Dispatch(ctx context.Context, req TranslationRequest, msgs MessageList, onPartial func(string)) (string, error)
}

// Resolver maps request settings to a concrete Provider.
type Resolver func(Settings) (Provider, error)

// ResourceProvider supplies the linguistic resource block for a language pair.
// Implementations never fail: unavailable files degrade to placeholder text
// inside the returned block.
type ResourceProvider interface {
	Block(ctx context.Context, source, target Language) string
}

// HistoryStore is the capacity-bounded log of past translations.
type HistoryStore interface {
	Add(entry HistoryEntry) error
	Remove(id int64) error
	Clear() error
	List() []HistoryEntry
}

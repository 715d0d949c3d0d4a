package conlang

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// Output-format directive appended to every user prompt. Its exact wording is
// part of the wire contract with Parse and must not vary per provider.
const (
	formatDirective = "\n\nWrap your response in XML exactly as:\n" +
		"<translation>…</translation>\n" +
		"Do not include any other text."
	formatDirectiveWithExplanation = "\n\nWrap your response in XML exactly as:\n" +
		"<translation>…</translation>\n" +
		"<explanation>…</explanation>\n" +
		"Do not include any other text."
)

// DWL-to-English directionality hints. The two modes are mutually exclusive.
const (
	dwlRawInstruction     = "Translate into raw English, preserving original phrasing and diacritic implications even if unnatural."
	dwlNaturalInstruction = "Translate into natural, grammatically correct English, interpreting diacritics for fluent output."
)

const draconicSimplifiedHint = " (When generating Draconic, output simplified romanization)"

// MaxImageBytes is the largest accepted decoded image size.
const MaxImageBytes = 20 * 1024 * 1024

var imageDataURLRe = regexp.MustCompile(`^data:image/(jpeg|png|gif|webp);base64,`)

// ValidateImageDataURL checks that an attachment is a PNG, JPEG, GIF or WEBP
// data URL within the size limit. Anything else is rejected before dispatch.
func ValidateImageDataURL(dataURL string) error {
	m := imageDataURLRe.FindString(dataURL)
	if m == "" {
		return &InputError{Message: "unsupported image format: please use PNG, JPEG, GIF or WEBP"}
	}
	payload := dataURL[len(m):]
	if decoded := base64.StdEncoding.DecodedLen(len(payload)); decoded > MaxImageBytes {
		return &InputError{Message: fmt.Sprintf("image is too large: maximum size is %dMB", MaxImageBytes/(1024*1024))}
	}
	return nil
}

// PromptBuilder assembles the provider-agnostic message list for a request.
// Resources supplies the linguistic reference block; a nil Resources builds
// prompts without one.
type PromptBuilder struct {
	Resources ResourceProvider
}

// Build composes the system and user messages for the request. The system
// prompt is the configured persona plus resources for the languages actually
// involved; the user prompt carries the translation instruction, any
// per-language formatting hints, and the mandatory output-format directive.
func (b *PromptBuilder) Build(ctx context.Context, req TranslationRequest) (MessageList, error) {
	if req.ImageDataURL != "" {
		if err := ValidateImageDataURL(req.ImageDataURL); err != nil {
			return nil, err
		}
	}

	system := req.Settings.SystemPrompt
	if b.Resources != nil {
		system += b.Resources.Block(ctx, req.SourceLang, req.TargetLang)
	}

	dwlInstruction := dwlNaturalInstruction
	if req.Settings.DWLToEnglish == DWLRaw {
		dwlInstruction = dwlRawInstruction
	}

	var user string
	if req.ImageDataURL != "" {
		user = imageInstruction(req, dwlInstruction)
	} else {
		user = textInstruction(req, dwlInstruction)

		// Per-language output hints apply to the text path only.
		if req.TargetLang == Draconic && req.Settings.DraconicOutput == DraconicSimplified {
			user += draconicSimplifiedHint
		} else if req.SourceLang == DWL && req.TargetLang == English && req.Settings.DWLToEnglish != "" {
			user += " (" + dwlInstruction + ")"
		}
	}

	if req.Settings.IncludeExplanation {
		user += formatDirectiveWithExplanation
	} else {
		user += formatDirective
	}

	msgs := MessageList{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user, ImageURL: req.ImageDataURL},
	}
	return msgs, nil
}

func textInstruction(req TranslationRequest, dwlInstruction string) string {
	if req.SourceLang == Detect {
		s := fmt.Sprintf(
			"First, identify if the input text is English, Draconic, Diacritical Waluigi Language, Obwa Kimo, or Illuveterian. Then, translate the identified text into %s.",
			req.TargetLang.Label())
		if req.TargetLang == English {
			s += " If the identified source is Diacritical Waluigi Language, " + dwlInstruction
		}
		return s + " Input text:\n\n\"" + req.SourceText + "\""
	}
	return fmt.Sprintf("Translate the following %s text to %s:\n\n\"%s\"",
		req.SourceLang.Label(), req.TargetLang.Label(), req.SourceText)
}

func imageInstruction(req TranslationRequest, dwlInstruction string) string {
	var s string
	if req.SourceLang == Detect {
		s = fmt.Sprintf(
			"Analyze the provided image. Identify the language of any text present (options: English, Draconic, Diacritical Waluigi Language, Obwa Kimo). Then, translate that text into %s.",
			req.TargetLang.Label())
	} else {
		s = fmt.Sprintf("Analyze the provided image. Translate any %s text found in the image to %s.",
			req.SourceLang.Label(), req.TargetLang.Label())
	}
	if req.TargetLang == English && (req.SourceLang == DWL || req.SourceLang == Detect) {
		s += " If the source is Diacritical Waluigi Language, " + dwlInstruction
	}
	if req.SourceText != "" {
		s += fmt.Sprintf(" Additional instructions or text to consider: \"%s\"", req.SourceText)
	}
	return strings.TrimSpace(s)
}

package conlang

import (
	"encoding/xml"
	"io"
	"strings"
)

// Parse interprets a raw provider reply as XML-ish markup containing a
// <translation> element and an optional <explanation> element.
//
// The text is wrapped in a synthetic root element before parsing so a reply
// consisting of bare sibling fragments still parses. A single fenced code
// block around the reply (with an optional language tag) is stripped first.
//
// Parse never fails: when the markup is malformed, or carries neither tag,
// the entire raw text becomes the translation. During streaming an unclosed
// <translation> prefix yields the partial content collected so far. The same
// function serves both per-increment preview and the final buffer, so the two
// never diverge in interpretation.
func Parse(raw string) ParsedResponse {
	body := stripFence(raw)

	dec := xml.NewDecoder(strings.NewReader("<root>" + body + "</root>"))
	// Replies are markup-shaped, not well-formed XML: a bare & in the content
	// must pass through as text, and an element the stream cut off before its
	// end tag still has to yield what it collected.
	dec.Strict = false

	var translation, explanation strings.Builder
	var sawTranslation, sawExplanation, closedTranslation bool
	var current *strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A stray < broke the markup mid-content, so whatever was
			// collected may be truncated. Unless the translation element
			// already closed cleanly, the whole raw text wins.
			if !closedTranslation {
				return ParsedResponse{Translation: raw}
			}
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "translation":
				sawTranslation = true
				current = &translation
			case "explanation":
				sawExplanation = true
				current = &explanation
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "translation":
				closedTranslation = true
				current = nil
			case "explanation":
				current = nil
			}
		case xml.CharData:
			if current != nil {
				current.Write(t)
			}
		}
	}

	if !sawTranslation && !sawExplanation {
		// The model ignored the format directive, or the stream has not
		// reached the first tag yet. Correctness over strictness.
		return ParsedResponse{Translation: raw}
	}

	return ParsedResponse{
		Translation: strings.TrimSpace(translation.String()),
		Explanation: strings.TrimSpace(explanation.String()),
	}
}

// Serialize renders a ParsedResponse into the two-tag wire form the output
// directive demands from the model. Text content is XML-escaped, so
// Parse(Serialize(r)) round-trips exactly.
func Serialize(r ParsedResponse) string {
	var b strings.Builder
	b.WriteString("<translation>")
	escapeXML(&b, r.Translation)
	b.WriteString("</translation>")
	if r.Explanation != "" {
		b.WriteString("\n<explanation>")
		escapeXML(&b, r.Explanation)
		b.WriteString("</explanation>")
	}
	return b.String()
}

func escapeXML(b *strings.Builder, s string) {
	_ = xml.EscapeText(b, []byte(s))
}

// stripFence removes one leading and trailing Markdown code fence, keeping
// the inner content. Replies like "```xml\n<translation>…\n```" are common
// when a model wraps its output despite instructions.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	rest := trimmed[3:]
	// Drop the optional language tag on the opening fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return s
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

package conlang

// Language is an enumerated language tag. Besides English the translator
// supports a small set of constructed languages, plus a "detect" pseudo
// language that asks the model to identify the input language itself.
type Language string

const (
	// English is the only natural language in the set.
	English Language = "english"
	// Draconic is a constructed language with dictionary CSVs and a grammar file.
	Draconic Language = "draconic"
	// DWL is the Diacritical Waluigi Language, a diacritic-heavy conlang.
	DWL Language = "dwl"
	// ObwaKimo is a constructed language described by a single rule file.
	ObwaKimo Language = "obwakimo"
	// Illuveterian is a constructed language described by a single rule file.
	Illuveterian Language = "illuveterian"
	// Detect asks the model to identify the source language. Only valid as a
	// source, never as a target.
	Detect Language = "detect"
)

// languageLabels maps language tags to human-readable names used in prompts
// and history rendering.
var languageLabels = map[Language]string{
	English:      "English",
	Draconic:     "Draconic",
	DWL:          "Diacritical Waluigi Language",
	ObwaKimo:     "Obwa Kimo",
	Illuveterian: "Illuveterian",
	Detect:       "Detect Language",
}

// Languages returns every valid source language, Detect included.
func Languages() []Language {
	return []Language{Detect, English, Draconic, DWL, ObwaKimo, Illuveterian}
}

// Targets returns every valid target language.
func Targets() []Language {
	return []Language{English, Draconic, DWL, ObwaKimo, Illuveterian}
}

// Label returns the human-readable name for the language.
// Falls back to the tag itself if unknown.
func (l Language) Label() string {
	if name, ok := languageLabels[l]; ok {
		return name
	}
	return string(l)
}

// Known reports whether the tag is one of the supported languages.
func (l Language) Known() bool {
	_, ok := languageLabels[l]
	return ok
}

// ValidSource reports whether the language may appear as a request source.
func (l Language) ValidSource() bool {
	return l.Known()
}

// ValidTarget reports whether the language may appear as a request target.
// Detect is never a valid target.
func (l Language) ValidTarget() bool {
	return l.Known() && l != Detect
}

// Conlang reports whether the language is constructed and therefore has
// linguistic resource files that must be loaded into the prompt.
func (l Language) Conlang() bool {
	switch l {
	case Draconic, DWL, ObwaKimo, Illuveterian:
		return true
	}
	return false
}

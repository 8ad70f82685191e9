package translate

import (
	"fmt"
	"strings"
)

// StaticTranslator applies a deterministic text transform per language.
// It stands in for a real machine-translation backend and keeps the
// pipeline pure: same text and language in, same text out.
type StaticTranslator struct {
	supported map[string]string
}

// NewStaticTranslator creates a translator for the default language set.
func NewStaticTranslator() *StaticTranslator {
	return &StaticTranslator{
		supported: map[string]string{
			"en": "English",
			"ur": "Urdu",
			"es": "Spanish",
			"fr": "French",
			"de": "German",
		},
	}
}

// Supports reports whether the language code can be translated to.
func (t *StaticTranslator) Supports(lang string) bool {
	_, ok := t.supported[lang]
	return ok
}

// Translate transforms text into the target language. English and
// unsupported languages return the text unchanged.
func (t *StaticTranslator) Translate(text, targetLang string) string {
	if targetLang == "en" || !t.Supports(targetLang) {
		return text
	}
	if targetLang == "ur" {
		return fmt.Sprintf("[URDU TRANSLATION: %s]", text)
	}
	return fmt.Sprintf("[TRANSLATION TO %s: %s]", strings.ToUpper(targetLang), text)
}

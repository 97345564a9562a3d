package corpus

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// LanguageDetector names the language of a text as a lowercase ISO 639-1
// code.
type LanguageDetector interface {
	Detect(text string) (string, bool)
}

// LinguaDetector detects languages with lingua.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// DefaultLanguages is the candidate set used when none is given.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
}

// NewLinguaDetector builds a detector over languages, or DefaultLanguages.
func NewLinguaDetector(languages ...lingua.Language) *LinguaDetector {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}
}

// Detect implements LanguageDetector.
func (l *LinguaDetector) Detect(text string) (string, bool) {
	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

const detectSample = 4096

func detectLanguage(doc *Document, d LanguageDetector) {
	if d == nil {
		return
	}
	if _, ok := doc.Metadata[KeyLanguage]; ok {
		return
	}
	if code, ok := d.Detect(sample(doc.Text)); ok {
		doc.Metadata[KeyLanguage] = code
	}
}

// sample returns at most detectSample bytes of text, cut on a rune boundary.
func sample(text string) string {
	if len(text) <= detectSample {
		return text
	}
	n := detectSample
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// Package corpus holds documents with metadata and loads them from disk.
package corpus

import (
	"strconv"
	"strings"
	"sync"

	"github.com/cognicore/proxima/pkg/proxima/counter"
)

// Reserved metadata keys resolved from Document fields.
const (
	KeyLabel    = "label"
	KeyDate     = "date"
	KeyFilename = "filename"
	KeyLanguage = "language"
)

// Document is one text with its metadata. Text is treated as immutable once
// Tokens has been called.
type Document struct {
	Label    string
	Date     *int
	Metadata map[string]string
	Text     string

	once   sync.Once
	tokens []string
}

// NewDocument builds a document; date may be nil.
func NewDocument(label, text string, date *int, metadata map[string]string) *Document {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	return &Document{Label: label, Text: text, Date: date, Metadata: meta}
}

// Year is a helper for literal dates.
func Year(y int) *int {
	return &y
}

// Tokens returns the lowercased words of the text with smart quotes
// normalised and ASCII punctuation removed. The result is computed once.
func (d *Document) Tokens() []string {
	d.once.Do(func() {
		d.tokens = Tokenize(d.Text)
	})
	return d.tokens
}

var smartQuotes = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// Tokenize applies the document tokenization rules to text.
func Tokenize(text string) []string {
	text = smartQuotes.Replace(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isASCIIPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Fields(strings.ToLower(b.String()))
}

func isASCIIPunct(r rune) bool {
	switch {
	case r >= '!' && r <= '/':
		return true
	case r >= ':' && r <= '@':
		return true
	case r >= '[' && r <= '`':
		return true
	case r >= '{' && r <= '~':
		return true
	}
	return false
}

// WordCount is the number of tokens.
func (d *Document) WordCount() int {
	return len(d.Tokens())
}

// WordCounts counts every token.
func (d *Document) WordCounts() counter.Counter {
	return counter.FromTokens(d.Tokens())
}

// CountOf counts occurrences of word, ignoring case.
func (d *Document) CountOf(word string) int {
	word = strings.ToLower(word)
	n := 0
	for _, tok := range d.Tokens() {
		if tok == word {
			n++
		}
	}
	return n
}

// FrequencyOf is CountOf divided by WordCount; 0 for empty documents.
func (d *Document) FrequencyOf(word string) float64 {
	total := d.WordCount()
	if total == 0 {
		return 0
	}
	return float64(d.CountOf(word)) / float64(total)
}

// Meta returns the value of key. label and date come from the document
// fields; everything else from Metadata.
func (d *Document) Meta(key string) (string, bool) {
	switch key {
	case KeyLabel:
		return d.Label, d.Label != ""
	case KeyDate:
		if d.Date == nil {
			return "", false
		}
		return strconv.Itoa(*d.Date), true
	}
	v, ok := d.Metadata[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Fields lists the metadata keys the document carries, label and date
// included when set.
func (d *Document) Fields() []string {
	out := make([]string, 0, len(d.Metadata)+2)
	if d.Label != "" {
		out = append(out, KeyLabel)
	}
	if d.Date != nil {
		out = append(out, KeyDate)
	}
	for k, v := range d.Metadata {
		if k == KeyLabel || k == KeyDate || v == "" {
			continue
		}
		out = append(out, k)
	}
	return out
}

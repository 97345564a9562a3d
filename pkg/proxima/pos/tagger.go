// Package pos wraps part-of-speech tagging behind a small interface and
// provides the Penn Treebank tag set used to filter windows.
package pos

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// Tagged is a token and its assigned tag.
type Tagged struct {
	Token string
	Tag   string
}

// Tagger assigns one tag per token, preserving order.
type Tagger interface {
	Tag(tokens []string) ([]Tagged, error)
}

// TaggerFunc adapts a function to Tagger.
type TaggerFunc func(tokens []string) ([]Tagged, error)

// Tag calls f.
func (f TaggerFunc) Tag(tokens []string) ([]Tagged, error) {
	return f(tokens)
}

// MapTagger tags known words from a lookup table and everything else with
// Default. It needs no model and is deterministic.
type MapTagger struct {
	Words   map[string]string
	Default string
}

// NewMapTagger creates a MapTagger with default tag "NN".
func NewMapTagger(words map[string]string) *MapTagger {
	return &MapTagger{Words: words, Default: "NN"}
}

// Tag implements Tagger.
func (m *MapTagger) Tag(tokens []string) ([]Tagged, error) {
	out := make([]Tagged, len(tokens))
	for i, tok := range tokens {
		tag, ok := m.Words[strings.ToLower(tok)]
		if !ok {
			tag = m.Default
		}
		out[i] = Tagged{Token: tok, Tag: tag}
	}
	return out, nil
}

// proseModel decodes the bundled perceptron once per process.
var proseModel = sync.OnceValue(func() *prose.Model {
	doc, err := prose.NewDocument("a",
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil
	}
	return doc.Model
})

// ProseTagger tags with the averaged perceptron model bundled in prose.
// The model is only read while tagging, so one instance is safe for
// concurrent use.
type ProseTagger struct {
	model *prose.Model
}

// NewProseTagger returns the default tagger. All instances share one model.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{model: proseModel()}
}

// Tag implements Tagger. prose may split a token differently than the
// corpus tokenizer did; when counts differ each token is tagged alone.
func (p *ProseTagger) Tag(tokens []string) ([]Tagged, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	tagged, err := p.tagText(strings.Join(tokens, " "))
	if err != nil {
		return nil, err
	}
	if len(tagged) == len(tokens) {
		for i := range tagged {
			tagged[i].Token = tokens[i]
		}
		return tagged, nil
	}

	out := make([]Tagged, len(tokens))
	for i, tok := range tokens {
		single, err := p.tagText(tok)
		if err != nil {
			return nil, err
		}
		tag := "SYM"
		if len(single) > 0 {
			tag = single[0].Tag
		}
		out[i] = Tagged{Token: tok, Tag: tag}
	}
	return out, nil
}

func (p *ProseTagger) tagText(text string) ([]Tagged, error) {
	opts := []prose.DocOpt{
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	}
	if p.model != nil {
		opts = append(opts, prose.UsingModel(p.model))
	}
	doc, err := prose.NewDocument(text, opts...)
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", text, err)
	}
	toks := doc.Tokens()
	out := make([]Tagged, len(toks))
	for i, tok := range toks {
		out[i] = Tagged{Token: tok.Text, Tag: tok.Tag}
	}
	return out, nil
}

// TagWord tags a single word on its own.
func TagWord(t Tagger, word string) (string, error) {
	tagged, err := t.Tag([]string{word})
	if err != nil {
		return "", err
	}
	if len(tagged) != 1 {
		return "", fmt.Errorf("tagger returned %d tags for one word", len(tagged))
	}
	return tagged[0].Tag, nil
}

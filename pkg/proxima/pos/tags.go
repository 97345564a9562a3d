package pos

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// Tags maps every Penn Treebank tag to a short description.
var Tags = map[string]string{
	"CC":   "conjunction, coordinating",
	"CD":   "numeral, cardinal",
	"DT":   "determiner",
	"EX":   "existential there",
	"FW":   "foreign word",
	"IN":   "preposition or conjunction, subordinating",
	"JJ":   "adjective or numeral, ordinal",
	"JJR":  "adjective, comparative",
	"JJS":  "adjective, superlative",
	"LS":   "list item marker",
	"MD":   "modal auxiliary",
	"NN":   "noun, common, singular or mass",
	"NNP":  "noun, proper, singular",
	"NNPS": "noun, proper, plural",
	"NNS":  "noun, common, plural",
	"PDT":  "pre-determiner",
	"POS":  "genitive marker",
	"PRP":  "pronoun, personal",
	"PRP$": "pronoun, possessive",
	"RB":   "adverb",
	"RBR":  "adverb, comparative",
	"RBS":  "adverb, superlative",
	"RP":   "particle",
	"SYM":  "symbol",
	"TO":   "\"to\" as preposition or infinitive marker",
	"UH":   "interjection",
	"VB":   "verb, base form",
	"VBD":  "verb, past tense",
	"VBG":  "verb, present participle or gerund",
	"VBN":  "verb, past participle",
	"VBP":  "verb, present tense, not 3rd person singular",
	"VBZ":  "verb, present tense, 3rd person singular",
	"WDT":  "WH-determiner",
	"WP":   "WH-pronoun",
	"WP$":  "WH-pronoun, possessive",
	"WRB":  "Wh-adverb",
}

// Describe returns the description of tag, or "" for unknown tags.
func Describe(tag string) string {
	return Tags[tag]
}

// Tag classes accepted by ClassTags.
const (
	ClassAdjectives = "adjectives"
	ClassAdverbs    = "adverbs"
	ClassVerbs      = "verbs"
	ClassPronouns   = "pronouns"
	ClassNouns      = "nouns"
)

var classes = map[string][]string{
	ClassAdjectives: {"JJ", "JJR", "JJS"},
	ClassAdverbs:    {"RB", "RBR", "RBS", "WRB"},
	ClassVerbs:      {"VB", "VBD", "VBG", "VBN", "VBP", "VBZ"},
	ClassPronouns:   {"PRP", "PRP$", "WP", "WP$"},
	ClassNouns:      {"NN", "NNS", "NNP", "NNPS"},
}

// ClassTags returns the tags of a named class.
func ClassTags(class string) ([]string, bool) {
	tags, ok := classes[strings.ToLower(class)]
	if !ok {
		return nil, false
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out, true
}

// Classes lists the known class names.
func Classes() []string {
	out := make([]string, 0, len(classes))
	for name := range classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TagSet is a validated set of accepted tags.
type TagSet struct {
	tags map[string]struct{}
}

// NewTagSet rejects empty sets and tags outside the Penn Treebank set.
func NewTagSet(tags ...string) (TagSet, error) {
	if len(tags) == 0 {
		return TagSet{}, fmt.Errorf("empty tag set: %w", internalerr.ErrInvalidConfig)
	}
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		if _, ok := Tags[tag]; !ok {
			return TagSet{}, fmt.Errorf("tag %q: %w", tag, internalerr.ErrUnknownTag)
		}
		set[tag] = struct{}{}
	}
	return TagSet{tags: set}, nil
}

// MustTagSet panics if the tags are invalid.
func MustTagSet(tags ...string) TagSet {
	ts, err := NewTagSet(tags...)
	if err != nil {
		panic(err)
	}
	return ts
}

// TagSetForClass builds the tag set of a named class.
func TagSetForClass(class string) (TagSet, error) {
	tags, ok := ClassTags(class)
	if !ok {
		return TagSet{}, fmt.Errorf("tag class %q: %w", class, internalerr.ErrInvalidConfig)
	}
	return NewTagSet(tags...)
}

// Adjectives is the default tag set.
func Adjectives() TagSet {
	return MustTagSet(classes[ClassAdjectives]...)
}

// Contains reports whether tag is accepted.
func (ts TagSet) Contains(tag string) bool {
	_, ok := ts.tags[tag]
	return ok
}

// Empty reports whether the set was never initialised.
func (ts TagSet) Empty() bool {
	return len(ts.tags) == 0
}

// List returns the tags in ascending order.
func (ts TagSet) List() []string {
	out := make([]string, 0, len(ts.tags))
	for tag := range ts.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// String joins the tags with commas; it doubles as a cache key.
func (ts TagSet) String() string {
	return strings.Join(ts.List(), ",")
}

package corpus

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// Corpus is a named, ordered collection of documents.
type Corpus struct {
	Name      string
	Documents []*Document
}

// New creates a corpus.
func New(name string, docs ...*Document) *Corpus {
	return &Corpus{Name: name, Documents: docs}
}

// FromTexts builds an undated corpus whose labels are the map keys, sorted.
func FromTexts(name string, texts map[string]string) *Corpus {
	labels := make([]string, 0, len(texts))
	for label := range texts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	c := New(name)
	for _, label := range labels {
		c.Documents = append(c.Documents, NewDocument(label, texts[label], nil, nil))
	}
	return c
}

// Len is the number of documents.
func (c *Corpus) Len() int {
	return len(c.Documents)
}

// Labels returns document labels in corpus order.
func (c *Corpus) Labels() []string {
	out := make([]string, len(c.Documents))
	for i, d := range c.Documents {
		out[i] = d.Label
	}
	return out
}

// HasField reports whether any document carries key.
func (c *Corpus) HasField(key string) bool {
	for _, d := range c.Documents {
		if _, ok := d.Meta(key); ok {
			return true
		}
	}
	return false
}

// Fields lists every metadata key carried by at least one document.
func (c *Corpus) Fields() []string {
	seen := make(map[string]struct{})
	for _, d := range c.Documents {
		for _, f := range d.Fields() {
			seen[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FieldValues returns the distinct values of key in ascending order.
func (c *Corpus) FieldValues(key string) ([]string, error) {
	if !c.HasField(key) {
		return nil, fmt.Errorf("field %q: %w", key, internalerr.ErrUnknownMetadataKey)
	}
	seen := make(map[string]struct{})
	for _, d := range c.Documents {
		if v, ok := d.Meta(key); ok {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func matches(d *Document, key, value string) bool {
	if key == KeyDate {
		want, err := strconv.Atoi(strings.TrimSpace(value))
		return err == nil && d.Date != nil && *d.Date == want
	}
	v, ok := d.Meta(key)
	return ok && strings.EqualFold(v, value)
}

// Subcorpus keeps the documents whose key equals value, ignoring case.
// Dates compare as integers.
func (c *Corpus) Subcorpus(key, value string) (*Corpus, error) {
	if !c.HasField(key) {
		return nil, fmt.Errorf("field %q: %w", key, internalerr.ErrUnknownMetadataKey)
	}
	out := New(c.Name)
	for _, d := range c.Documents {
		if matches(d, key, value) {
			out.Documents = append(out.Documents, d)
		}
	}
	return out, nil
}

// Filter is Subcorpus for callers that already validated key.
func (c *Corpus) Filter(key, value string) *Corpus {
	out := New(c.Name)
	for _, d := range c.Documents {
		if matches(d, key, value) {
			out.Documents = append(out.Documents, d)
		}
	}
	return out
}

// MultiFilter keeps documents matching every key/value pair.
func (c *Corpus) MultiFilter(filters map[string]string) (*Corpus, error) {
	for key := range filters {
		if !c.HasField(key) {
			return nil, fmt.Errorf("field %q: %w", key, internalerr.ErrUnknownMetadataKey)
		}
	}
	out := New(c.Name)
	for _, d := range c.Documents {
		keep := true
		for key, value := range filters {
			if !matches(d, key, value) {
				keep = false
				break
			}
		}
		if keep {
			out.Documents = append(out.Documents, d)
		}
	}
	return out, nil
}

// Document returns the first document whose key equals value.
func (c *Corpus) Document(key, value string) (*Document, error) {
	if !c.HasField(key) {
		return nil, fmt.Errorf("field %q: %w", key, internalerr.ErrUnknownMetadataKey)
	}
	for _, d := range c.Documents {
		if matches(d, key, value) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("document %s=%q: %w", key, value, internalerr.ErrNotFound)
}

// WordCounts merges the word counts of every document.
func (c *Corpus) WordCounts() counter.Counter {
	counts := make([]counter.Counter, 0, len(c.Documents))
	for _, d := range c.Documents {
		counts = append(counts, d.WordCounts())
	}
	return counter.Merge(counts...)
}

// Union returns a corpus with the documents of both, skipping labels
// already present.
func (c *Corpus) Union(other *Corpus) *Corpus {
	out := New(c.Name)
	seen := make(map[string]struct{}, len(c.Documents))
	for _, d := range c.Documents {
		seen[d.Label] = struct{}{}
		out.Documents = append(out.Documents, d)
	}
	for _, d := range other.Documents {
		if _, dup := seen[d.Label]; dup {
			continue
		}
		seen[d.Label] = struct{}{}
		out.Documents = append(out.Documents, d)
	}
	return out
}

// Package frequency counts how often each group's identifiers appear and
// reports the counts by document, group, date and metadata.
package frequency

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// Format selects how identifier counts are expressed.
type Format string

const (
	// Count reports raw occurrences.
	Count Format = "count"
	// Frequency divides by the number of words in the reported scope.
	Frequency Format = "frequency"
	// Relative divides by the identifier total across all groups.
	Relative Format = "relative"
)

// Grouping selects the keys of each group's row.
type Grouping string

const (
	Identifier Grouping = "identifier"
	Label      Grouping = "label"
	Aggregate  Grouping = "aggregate"
)

// Row keys produced by the label and aggregate groupings.
const (
	KeySubject = "subject"
	KeyObject  = "object"
	KeyOther   = "other"
	KeyTotal   = "total"
)

// Display pairs a format with a grouping. The zero value is count by
// identifier.
type Display struct {
	Format   Format
	Grouping Grouping
}

func (d Display) normalize() (Display, error) {
	switch d.Format {
	case "":
		d.Format = Count
	case Count, Frequency, Relative:
	default:
		return d, fmt.Errorf("format %q: %w", d.Format, internalerr.ErrInvalidInput)
	}
	switch d.Grouping {
	case "":
		d.Grouping = Identifier
	case Identifier, Label, Aggregate:
	default:
		return d, fmt.Errorf("grouping %q: %w", d.Grouping, internalerr.ErrInvalidInput)
	}
	return d, nil
}

// Table maps a group name to its row.
type Table map[string]map[string]float64

func (t Table) clone() Table {
	out := make(Table, len(t))
	for g, row := range t {
		cp := make(map[string]float64, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[g] = cp
	}
	return out
}

// counts maps a group name to identifier to occurrences.
type counts map[string]map[string]int64

// Options configures an Analyzer.
type Options struct {
	// Groups defaults to group.Binary().
	Groups []group.Group
	// Workers bounds concurrent document counts; zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Analyzer holds identifier counts for every document. It is safe for
// concurrent queries.
type Analyzer struct {
	groups []group.Group
	docs   []*corpus.Document
	byDoc  map[string]counts
	logger *slog.Logger

	cache *memo
}

// New counts every group's identifiers in every document.
func New(ctx context.Context, docs []*corpus.Document, opts Options) (*Analyzer, error) {
	if opts.Groups == nil {
		opts.Groups = group.Binary()
	}
	if err := group.ValidateAll(opts.Groups); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d == nil {
			return nil, fmt.Errorf("nil document: %w", internalerr.ErrInvalidInput)
		}
		if _, dup := seen[d.Label]; dup {
			return nil, fmt.Errorf("duplicate document label %q: %w", d.Label, internalerr.ErrInvalidInput)
		}
		seen[d.Label] = struct{}{}
	}

	out := make([]counts, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = countDocument(doc, opts.Groups)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		groups: append([]group.Group(nil), opts.Groups...),
		docs:   append([]*corpus.Document(nil), docs...),
		byDoc:  make(map[string]counts, len(docs)),
		logger: opts.Logger,
		cache:  newMemo(),
	}
	for i, d := range docs {
		a.byDoc[d.Label] = out[i]
	}
	a.logger.Debug("frequency count complete", "documents", len(docs), "groups", len(a.groups))
	return a, nil
}

func countDocument(doc *corpus.Document, groups []group.Group) counts {
	words := doc.WordCounts()
	c := make(counts, len(groups))
	for _, g := range groups {
		row := make(map[string]int64, len(g.Members))
		for _, id := range g.Identifiers() {
			row[id] = words[id]
		}
		c[g.Name] = row
	}
	return c
}

func (a *Analyzer) empty() counts {
	c := make(counts, len(a.groups))
	for _, g := range a.groups {
		row := make(map[string]int64, len(g.Members))
		for id := range g.Members {
			row[id] = 0
		}
		c[g.Name] = row
	}
	return c
}

func addInto(dst, src counts) {
	for g, row := range src {
		for id, n := range row {
			dst[g][id] += n
		}
	}
}

// display applies d to c. words is the number of words in the scope c was
// counted over.
func (a *Analyzer) display(c counts, d Display, words int) Table {
	var total int64
	if d.Format == Relative {
		for _, row := range c {
			for _, n := range row {
				total += n
			}
		}
	}

	out := make(Table, len(a.groups))
	for _, g := range a.groups {
		formatted := make(map[string]float64, len(c[g.Name]))
		for id, n := range c[g.Name] {
			v := float64(n)
			switch d.Format {
			case Frequency:
				v = ratio(n, int64(words))
			case Relative:
				v = ratio(n, total)
			}
			formatted[id] = v
		}

		switch d.Grouping {
		case Label:
			row := map[string]float64{KeySubject: 0, KeyObject: 0, KeyOther: 0}
			for id, v := range formatted {
				switch {
				case g.IsSubject(id):
					row[KeySubject] += v
				case g.IsObject(id):
					row[KeyObject] += v
				default:
					row[KeyOther] += v
				}
			}
			out[g.Name] = row
		case Aggregate:
			var sum float64
			for _, v := range formatted {
				sum += v
			}
			out[g.Name] = map[string]float64{KeyTotal: sum}
		default:
			out[g.Name] = formatted
		}
	}
	return out
}

func ratio(n, d int64) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Groups returns the counted groups.
func (a *Analyzer) Groups() []group.Group {
	return append([]group.Group(nil), a.groups...)
}

// ByDocument reports each document under its label. Frequencies are relative
// to the document's own word count.
func (a *Analyzer) ByDocument(d Display) (map[string]Table, error) {
	d, err := d.normalize()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Table, len(a.docs))
	for _, doc := range a.docs {
		out[doc.Label] = a.display(a.byDoc[doc.Label], d, doc.WordCount())
	}
	return out, nil
}

// ByGender sums every document per group.
func (a *Analyzer) ByGender(d Display) (Table, error) {
	d, err := d.normalize()
	if err != nil {
		return nil, err
	}
	if t, ok := a.cache.get(d); ok {
		return t, nil
	}
	sum := a.empty()
	words := 0
	for _, doc := range a.docs {
		addInto(sum, a.byDoc[doc.Label])
		words += doc.WordCount()
	}
	t := a.display(sum, d, words)
	a.cache.put(d, t)
	return t.clone(), nil
}

// ByIdentifier sums ByGender across groups. With the aggregate grouping the
// result has the single key "total".
func (a *Analyzer) ByIdentifier(d Display) (map[string]float64, error) {
	t, err := a.ByGender(d)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, row := range t {
		for k, v := range row {
			out[k] += v
		}
	}
	return out, nil
}

// ByDate bins dated documents in [start, end) into bins of binSize years.
// Every bin is present; an empty bin reports zeros.
func (a *Analyzer) ByDate(start, end, binSize int, d Display) (map[int]Table, error) {
	if binSize <= 0 {
		return nil, fmt.Errorf("bin size %d: %w", binSize, internalerr.ErrInvalidInput)
	}
	if start >= end {
		return nil, fmt.Errorf("time frame [%d, %d): %w", start, end, internalerr.ErrInvalidInput)
	}
	d, err := d.normalize()
	if err != nil {
		return nil, err
	}

	bins := make(map[int]counts)
	words := make(map[int]int)
	for y := start; y < end; y += binSize {
		bins[y] = a.empty()
	}
	for _, doc := range a.docs {
		if doc.Date == nil || *doc.Date < start || *doc.Date >= end {
			continue
		}
		bin := ((*doc.Date-start)/binSize)*binSize + start
		addInto(bins[bin], a.byDoc[doc.Label])
		words[bin] += doc.WordCount()
	}

	out := make(map[int]Table, len(bins))
	for y, c := range bins {
		out[y] = a.display(c, d, words[y])
	}
	return out, nil
}

// ByMetadata groups documents by their value for key. Documents without the
// key are skipped; a key no document carries is an error.
func (a *Analyzer) ByMetadata(key string, d Display) (map[string]Table, error) {
	d, err := d.normalize()
	if err != nil {
		return nil, err
	}
	byValue := make(map[string]counts)
	words := make(map[string]int)
	for _, doc := range a.docs {
		val, ok := doc.Meta(key)
		if !ok {
			continue
		}
		if byValue[val] == nil {
			byValue[val] = a.empty()
		}
		addInto(byValue[val], a.byDoc[doc.Label])
		words[val] += doc.WordCount()
	}
	if len(byValue) == 0 {
		return nil, fmt.Errorf("metadata key %q: %w", key, internalerr.ErrUnknownMetadataKey)
	}
	out := make(map[string]Table, len(byValue))
	for val, c := range byValue {
		out[val] = a.display(c, d, words[val])
	}
	return out, nil
}

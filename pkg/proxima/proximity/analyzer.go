// Package proximity scans a corpus once for the words found near each
// group's members and answers aggregate queries over the stored counts.
package proximity

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/dunning"
	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/pos"
	"github.com/cognicore/proxima/pkg/proxima/stoplist"
	"github.com/cognicore/proxima/pkg/proxima/window"
)

// State is the lifecycle stage of an Analyzer.
type State int

const (
	Uninitialized State = iota
	Scanning
	Ready
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Ready:
		return "ready"
	}
	return "uninitialized"
}

// Options configures an Analyzer. Zero values select the defaults.
type Options struct {
	Name string
	// Groups defaults to group.Binary().
	Groups []group.Group
	// Tags defaults to adjectives.
	Tags pos.TagSet
	// Window is the half-width; nil means window.DefaultWindow. Zero scans
	// only the identifier itself.
	Window    *int
	Exclusion group.ExclusionMode
	// Tagger defaults to a prose tagger.
	Tagger pos.Tagger
	// Stoplist defaults to the English list.
	Stoplist counter.Stoplist
	// Workers bounds concurrent document scans; zero means GOMAXPROCS.
	Workers int
	// SkipFailedDocuments logs and drops documents whose scan fails instead
	// of aborting construction.
	SkipFailedDocuments bool
	// LowerBound enables the minimum-spacing heuristic; documents that trip
	// it are recorded in Insufficient and contribute no counts.
	LowerBound bool
	Logger     *slog.Logger
}

// WindowSize returns a pointer for Options.Window.
func WindowSize(n int) *int {
	return &n
}

func (o Options) withDefaults() (Options, error) {
	if o.Groups == nil {
		o.Groups = group.Binary()
	}
	if o.Tags.Empty() {
		o.Tags = pos.Adjectives()
	}
	if o.Window == nil {
		o.Window = WindowSize(window.DefaultWindow)
	} else {
		o.Window = WindowSize(*o.Window)
	}
	if *o.Window < 0 {
		return o, fmt.Errorf("window %d: %w", *o.Window, internalerr.ErrInvalidConfig)
	}
	mode, err := group.ParseExclusionMode(string(o.Exclusion))
	if err != nil {
		return o, err
	}
	o.Exclusion = mode
	if o.Tagger == nil {
		o.Tagger = pos.NewProseTagger()
	}
	if o.Stoplist == nil {
		o.Stoplist = stoplist.English()
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if err := group.ValidateAll(o.Groups); err != nil {
		return o, err
	}
	return o, nil
}

// Analyzer holds the counts of every document and group. After New returns
// it is read-only and safe for concurrent queries.
type Analyzer struct {
	opts       Options
	scanner    *window.Scanner
	exclusions map[string][]group.Group

	state        State
	docs         []*corpus.Document
	results      aggregate.Results
	insufficient map[string][]string
	skipped      []string
	agg          *aggregate.Aggregator
}

func newAnalyzer(opts Options) (*Analyzer, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	scanner, err := window.NewScanner(opts.Tagger, opts.Tags)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		opts:       opts,
		scanner:    scanner,
		exclusions: group.Exclusions(opts.Groups, opts.Exclusion),
		state:      Uninitialized,
	}, nil
}

// New scans every document for every group. The scan runs on opts.Workers
// goroutines and stops at the next document boundary when ctx is done.
func New(ctx context.Context, docs []*corpus.Document, opts Options) (*Analyzer, error) {
	a, err := newAnalyzer(opts)
	if err != nil {
		return nil, err
	}
	if err := checkLabels(docs); err != nil {
		return nil, err
	}
	a.state = Scanning

	type docResult struct {
		counts       map[string]counter.Counter
		insufficient []string
		err          error
	}
	out := make([]docResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			counts, insufficient, err := a.scanAll(doc)
			if err != nil {
				if a.opts.SkipFailedDocuments {
					out[i] = docResult{err: err}
					return nil
				}
				return fmt.Errorf("scan %q: %w", doc.Label, err)
			}
			out[i] = docResult{counts: counts, insufficient: insufficient}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.results = make(aggregate.Results, len(docs))
	a.insufficient = make(map[string][]string)
	for i, doc := range docs {
		r := out[i]
		if r.err != nil {
			a.opts.Logger.Warn("skip document", "doc", doc.Label, "error", r.err)
			a.skipped = append(a.skipped, doc.Label)
			continue
		}
		a.docs = append(a.docs, doc)
		a.results[doc.Label] = r.counts
		for _, name := range r.insufficient {
			a.insufficient[name] = append(a.insufficient[name], doc.Label)
		}
	}
	for _, labels := range a.insufficient {
		sort.Strings(labels)
	}

	a.ready()
	a.opts.Logger.Debug("scan complete",
		"documents", len(a.docs), "skipped", len(a.skipped), "groups", len(a.opts.Groups))
	return a, nil
}

func checkLabels(docs []*corpus.Document) error {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d == nil {
			return fmt.Errorf("nil document: %w", internalerr.ErrInvalidInput)
		}
		if _, dup := seen[d.Label]; dup {
			return fmt.Errorf("duplicate document label %q: %w", d.Label, internalerr.ErrInvalidInput)
		}
		seen[d.Label] = struct{}{}
	}
	return nil
}

func (a *Analyzer) scanAll(doc *corpus.Document) (map[string]counter.Counter, []string, error) {
	tokens := doc.Tokens()
	counts := make(map[string]counter.Counter, len(a.opts.Groups))
	var insufficient []string
	for _, g := range a.opts.Groups {
		exclude := a.exclusions[g.Name]
		if a.opts.LowerBound {
			outcome, err := a.scanner.ScanWithBound(tokens, g, *a.opts.Window, exclude)
			if err != nil {
				return nil, nil, err
			}
			if outcome.Insufficient {
				insufficient = append(insufficient, g.Name)
				counts[g.Name] = counter.New()
				continue
			}
			counts[g.Name] = outcome.Counts
			continue
		}
		c, err := a.scanner.Scan(tokens, g, *a.opts.Window, exclude)
		if err != nil {
			return nil, nil, err
		}
		counts[g.Name] = c
	}
	return counts, insufficient, nil
}

func (a *Analyzer) ready() {
	a.agg = aggregate.New(a.results, group.Names(a.opts.Groups), a.docs, a.opts.Stoplist)
	a.state = Ready
}

// State reports the lifecycle stage.
func (a *Analyzer) State() State { return a.state }

// Name is the analysis name from Options.
func (a *Analyzer) Name() string { return a.opts.Name }

// Window is the half-width used for scanning.
func (a *Analyzer) Window() int { return *a.opts.Window }

// Tags is the accepted tag set.
func (a *Analyzer) Tags() pos.TagSet { return a.opts.Tags }

// Groups returns the analysed groups.
func (a *Analyzer) Groups() []group.Group {
	return append([]group.Group(nil), a.opts.Groups...)
}

// Documents returns the scanned documents, excluding skipped ones.
func (a *Analyzer) Documents() []*corpus.Document {
	return append([]*corpus.Document(nil), a.docs...)
}

// Results returns a copy of the per-document counts.
func (a *Analyzer) Results() aggregate.Results {
	return a.results.Clone()
}

// Skipped lists documents dropped because their scan failed.
func (a *Analyzer) Skipped() []string {
	return append([]string(nil), a.skipped...)
}

// Insufficient maps a group name to the documents the lower-bound heuristic
// excluded for it.
func (a *Analyzer) Insufficient() map[string][]string {
	out := make(map[string][]string, len(a.insufficient))
	for g, labels := range a.insufficient {
		out[g] = append([]string(nil), labels...)
	}
	return out
}

// ScanDocument scans one document for g with the analyzer's tagger, tags and
// window.
func (a *Analyzer) ScanDocument(doc *corpus.Document, g group.Group, exclude []group.Group) (counter.Counter, error) {
	return a.scanner.Scan(doc.Tokens(), g, *a.opts.Window, exclude)
}

// ScanDocument scans one document without building an Analyzer.
func ScanDocument(doc *corpus.Document, g group.Group, size int, tagger pos.Tagger, tags pos.TagSet, exclude []group.Group) (counter.Counter, error) {
	s, err := window.NewScanner(tagger, tags)
	if err != nil {
		return nil, err
	}
	return s.Scan(doc.Tokens(), g, size, exclude)
}

// ByGender merges all documents per group.
func (a *Analyzer) ByGender(opts aggregate.Options) aggregate.Report {
	return a.agg.ByGender(opts)
}

// ByDocument reports counts per document label.
func (a *Analyzer) ByDocument(opts aggregate.Options) aggregate.Table {
	return a.agg.ByDocument(opts)
}

// ByDate bins documents by year.
func (a *Analyzer) ByDate(start, end, binSize int, opts aggregate.Options) (aggregate.DateTable, error) {
	return a.agg.ByDate(start, end, binSize, opts)
}

// ByMetadata groups documents by a metadata value.
func (a *Analyzer) ByMetadata(key string, opts aggregate.Options) (aggregate.Table, error) {
	return a.agg.ByMetadata(key, opts)
}

// ByOverlap lists the words every group shares.
func (a *Analyzer) ByOverlap() aggregate.Overlap {
	return a.agg.ByOverlap()
}

// Dunning compares the merged counts of two groups.
func (a *Analyzer) Dunning(g1, g2 string) (dunning.Result, error) {
	return dunning.CompareGroups(a.agg.ByGender(aggregate.Options{}).Counts, g1, g2)
}

// DunningByMetadata compares the merged counts of group g for documents
// whose key is v1 against those whose key is v2.
func (a *Analyzer) DunningByMetadata(key, v1, v2, g string) (dunning.Result, error) {
	t, err := a.agg.ByMetadata(key, aggregate.Options{})
	if err != nil {
		return nil, err
	}
	r1, ok := t[v1]
	if !ok {
		return nil, fmt.Errorf("%s=%q: %w", key, v1, internalerr.ErrNotFound)
	}
	r2, ok := t[v2]
	if !ok {
		return nil, fmt.Errorf("%s=%q: %w", key, v2, internalerr.ErrNotFound)
	}
	if g == "" {
		return dunning.Total(mergeGroups(r1.Counts), mergeGroups(r2.Counts)), nil
	}
	if !a.hasGroup(g) {
		return nil, fmt.Errorf("group %q: %w", g, internalerr.ErrNotFound)
	}
	return dunning.Total(r1.Counts[g], r2.Counts[g]), nil
}

func (a *Analyzer) hasGroup(name string) bool {
	for _, g := range a.opts.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

func mergeGroups(v aggregate.View) counter.Counter {
	parts := make([]counter.Counter, 0, len(v))
	for _, c := range v {
		parts = append(parts, c)
	}
	return counter.Merge(parts...)
}

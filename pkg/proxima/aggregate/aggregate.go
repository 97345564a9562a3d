// Package aggregate reshapes per-document window counts along document,
// group, date and metadata axes.
package aggregate

import (
	"fmt"
	"sync"

	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// Results maps a document label to group name to the counts found in that
// document.
type Results map[string]map[string]counter.Counter

// Clone deep-copies r.
func (r Results) Clone() Results {
	out := make(Results, len(r))
	for label, byGroup := range r {
		cp := make(map[string]counter.Counter, len(byGroup))
		for g, c := range byGroup {
			cp[g] = c.Clone()
		}
		out[label] = cp
	}
	return out
}

// View maps a group name to its counts.
type View map[string]counter.Counter

func (v View) clone() View {
	out := make(View, len(v))
	for g, c := range v {
		out[g] = c.Clone()
	}
	return out
}

// Report is a post-processed View. Ranked is only set when sorting was
// requested.
type Report struct {
	Counts View                       `json:"counts"`
	Ranked map[string][]counter.Entry `json:"ranked,omitempty"`
}

func (r Report) clone() Report {
	out := Report{Counts: r.Counts.clone()}
	if r.Ranked != nil {
		out.Ranked = make(map[string][]counter.Entry, len(r.Ranked))
		for g, entries := range r.Ranked {
			out.Ranked[g] = append([]counter.Entry(nil), entries...)
		}
	}
	return out
}

// Table maps a document label or metadata value to a report.
type Table map[string]Report

// DateTable maps the first year of a bin to a report.
type DateTable map[int]Report

// Overlap maps a word to each group's count of it.
type Overlap map[string]map[string]int64

// Options is the post-processing applied to every View, in the order
// RemoveStopwords, Diff, Sort. Limit only applies when Sort is set.
type Options struct {
	Sort            bool
	Diff            bool
	Limit           int
	RemoveStopwords bool
}

type axis int

const (
	axisGender axis = iota
	axisDocument
	axisDate
	axisMetadata
)

type cacheKey struct {
	axis  axis
	key   string
	start int
	end   int
	bin   int
	opts  Options
}

type cached struct {
	gender  Report
	table   Table
	dates   DateTable
	overlap Overlap
}

// Aggregator answers queries over a fixed set of results. It is safe for
// concurrent use.
type Aggregator struct {
	results Results
	groups  []string
	docs    []*corpus.Document
	stops   counter.Stoplist

	mu      sync.RWMutex
	cache   map[cacheKey]cached
	overlap Overlap
}

// New creates an aggregator. groups fixes the set and order of group names;
// docs supply dates and metadata and may carry no text.
func New(results Results, groups []string, docs []*corpus.Document, stops counter.Stoplist) *Aggregator {
	return &Aggregator{
		results: results,
		groups:  append([]string(nil), groups...),
		docs:    docs,
		stops:   stops,
		cache:   make(map[cacheKey]cached),
	}
}

// Groups returns the group names in order.
func (a *Aggregator) Groups() []string {
	return append([]string(nil), a.groups...)
}

func (a *Aggregator) lookup(k cacheKey) (cached, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.cache[k]
	return v, ok
}

func (a *Aggregator) store(k cacheKey, v cached) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache[k] = v
}

func (a *Aggregator) docView(label string) View {
	byGroup := a.results[label]
	v := make(View, len(a.groups))
	for _, g := range a.groups {
		v[g] = byGroup[g]
	}
	return v
}

func (a *Aggregator) emptyView() View {
	v := make(View, len(a.groups))
	for _, g := range a.groups {
		v[g] = counter.New()
	}
	return v
}

func mergeInto(dst, src View) {
	for g, c := range src {
		dst[g] = counter.Merge(dst[g], c)
	}
}

func (a *Aggregator) process(v View, opts Options) Report {
	out := make(View, len(v))
	for g, c := range v {
		if c == nil {
			c = counter.New()
		}
		if opts.RemoveStopwords {
			c = counter.RemoveStopwords(c, a.stops)
		} else {
			c = c.Clone()
		}
		out[g] = c
	}
	if opts.Diff {
		out = View(counter.Diff(out))
	}
	r := Report{Counts: out}
	if opts.Sort {
		r.Ranked = make(map[string][]counter.Entry, len(out))
		for g, c := range out {
			r.Ranked[g] = counter.Sort(c, opts.Limit)
		}
	}
	return r
}

// ByGender merges every document's counts per group.
func (a *Aggregator) ByGender(opts Options) Report {
	k := cacheKey{axis: axisGender, opts: opts}
	if v, ok := a.lookup(k); ok {
		return v.gender.clone()
	}
	merged := a.emptyView()
	for _, d := range a.docs {
		mergeInto(merged, a.docView(d.Label))
	}
	r := a.process(merged, opts)
	a.store(k, cached{gender: r})
	return r.clone()
}

// ByDocument reports each document's counts under its label.
func (a *Aggregator) ByDocument(opts Options) Table {
	k := cacheKey{axis: axisDocument, opts: opts}
	if v, ok := a.lookup(k); ok {
		return cloneTable(v.table)
	}
	t := make(Table, len(a.docs))
	for _, d := range a.docs {
		t[d.Label] = a.process(a.docView(d.Label), opts)
	}
	a.store(k, cached{table: t})
	return cloneTable(t)
}

// ByDate bins dated documents in [start, end) into bins of binSize years.
// Every bin is present even when empty; undated documents and documents
// outside the range are skipped.
func (a *Aggregator) ByDate(start, end, binSize int, opts Options) (DateTable, error) {
	if binSize <= 0 {
		return nil, fmt.Errorf("bin size %d: %w", binSize, internalerr.ErrInvalidInput)
	}
	if start >= end {
		return nil, fmt.Errorf("time frame [%d, %d): %w", start, end, internalerr.ErrInvalidInput)
	}
	k := cacheKey{axis: axisDate, start: start, end: end, bin: binSize, opts: opts}
	if v, ok := a.lookup(k); ok {
		return cloneDates(v.dates), nil
	}

	bins := make(map[int]View)
	for y := start; y < end; y += binSize {
		bins[y] = a.emptyView()
	}
	for _, d := range a.docs {
		if d.Date == nil || *d.Date < start || *d.Date >= end {
			continue
		}
		bin := ((*d.Date-start)/binSize)*binSize + start
		mergeInto(bins[bin], a.docView(d.Label))
	}

	dt := make(DateTable, len(bins))
	for y, v := range bins {
		dt[y] = a.process(v, opts)
	}
	a.store(k, cached{dates: dt})
	return cloneDates(dt), nil
}

// ByMetadata groups documents by their value for key. Documents without the
// key are skipped; a key no document carries is an error.
func (a *Aggregator) ByMetadata(key string, opts Options) (Table, error) {
	k := cacheKey{axis: axisMetadata, key: key, opts: opts}
	if v, ok := a.lookup(k); ok {
		return cloneTable(v.table), nil
	}

	byValue := make(map[string]View)
	for _, d := range a.docs {
		val, ok := d.Meta(key)
		if !ok {
			continue
		}
		if byValue[val] == nil {
			byValue[val] = a.emptyView()
		}
		mergeInto(byValue[val], a.docView(d.Label))
	}
	if len(byValue) == 0 {
		return nil, fmt.Errorf("metadata key %q: %w", key, internalerr.ErrUnknownMetadataKey)
	}

	t := make(Table, len(byValue))
	for val, v := range byValue {
		t[val] = a.process(v, opts)
	}
	a.store(k, cached{table: t})
	return cloneTable(t), nil
}

// ByOverlap returns the words every group used, with each group's count.
func (a *Aggregator) ByOverlap() Overlap {
	a.mu.RLock()
	if a.overlap != nil {
		out := cloneOverlap(a.overlap)
		a.mu.RUnlock()
		return out
	}
	a.mu.RUnlock()

	gender := a.ByGender(Options{}).Counts
	out := make(Overlap)
	if len(a.groups) > 0 {
		for word := range gender[a.groups[0]] {
			row := make(map[string]int64, len(a.groups))
			shared := true
			for _, g := range a.groups {
				n := gender[g][word]
				if n == 0 {
					shared = false
					break
				}
				row[g] = n
			}
			if shared {
				out[word] = row
			}
		}
	}

	a.mu.Lock()
	a.overlap = out
	a.mu.Unlock()
	return cloneOverlap(out)
}

func cloneTable(t Table) Table {
	out := make(Table, len(t))
	for k, r := range t {
		out[k] = r.clone()
	}
	return out
}

func cloneDates(t DateTable) DateTable {
	out := make(DateTable, len(t))
	for k, r := range t {
		out[k] = r.clone()
	}
	return out
}

func cloneOverlap(o Overlap) Overlap {
	out := make(Overlap, len(o))
	for w, row := range o {
		cp := make(map[string]int64, len(row))
		for g, n := range row {
			cp[g] = n
		}
		out[w] = cp
	}
	return out
}

// Package distance measures how far apart a group's members occur in each
// document.
package distance

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/stats"
	"github.com/cognicore/proxima/pkg/proxima/window"
)

// Metric names one field of a Summary.
type Metric string

const (
	Median Metric = "median"
	Mean   Metric = "mean"
	Min    Metric = "min"
	Max    Metric = "max"
)

// ParseMetric validates s. Empty selects Median.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case "":
		return Median, nil
	case Median, Mean, Min, Max:
		return m, nil
	}
	return "", fmt.Errorf("metric %q: %w", s, internalerr.ErrInvalidInput)
}

// Summary describes the gaps between a group's occurrences in one document.
// All fields are zero when the group occurs fewer than twice.
type Summary struct {
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Value returns the field named by m.
func (s Summary) Value(m Metric) float64 {
	switch m {
	case Mean:
		return s.Mean
	case Min:
		return s.Min
	case Max:
		return s.Max
	}
	return s.Median
}

// Summarize computes a Summary of distances.
func Summarize(distances []int) Summary {
	if len(distances) == 0 {
		return Summary{}
	}
	xs := make([]float64, len(distances))
	for i, d := range distances {
		xs[i] = float64(d)
	}
	return Summary{
		Median: stats.Median(xs),
		Mean:   stats.Mean(xs),
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
	}
}

// Between returns the number of tokens between consecutive occurrences of
// any of words, ignoring case.
func Between(tokens []string, words []string) []int {
	return window.Distances(tokens, group.NewFromSets("", words, nil, nil))
}

// Metrics maps a document label to group name to one metric.
type Metrics map[string]map[string]float64

// Report holds a Summary per document and group.
type Report struct {
	// Results maps a document label to group name to its summary.
	Results map[string]map[string]Summary
	docs    []*corpus.Document
	groups  []string
}

// Analyze summarizes every group in every document of c. Nil groups selects
// the binary pair.
func Analyze(c *corpus.Corpus, groups []group.Group) (*Report, error) {
	if groups == nil {
		groups = group.Binary()
	}
	if err := group.ValidateAll(groups); err != nil {
		return nil, err
	}
	r := &Report{
		Results: make(map[string]map[string]Summary, c.Len()),
		docs:    c.Documents,
		groups:  group.Names(groups),
	}
	for _, d := range c.Documents {
		tokens := d.Tokens()
		row := make(map[string]Summary, len(groups))
		for _, g := range groups {
			row[g.Name] = Summarize(window.Distances(tokens, g))
		}
		r.Results[d.Label] = row
	}
	return r, nil
}

func (r *Report) metrics(label string, m Metric) map[string]float64 {
	row := make(map[string]float64, len(r.groups))
	for g, s := range r.Results[label] {
		row[g] = s.Value(m)
	}
	return row
}

// ByMetadata groups documents by their value for key. Documents without the
// key are skipped.
func (r *Report) ByMetadata(key string, metric Metric) (map[string]Metrics, error) {
	metric, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	out := make(map[string]Metrics)
	for _, d := range r.docs {
		val, ok := d.Meta(key)
		if !ok {
			continue
		}
		if out[val] == nil {
			out[val] = make(Metrics)
		}
		out[val][d.Label] = r.metrics(d.Label, metric)
	}
	return out, nil
}

// ByDate bins dated documents in [start, end) into bins of binSize years.
// Every bin is present even when empty.
func (r *Report) ByDate(start, end, binSize int, metric Metric) (map[int]Metrics, error) {
	metric, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	if binSize <= 0 {
		return nil, fmt.Errorf("bin size %d: %w", binSize, internalerr.ErrInvalidInput)
	}
	if start >= end {
		return nil, fmt.Errorf("time frame [%d, %d): %w", start, end, internalerr.ErrInvalidInput)
	}
	out := make(map[int]Metrics)
	for y := start; y < end; y += binSize {
		out[y] = make(Metrics)
	}
	for _, d := range r.docs {
		if d.Date == nil || *d.Date < start || *d.Date >= end {
			continue
		}
		bin := ((*d.Date-start)/binSize)*binSize + start
		out[bin][d.Label] = r.metrics(d.Label, metric)
	}
	return out, nil
}

// Ranked is a document and its median distance.
type Ranked struct {
	Label  string  `json:"label"`
	Median float64 `json:"median"`
}

// Highest returns, per group, the n documents with the largest median
// distance. Ties are broken by label. n <= 0 returns every document.
func (r *Report) Highest(n int) map[string][]Ranked {
	out := make(map[string][]Ranked, len(r.groups))
	for _, g := range r.groups {
		list := make([]Ranked, 0, len(r.docs))
		for _, d := range r.docs {
			list = append(list, Ranked{Label: d.Label, Median: r.Results[d.Label][g].Median})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Median != list[j].Median {
				return list[i].Median > list[j].Median
			}
			return list[i].Label < list[j].Label
		})
		if n > 0 && len(list) > n {
			list = list[:n]
		}
		out[g] = list
	}
	return out
}

package frequency

import (
	"fmt"

	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/stats"
)

// Comparison is a Welch's t-test over per-document values of one group.
type Comparison struct {
	Group       string  `json:"group"`
	A           string  `json:"a"`
	B           string  `json:"b"`
	CountA      int     `json:"count_a"`
	CountB      int     `json:"count_b"`
	MeanA       float64 `json:"mean_a"`
	MeanB       float64 `json:"mean_b"`
	T           float64 `json:"t"`
	P           float64 `json:"p"`
	Significant bool    `json:"significant"`
}

// Trend is a regression of a group's per-document value on publication year.
type Trend struct {
	Group     string `json:"group"`
	Documents int    `json:"documents"`
	stats.Regression
}

// docValue is the sum of g's row for one document under d.
func (a *Analyzer) docValue(doc *corpus.Document, g string, d Display) float64 {
	var v float64
	for _, x := range a.display(a.byDoc[doc.Label], d, doc.WordCount())[g] {
		v += x
	}
	return v
}

func (a *Analyzer) hasGroup(name string) bool {
	for _, g := range a.groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Compare tests whether documents whose key is v1 use group g differently
// from those whose key is v2. Each document contributes one value: the sum
// of its row under d, with frequencies relative to the document itself.
func (a *Analyzer) Compare(key, v1, v2, g string, d Display) (Comparison, error) {
	d, err := d.normalize()
	if err != nil {
		return Comparison{}, err
	}
	if !a.hasGroup(g) {
		return Comparison{}, fmt.Errorf("group %q: %w", g, internalerr.ErrNotFound)
	}

	var xs, ys []float64
	seen := false
	for _, doc := range a.docs {
		val, ok := doc.Meta(key)
		if !ok {
			continue
		}
		seen = true
		switch val {
		case v1:
			xs = append(xs, a.docValue(doc, g, d))
		case v2:
			ys = append(ys, a.docValue(doc, g, d))
		}
	}
	if !seen {
		return Comparison{}, fmt.Errorf("metadata key %q: %w", key, internalerr.ErrUnknownMetadataKey)
	}

	t, p, err := stats.WelchTTest(xs, ys)
	if err != nil {
		return Comparison{}, fmt.Errorf("compare %s=%s with %s=%s: %w", key, v1, key, v2, err)
	}
	sig, err := stats.Significant(xs, ys, stats.DefaultAlpha)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Group:       g,
		A:           v1,
		B:           v2,
		CountA:      len(xs),
		CountB:      len(ys),
		MeanA:       stats.Mean(xs),
		MeanB:       stats.Mean(ys),
		T:           t,
		P:           p,
		Significant: sig,
	}, nil
}

// Trend fits group g's per-document value against year over the dated
// documents.
func (a *Analyzer) Trend(g string, d Display) (Trend, error) {
	d, err := d.normalize()
	if err != nil {
		return Trend{}, err
	}
	if !a.hasGroup(g) {
		return Trend{}, fmt.Errorf("group %q: %w", g, internalerr.ErrNotFound)
	}

	var years, values []float64
	for _, doc := range a.docs {
		if doc.Date == nil {
			continue
		}
		years = append(years, float64(*doc.Date))
		values = append(values, a.docValue(doc, g, d))
	}
	reg, err := stats.LinearRegression(years, values)
	if err != nil {
		return Trend{}, fmt.Errorf("trend for %s: %w", g, err)
	}
	return Trend{Group: g, Documents: len(years), Regression: reg}, nil
}

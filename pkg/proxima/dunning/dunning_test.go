package dunning

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/pos"
)

const eps = 1e-9

func TestWordKnownValue(t *testing.T) {
	got := Word(100, 200, 20, 10)
	want := 20 * math.Ln2
	if math.Abs(got-want) > eps {
		t.Fatalf("Word = %v, want %v", got, want)
	}
}

func TestWordSymmetry(t *testing.T) {
	cases := [][4]float64{
		{100, 200, 20, 10},
		{1000, 50, 3, 9},
		{37, 37, 5, 5},
		{12345, 678, 90, 12},
	}
	for _, c := range cases {
		a := Word(c[0], c[1], c[2], c[3])
		b := Word(c[1], c[0], c[3], c[2])
		if math.Abs(a+b) > eps {
			t.Errorf("Word%v = %v, swapped = %v", c, a, b)
		}
	}
}

func TestWordSign(t *testing.T) {
	if Word(100, 100, 5, 20) >= 0 {
		t.Error("word under-represented in population 1 should score negative")
	}
	if Word(100, 100, 20, 5) <= 0 {
		t.Error("word over-represented in population 1 should score positive")
	}
}

func TestWordDegenerate(t *testing.T) {
	cases := [][4]float64{
		{100, 100, 0, 5},
		{100, 100, 5, 0},
		{0, 100, 0, 5},
		{100, 100, 0, 0},
	}
	for _, c := range cases {
		got := Word(c[0], c[1], c[2], c[3])
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("Word%v = %v", c, got)
		}
	}
	if Word(100, 100, 5, 0) <= 0 {
		t.Error("word only in population 1 should score positive")
	}
	if Word(100, 100, 0, 20) >= 0 {
		t.Error("word absent from population 1 should score negative")
	}
	if a, b := Word(100, 100, 20, 0), Word(100, 100, 0, 20); math.Abs(a+b) > eps {
		t.Errorf("zero-count scores not symmetric: %v vs %v", a, b)
	}
}

func TestTotalThreshold(t *testing.T) {
	got := Total(counter.Counter{"x": 3}, counter.Counter{"x": 4})
	if _, ok := got["x"]; ok {
		t.Fatalf("x below threshold should be omitted, got %v", got)
	}
}

func TestTotalRecord(t *testing.T) {
	c1 := counter.Counter{"a": 6, "b": 4}
	c2 := counter.Counter{"a": 5, "c": 5}
	got := Total(c1, c2)
	if len(got) != 1 {
		t.Fatalf("only shared words are scored, got %v", got)
	}
	r := got["a"]
	if r.CountTotal != 11 || r.CountCorp1 != 6 || r.CountCorp2 != 5 {
		t.Errorf("counts = %+v", r)
	}
	if math.Abs(r.FreqTotal-0.55) > eps || math.Abs(r.FreqCorp1-0.6) > eps || math.Abs(r.FreqCorp2-0.5) > eps {
		t.Errorf("freqs = %+v", r)
	}
	if r.Dunning != Word(10, 10, 6, 5) || r.Dunning <= 0 {
		t.Errorf("dunning = %v", r.Dunning)
	}

	again := Total(c1, c2)
	if again["a"] != r {
		t.Error("Total is not deterministic")
	}
	if len(TotalWithMin(counter.Counter{"x": 3}, counter.Counter{"x": 4}, 5)) != 1 {
		t.Error("custom threshold not applied")
	}
}

func sampleResult() Result {
	return Result{
		"sad":     {Dunning: 5},
		"happy":   {Dunning: -7},
		"quickly": {Dunning: 9},
		"tall":    {Dunning: 1},
		"walked":  {Dunning: -2},
	}
}

func TestRank(t *testing.T) {
	ranked := Rank(sampleResult())
	words := make([]string, len(ranked))
	for i, e := range ranked {
		words[i] = e.Word
	}
	if strings.Join(words, ",") != "quickly,sad,tall,walked,happy" {
		t.Fatalf("Rank = %v", words)
	}
}

func TestTopByPartOfSpeech(t *testing.T) {
	tagger := pos.NewMapTagger(map[string]string{
		"sad": "JJ", "happy": "JJ", "tall": "JJ", "quickly": "RB", "walked": "VBD",
	})

	all, err := TopByPartOfSpeech(sampleResult(), 2, nil, pos.TagSet{})
	if err != nil {
		t.Fatalf("TopByPartOfSpeech: %v", err)
	}
	if all.Corpus1[0].Word != "quickly" || all.Corpus2[0].Word != "happy" || all.Corpus2[1].Word != "walked" {
		t.Errorf("unfiltered split = %+v", all)
	}

	adj, err := TopByPartOfSpeech(sampleResult(), 2, tagger, pos.Adjectives())
	if err != nil {
		t.Fatalf("TopByPartOfSpeech: %v", err)
	}
	if len(adj.Corpus1) != 2 || adj.Corpus1[0].Word != "sad" || adj.Corpus1[1].Word != "tall" {
		t.Errorf("adjectives favoring corpus 1 = %+v", adj.Corpus1)
	}
	if adj.Corpus2[0].Word != "happy" || adj.Corpus2[1].Word != "tall" {
		t.Errorf("adjectives favoring corpus 2 = %+v", adj.Corpus2)
	}
}

func TestFormat(t *testing.T) {
	split, _ := TopByPartOfSpeech(Total(
		counter.Counter{"sad": 20, "tall": 4},
		counter.Counter{"sad": 10, "tall": 30},
	), 5, nil, pos.TagSet{})

	var buf bytes.Buffer
	if err := Format(&buf, split, "Female", "Male"); err != nil {
		t.Fatalf("Format: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Dunning Log-Likelihood results for Female",
		"Dunning Log-Likelihood results for Male",
		"count Female",
		"|  sad               |",
		"%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompareGroups(t *testing.T) {
	view := aggregate.View{
		"Female": {"sad": 20},
		"Male":   {"sad": 10},
	}
	r, err := CompareGroups(view, "Female", "Male")
	if err != nil {
		t.Fatalf("CompareGroups: %v", err)
	}
	if _, ok := r["sad"]; !ok {
		t.Errorf("expected sad, got %v", r)
	}
	if _, err := CompareGroups(view, "Female", "Other"); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestCompareCorporaAndAssociation(t *testing.T) {
	c1 := corpus.New("one", corpus.NewDocument("a", strings.Repeat("she said ", 6), nil, nil))
	c2 := corpus.New("two", corpus.NewDocument("b", strings.Repeat("he said ", 6), nil, nil))

	r := CompareCorpora(c1, c2)
	if rec, ok := r["said"]; !ok || rec.CountTotal != 12 {
		t.Errorf("CompareCorpora = %v", r)
	}

	both := c1.Union(c2)
	assoc := CompareAssociation(both, "she", "he")
	if rec, ok := assoc["said"]; !ok || rec.CountCorp1 != 6 || rec.CountCorp2 != 6 {
		t.Errorf("CompareAssociation = %v", assoc)
	}

	between := CompareAssociationBetween("said", c1, c2, 1)
	if len(between) != 0 {
		t.Errorf("no shared context words expected, got %v", between)
	}
}

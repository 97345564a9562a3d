package proximity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/pos"
	"github.com/cognicore/proxima/pkg/proxima/store/memstore"
	"github.com/cognicore/proxima/pkg/proxima/window"
)

var (
	male   = group.NewFromSets(group.MaleName, []string{"he"}, []string{"he"}, nil)
	female = group.NewFromSets(group.FemaleName, []string{"she"}, []string{"she"}, nil)
)

func testTagger() *pos.MapTagger {
	t := pos.NewMapTagger(map[string]string{"sad": "JJ", "happy": "JJ", "tall": "JJ", "quiet": "JJ"})
	t.Default = "NN"
	return t
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{
		Groups: []group.Group{female, male},
		Window: WindowSize(1),
		Tagger: testTagger(),
		Logger: quietLogger(),
	}
}

func testDocs() []*corpus.Document {
	return []*corpus.Document{
		corpus.NewDocument("a", "the sad he was quiet she happy x", corpus.Year(2001), map[string]string{"author_gender": "female"}),
		corpus.NewDocument("b", "a tall he and a happy she sad z", corpus.Year(2005), map[string]string{"author_gender": "male"}),
	}
}

func TestEndToEndBoundary(t *testing.T) {
	docs := []*corpus.Document{corpus.NewDocument("one", "he was very sad and she was happy", nil, nil)}
	a, err := New(context.Background(), docs, testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := a.Results()["one"][group.MaleName]
	if len(got) != 0 {
		t.Fatalf("expected empty counter, got %v", got)
	}
	if a.State() != Ready {
		t.Errorf("state = %v", a.State())
	}
}

func TestScanAndQueries(t *testing.T) {
	a, err := New(context.Background(), testDocs(), testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// doc a: "he" at 2 -> [sad he was]; "she" at 5 -> [quiet she happy].
	// doc b: "he" at 2 -> [tall he and]; "she" at 6 -> [happy she sad].
	gender := a.ByGender(aggregate.Options{})
	wantMale := counter.Counter{"sad": 1, "tall": 1}
	wantFemale := counter.Counter{"quiet": 1, "happy": 2, "sad": 1}
	if !gender.Counts[group.MaleName].Equal(wantMale) {
		t.Errorf("Male = %v, want %v", gender.Counts[group.MaleName], wantMale)
	}
	if !gender.Counts[group.FemaleName].Equal(wantFemale) {
		t.Errorf("Female = %v, want %v", gender.Counts[group.FemaleName], wantFemale)
	}

	overlap := a.ByOverlap()
	if len(overlap) != 1 || overlap["sad"][group.MaleName] != 1 || overlap["sad"][group.FemaleName] != 1 {
		t.Errorf("overlap = %v", overlap)
	}

	dates, err := a.ByDate(2000, 2010, 5, aggregate.Options{})
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}
	if len(dates) != 2 || dates[2005].Counts[group.MaleName]["tall"] != 1 {
		t.Errorf("dates = %v", dates)
	}

	meta, err := a.ByMetadata("author_gender", aggregate.Options{Sort: true})
	if err != nil {
		t.Fatalf("ByMetadata: %v", err)
	}
	if meta["female"].Ranked[group.FemaleName][0].Word != "happy" {
		t.Errorf("ranked = %v", meta["female"].Ranked)
	}

	docs := a.ByDocument(aggregate.Options{})
	if docs["b"].Counts[group.MaleName]["tall"] != 1 {
		t.Errorf("by document = %v", docs)
	}
}

func TestExclusionAppliedBetweenBinaryGroups(t *testing.T) {
	docs := []*corpus.Document{corpus.NewDocument("x", "sad he she happy", nil, nil)}
	a, err := New(context.Background(), docs, testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := a.Results()["x"]
	if len(r[group.MaleName]) != 0 || len(r[group.FemaleName]) != 0 {
		t.Errorf("windows holding both pronouns must be vetoed, got %v", r)
	}

	opts := testOptions()
	opts.Exclusion = group.ExcludeNone
	a, err = New(context.Background(), docs, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r = a.Results()["x"]
	if r[group.MaleName]["sad"] != 1 || r[group.FemaleName]["happy"] != 1 {
		t.Errorf("without exclusion = %v", r)
	}
}

func TestConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	opts := testOptions()
	opts.Groups = []group.Group{male, male}
	if _, err := New(ctx, testDocs(), opts); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("duplicate groups: %v", err)
	}

	opts = testOptions()
	opts.Groups = []group.Group{}
	if _, err := New(ctx, testDocs(), opts); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("empty groups: %v", err)
	}

	opts = testOptions()
	opts.Window = WindowSize(-2)
	if _, err := New(ctx, testDocs(), opts); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("negative window: %v", err)
	}

	dup := append(testDocs(), corpus.NewDocument("a", "again", nil, nil))
	if _, err := New(ctx, dup, testOptions()); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("duplicate labels: %v", err)
	}
}

func failingTagger(failOn string) pos.Tagger {
	base := testTagger()
	return pos.TaggerFunc(func(tokens []string) ([]pos.Tagged, error) {
		for _, tok := range tokens {
			if tok == failOn {
				return nil, errors.New("cannot tag " + failOn)
			}
		}
		return base.Tag(tokens)
	})
}

func TestTaggerFailurePolicy(t *testing.T) {
	ctx := context.Background()
	docs := append(testDocs(), corpus.NewDocument("c", "x broken he y", nil, nil))

	opts := testOptions()
	opts.Tagger = failingTagger("broken")
	if _, err := New(ctx, docs, opts); err == nil || !strings.Contains(err.Error(), "cannot tag") {
		t.Fatalf("expected tagger error, got %v", err)
	}

	opts.SkipFailedDocuments = true
	a, err := New(ctx, docs, opts)
	if err != nil {
		t.Fatalf("New with skip: %v", err)
	}
	if skipped := a.Skipped(); len(skipped) != 1 || skipped[0] != "c" {
		t.Errorf("Skipped = %v", skipped)
	}
	if len(a.Documents()) != 2 {
		t.Errorf("Documents = %d", len(a.Documents()))
	}
	if _, ok := a.Results()["c"]; ok {
		t.Error("skipped document should have no results")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(ctx, testDocs(), testOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	var docs []*corpus.Document
	for i := 0; i < 40; i++ {
		label := "d" + strings.Repeat("x", i)
		docs = append(docs, corpus.NewDocument(label, "the sad he was tall and she was happy and quiet she x", nil, nil))
	}
	var calls atomic.Int64
	base := testTagger()
	counting := pos.TaggerFunc(func(tokens []string) ([]pos.Tagged, error) {
		calls.Add(1)
		return base.Tag(tokens)
	})

	opts := testOptions()
	opts.Tagger = counting
	opts.Workers = 1
	seq, err := New(context.Background(), docs, opts)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	opts.Workers = 8
	par, err := New(context.Background(), docs, opts)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for _, g := range []string{group.FemaleName, group.MaleName} {
		s := seq.ByGender(aggregate.Options{}).Counts[g]
		p := par.ByGender(aggregate.Options{}).Counts[g]
		if !s.Equal(p) {
			t.Errorf("%s: sequential %v != parallel %v", g, s, p)
		}
	}
	if calls.Load() == 0 {
		t.Error("tagger never called")
	}
}

func TestLowerBound(t *testing.T) {
	docs := []*corpus.Document{
		corpus.NewDocument("tight", "x he he he he he sad x", nil, nil),
		corpus.NewDocument("loose", "sad he x x x x x happy he x", nil, nil),
	}
	opts := testOptions()
	opts.Groups = []group.Group{male}
	opts.LowerBound = true
	a, err := New(context.Background(), docs, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ins := a.Insufficient()
	if len(ins[group.MaleName]) != 1 || ins[group.MaleName][0] != "tight" {
		t.Errorf("Insufficient = %v", ins)
	}
	got := a.ByGender(aggregate.Options{}).Counts[group.MaleName]
	want := counter.Counter{"sad": 1, "happy": 1}
	if !got.Equal(want) {
		t.Errorf("Male = %v, want %v", got, want)
	}
}

func TestScanDocument(t *testing.T) {
	doc := corpus.NewDocument("x", "the sad he was", nil, nil)
	got, err := ScanDocument(doc, male, 1, testTagger(), pos.Adjectives(), nil)
	if err != nil {
		t.Fatalf("ScanDocument: %v", err)
	}
	if got["sad"] != 1 {
		t.Errorf("got %v", got)
	}
	if _, err := ScanDocument(doc, male, 1, nil, pos.Adjectives(), nil); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("nil tagger: %v", err)
	}

	a, err := New(context.Background(), testDocs(), testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err = a.ScanDocument(doc, male, []group.Group{female})
	if err != nil || got["sad"] != 1 {
		t.Errorf("method ScanDocument = %v, %v", got, err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testDocs(), testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	st := memstore.New()
	id, err := a.Save(ctx, st)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored, err := Load(ctx, st, id, Options{Tagger: testTagger(), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.State() != Ready || restored.Window() != 1 {
		t.Errorf("restored state=%v window=%d", restored.State(), restored.Window())
	}
	for _, g := range []string{group.FemaleName, group.MaleName} {
		want := a.ByGender(aggregate.Options{}).Counts[g]
		got := restored.ByGender(aggregate.Options{}).Counts[g]
		if !got.Equal(want) {
			t.Errorf("%s: restored %v, want %v", g, got, want)
		}
	}
	tbl, err := restored.ByMetadata("author_gender", aggregate.Options{})
	if err != nil || len(tbl) != 2 {
		t.Errorf("restored metadata = %v, %v", tbl, err)
	}
	if _, err := restored.ByDate(2000, 2010, 5, aggregate.Options{}); err != nil {
		t.Errorf("restored ByDate: %v", err)
	}
}

func TestDunningHelpers(t *testing.T) {
	var docs []*corpus.Document
	for i := 0; i < 6; i++ {
		docs = append(docs,
			corpus.NewDocument("f"+strings.Repeat("i", i), "x sad she happy x", nil, map[string]string{"author_gender": "female"}),
			corpus.NewDocument("m"+strings.Repeat("i", i), "x sad he tall x", nil, map[string]string{"author_gender": "male"}),
		)
	}
	a, err := New(context.Background(), docs, testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r, err := a.Dunning(group.FemaleName, group.MaleName)
	if err != nil {
		t.Fatalf("Dunning: %v", err)
	}
	rec, ok := r["sad"]
	if !ok || rec.CountCorp1 != 6 || rec.CountCorp2 != 6 {
		t.Errorf("sad = %+v (present %v)", rec, ok)
	}

	byMeta, err := a.DunningByMetadata("author_gender", "female", "male", "")
	if err != nil {
		t.Fatalf("DunningByMetadata: %v", err)
	}
	if _, ok := byMeta["sad"]; !ok {
		t.Errorf("expected sad in %v", byMeta)
	}
	if _, err := a.DunningByMetadata("author_gender", "female", "other", ""); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := a.DunningByMetadata("author_gender", "female", "male", "Robot"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("unknown group: expected ErrNotFound, got %v", err)
	}
}

func TestWindowOption(t *testing.T) {
	ctx := context.Background()

	opts := testOptions()
	opts.Window = nil
	a, err := New(ctx, testDocs(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Window() != window.DefaultWindow {
		t.Errorf("unset window = %d, want %d", a.Window(), window.DefaultWindow)
	}

	opts.Window = WindowSize(0)
	a, err = New(ctx, testDocs(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Window() != 0 {
		t.Errorf("window = %d, want 0", a.Window())
	}
}

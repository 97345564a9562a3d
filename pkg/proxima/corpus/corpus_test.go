package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("All-kinds of “punctuation”, and special chars!! Don’t")
	want := []string{"allkinds", "of", "punctuation", "and", "special", "chars", "dont"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestDocumentCounts(t *testing.T) {
	d := NewDocument("doc", "She said she was happy. He laughed.", Year(1900), map[string]string{"author": "A"})
	if d.WordCount() != 7 {
		t.Errorf("WordCount = %d", d.WordCount())
	}
	if d.CountOf("SHE") != 2 {
		t.Errorf("CountOf(she) = %d", d.CountOf("SHE"))
	}
	if f := d.FrequencyOf("he"); f != 1.0/7 {
		t.Errorf("FrequencyOf(he) = %v", f)
	}
	if d.WordCounts()["she"] != 2 {
		t.Errorf("WordCounts = %v", d.WordCounts())
	}
	if empty := NewDocument("e", "", nil, nil); empty.FrequencyOf("x") != 0 {
		t.Error("empty document frequency should be 0")
	}
}

func TestDocumentMeta(t *testing.T) {
	d := NewDocument("doc", "", Year(1850), map[string]string{"author": "Hawthorne", "country": ""})
	if v, ok := d.Meta(KeyDate); !ok || v != "1850" {
		t.Errorf("date = %q, %v", v, ok)
	}
	if v, ok := d.Meta(KeyLabel); !ok || v != "doc" {
		t.Errorf("label = %q, %v", v, ok)
	}
	if _, ok := d.Meta("country"); ok {
		t.Error("empty values count as missing")
	}
	if _, ok := NewDocument("x", "", nil, nil).Meta(KeyDate); ok {
		t.Error("nil date should be missing")
	}
}

func sampleCorpus() *Corpus {
	return New("sample",
		NewDocument("a", "he was sad", Year(1850), map[string]string{"author_gender": "male"}),
		NewDocument("b", "she was happy", Year(1900), map[string]string{"author_gender": "Female"}),
		NewDocument("c", "they were tall", nil, map[string]string{"author_gender": "female"}),
	)
}

func TestSubcorpus(t *testing.T) {
	c := sampleCorpus()
	female, err := c.Subcorpus("author_gender", "female")
	if err != nil {
		t.Fatalf("Subcorpus: %v", err)
	}
	if female.Len() != 2 {
		t.Errorf("expected 2 female documents, got %v", female.Labels())
	}
	byDate, err := c.Subcorpus(KeyDate, "1850")
	if err != nil || byDate.Len() != 1 || byDate.Documents[0].Label != "a" {
		t.Errorf("date subcorpus = %v, %v", byDate, err)
	}
	if _, err := c.Subcorpus("country", "England"); !errors.Is(err, internalerr.ErrUnknownMetadataKey) {
		t.Errorf("expected ErrUnknownMetadataKey, got %v", err)
	}
}

func TestMultiFilterAndDocument(t *testing.T) {
	c := sampleCorpus()
	got, err := c.MultiFilter(map[string]string{"author_gender": "female", KeyDate: "1900"})
	if err != nil {
		t.Fatalf("MultiFilter: %v", err)
	}
	if got.Len() != 1 || got.Documents[0].Label != "b" {
		t.Errorf("MultiFilter = %v", got.Labels())
	}

	d, err := c.Document(KeyLabel, "c")
	if err != nil || d.Label != "c" {
		t.Fatalf("Document = %v, %v", d, err)
	}
	if _, err := c.Document(KeyLabel, "zzz"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFieldValuesAndCounts(t *testing.T) {
	c := sampleCorpus()
	vals, err := c.FieldValues("author_gender")
	if err != nil {
		t.Fatalf("FieldValues: %v", err)
	}
	if strings.Join(vals, ",") != "Female,female,male" {
		t.Errorf("FieldValues = %v", vals)
	}
	if wc := c.WordCounts(); wc["was"] != 2 || wc["tall"] != 1 {
		t.Errorf("WordCounts = %v", wc)
	}
	u := c.Union(New("other", NewDocument("a", "dup", nil, nil), NewDocument("d", "new", nil, nil)))
	if u.Len() != 4 {
		t.Errorf("Union = %v", u.Labels())
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantNil bool
		wantErr bool
	}{
		{in: "1818", want: 1818},
		{in: "-50", want: -50},
		{in: "2004-03-15", want: 2004},
		{in: "", wantNil: true},
		{in: "sometime", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if tt.wantNil {
			if got != nil {
				t.Errorf("ParseDate(%q) = %d, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ParseDate(%q) = %v, want %d", tt.in, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type fixedDetector string

func (f fixedDetector) Detect(string) (string, bool) { return string(f), true }

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "austen.txt", "She was handsome.")
	writeFile(t, dir, "page.html", "<html><head><title>x</title></head><body><p>He was <b>sad</b></p><script>var a;</script></body></html>")
	writeFile(t, dir, "bad.txt", "bad date")
	writeFile(t, dir, "meta.csv", "filename,author,date,author_gender\n"+
		"austen.txt,\"Austen, Jane\",1818,female\n"+
		"page.html,Anon,1900-05-01,male\n"+
		"bad.txt,Nobody,someday,male\n"+
		"missing.txt,Ghost,1900,male\n")

	c, err := LoadCSV(context.Background(), filepath.Join(dir, "meta.csv"), dir, LoadOptions{Name: "test", Detector: fixedDetector("en")})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 documents, got %v", c.Labels())
	}
	austen := c.Documents[0]
	if austen.Label != "austen" || *austen.Date != 1818 || austen.Metadata["author"] != "Austen, Jane" {
		t.Errorf("unexpected document %+v", austen)
	}
	if austen.Metadata[KeyLanguage] != "en" {
		t.Errorf("expected detected language, got %v", austen.Metadata)
	}
	page := c.Documents[1]
	if *page.Date != 1900 {
		t.Errorf("expected year 1900, got %d", *page.Date)
	}
	if strings.Join(page.Tokens(), " ") != "he was sad" {
		t.Errorf("html tokens = %v", page.Tokens())
	}
}

func TestLoadCSVRequiresFilename(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meta.csv", "title,author\nx,y\n")
	_, err := LoadCSV(context.Background(), filepath.Join(dir, "meta.csv"), dir, LoadOptions{})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadCSVCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "text")
	writeFile(t, dir, "meta.csv", "filename\na.txt\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadCSV(ctx, filepath.Join(dir, "meta.csv"), dir, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second")
	writeFile(t, dir, "a.txt", "first")
	writeFile(t, dir, "notes.csv", "filename\n")
	c, err := LoadDir(context.Background(), dir, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if strings.Join(c.Labels(), ",") != "a,b" {
		t.Errorf("labels = %v", c.Labels())
	}
}

func TestLoadJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docs.jsonl")
	writeFile(t, dir, "docs.jsonl", `{"label":"one","date":1850,"text":"he was sad","metadata":{"author_gender":"male"}}
not json
{"label":"two","date":"1901-02-03","text":"she was happy"}

{"text":"no label"}
`)
	c, err := LoadJSONL(path, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadJSONL: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 documents, got %v", c.Labels())
	}
	if *c.Documents[0].Date != 1850 || c.Documents[0].Metadata["author_gender"] != "male" {
		t.Errorf("first document = %+v", c.Documents[0])
	}
	if *c.Documents[1].Date != 1901 {
		t.Errorf("second date = %d", *c.Documents[1].Date)
	}
	if c.Documents[2].Label != "docs.jsonl:5" || c.Documents[2].Date != nil {
		t.Errorf("third document = %+v", c.Documents[2])
	}
}

func TestHTMLText(t *testing.T) {
	got, err := HTMLText(strings.NewReader("<div>One<style>p{}</style><span>two</span></div>"))
	if err != nil {
		t.Fatalf("HTMLText: %v", err)
	}
	if got != "One two" {
		t.Errorf("HTMLText = %q", got)
	}
}

func TestDetectionSampleKeepsRunes(t *testing.T) {
	text := strings.Repeat("a", detectSample-1) + "élan"
	got := sample(text)
	if !utf8.ValidString(got) {
		t.Fatal("sample split a rune")
	}
	if len(got) != detectSample-1 {
		t.Errorf("sample length = %d, want %d", len(got), detectSample-1)
	}
	if sample("short") != "short" {
		t.Error("short text should be unchanged")
	}
}

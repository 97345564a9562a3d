package corpus

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// LoadOptions configures the loaders.
type LoadOptions struct {
	Name   string
	Logger *slog.Logger
	// Detector, when set, fills the language key of documents that lack it.
	Detector LanguageDetector
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// LoadCSV reads a metadata CSV whose filename column names files under
// textDir. Rows with a missing file, an unsupported extension or an
// unparseable date are logged and skipped.
func LoadCSV(ctx context.Context, csvPath, textDir string, opts LoadOptions) (*Corpus, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open metadata %s: %w", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", csvPath, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if indexOf(header, KeyFilename) < 0 {
		return nil, fmt.Errorf("%s has no %q column: %w", csvPath, KeyFilename, internalerr.ErrInvalidInput)
	}

	log := opts.logger()
	c := New(opts.Name)
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", csvPath, line, err)
		}

		meta := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(record) {
				meta[key] = strings.TrimSpace(record[i])
			}
		}
		doc, err := loadFile(textDir, meta)
		if err != nil {
			log.Warn("skip row", "file", csvPath, "line", line, "error", err)
			continue
		}
		detectLanguage(doc, opts.Detector)
		c.Documents = append(c.Documents, doc)
	}

	if c.Len() == 0 {
		return nil, fmt.Errorf("no documents loaded from %s: %w", csvPath, internalerr.ErrInvalidInput)
	}
	return c, nil
}

// LoadDir loads every supported file in dir without extra metadata.
func LoadDir(ctx context.Context, dir string, opts LoadOptions) (*Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	c := New(opts.Name)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := loadFile(dir, map[string]string{KeyFilename: name})
		if err != nil {
			opts.logger().Warn("skip file", "file", name, "error", err)
			continue
		}
		detectLanguage(doc, opts.Detector)
		c.Documents = append(c.Documents, doc)
	}
	if c.Len() == 0 {
		return nil, fmt.Errorf("no documents found in %s: %w", dir, internalerr.ErrInvalidInput)
	}
	return c, nil
}

func supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".html", ".htm":
		return true
	}
	return false
}

func loadFile(dir string, meta map[string]string) (*Document, error) {
	name := meta[KeyFilename]
	if name == "" {
		return nil, fmt.Errorf("empty filename: %w", internalerr.ErrInvalidInput)
	}
	if !supported(name) {
		return nil, fmt.Errorf("unsupported file type %q: %w", name, internalerr.ErrInvalidInput)
	}
	date, err := ParseDate(meta[KeyDate])
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	text := string(data)
	if ext := strings.ToLower(filepath.Ext(name)); ext == ".html" || ext == ".htm" {
		text, err = HTMLText(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	label := meta[KeyLabel]
	if label == "" {
		label = strings.TrimSuffix(name, filepath.Ext(name))
	}
	delete(meta, KeyLabel)
	delete(meta, KeyDate)
	return NewDocument(label, text, date, meta), nil
}

// ParseDate reads a year. Plain integers are taken as-is; anything else is
// handed to dateparse and reduced to its year. Empty input means no date.
func ParseDate(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if y, err := strconv.Atoi(s); err == nil {
		return &y, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", s, internalerr.ErrInvalidInput)
	}
	y := t.Year()
	return &y, nil
}

type jsonDocument struct {
	Label    string            `json:"label"`
	Date     any               `json:"date"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// LoadJSONL reads one document per line. Malformed lines are logged and
// skipped.
func LoadJSONL(path string, opts LoadOptions) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	log := opts.logger()
	c := New(opts.Name)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var jd jsonDocument
		if err := json.Unmarshal([]byte(raw), &jd); err != nil {
			log.Warn("skip malformed line", "file", path, "line", line, "error", err)
			continue
		}
		date, err := jsonDate(jd.Date)
		if err != nil {
			log.Warn("skip line", "file", path, "line", line, "error", err)
			continue
		}
		label := jd.Label
		if label == "" {
			label = fmt.Sprintf("%s:%d", filepath.Base(path), line)
		}
		doc := NewDocument(label, jd.Text, date, jd.Metadata)
		detectLanguage(doc, opts.Detector)
		c.Documents = append(c.Documents, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	if c.Len() == 0 {
		return nil, fmt.Errorf("no valid documents found in %s: %w", path, internalerr.ErrInvalidInput)
	}
	return c, nil
}

func jsonDate(v any) (*int, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case float64:
		y := int(d)
		return &y, nil
	case string:
		return ParseDate(d)
	}
	return nil, fmt.Errorf("date %v: %w", v, internalerr.ErrInvalidInput)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// Package store persists analysis runs and Dunning results.
package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/dunning"
)

// Store is the persistence interface shared by the sqlite and in-memory
// backends. Lookups of unknown runs return internalerr.ErrNotFound.
type Store interface {
	Close() error

	// Runs
	SaveRun(ctx context.Context, r Run) (string, error)
	LoadRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context) ([]RunInfo, error)
	DeleteRun(ctx context.Context, id string) error

	// Dunning results attached to a run
	SaveDunning(ctx context.Context, runID, name string, r dunning.Result) error
	LoadDunning(ctx context.Context, runID, name string) (dunning.Result, error)
}

// Run is everything needed to restore a proximity analysis without
// rescanning.
type Run struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Window    int
	Tags      []string
	Exclusion string
	Groups    []GroupRecord
	Documents []DocRecord
	Counts    aggregate.Results
	// Insufficient lists, per group, documents skipped by the lower-bound
	// heuristic.
	Insufficient map[string][]string
}

// GroupRecord is a stored group definition.
type GroupRecord struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Subject []string `json:"subject,omitempty"`
	Object  []string `json:"object,omitempty"`
}

// DocRecord is a stored document without its text.
type DocRecord struct {
	Label    string
	Date     *int
	Metadata map[string]string
}

// RunInfo summarises a stored run.
type RunInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Window    int       `json:"window"`
	Documents int       `json:"documents"`
}

// Info summarises r.
func (r Run) Info() RunInfo {
	return RunInfo{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		Window:    r.Window,
		Documents: len(r.Documents),
	}
}

// Clone deep-copies r.
func (r Run) Clone() Run {
	out := r
	out.Tags = append([]string(nil), r.Tags...)
	out.Groups = make([]GroupRecord, len(r.Groups))
	for i, g := range r.Groups {
		out.Groups[i] = GroupRecord{
			Name:    g.Name,
			Members: append([]string(nil), g.Members...),
			Subject: append([]string(nil), g.Subject...),
			Object:  append([]string(nil), g.Object...),
		}
	}
	out.Documents = make([]DocRecord, len(r.Documents))
	for i, d := range r.Documents {
		out.Documents[i] = d.clone()
	}
	out.Counts = r.Counts.Clone()
	if r.Insufficient != nil {
		out.Insufficient = make(map[string][]string, len(r.Insufficient))
		for g, labels := range r.Insufficient {
			out.Insufficient[g] = append([]string(nil), labels...)
		}
	}
	return out
}

func (d DocRecord) clone() DocRecord {
	out := DocRecord{Label: d.Label}
	if d.Date != nil {
		y := *d.Date
		out.Date = &y
	}
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

var (
	idMu    sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new sortable run identifier.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Prepare fills in a missing ID and creation time.
func Prepare(r Run) Run {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}

// CloneDunning copies a Dunning result.
func CloneDunning(r dunning.Result) dunning.Result {
	out := make(dunning.Result, len(r))
	for w, rec := range r {
		out[w] = rec
	}
	return out
}

package proximity

import (
	"context"
	"fmt"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/pos"
	"github.com/cognicore/proxima/pkg/proxima/store"
)

// Snapshot captures the analyzer for persistence. Document text is not
// stored.
func (a *Analyzer) Snapshot() store.Run {
	run := store.Run{
		Name:      a.opts.Name,
		Window:    a.Window(),
		Tags:      a.opts.Tags.List(),
		Exclusion: string(a.opts.Exclusion),
		Counts:    a.results.Clone(),
	}
	for _, g := range a.opts.Groups {
		run.Groups = append(run.Groups, store.GroupRecord{
			Name:    g.Name,
			Members: g.Identifiers(),
			Subject: g.SubjectForms(),
			Object:  g.ObjectForms(),
		})
	}
	for _, d := range a.docs {
		rec := store.DocRecord{Label: d.Label, Metadata: d.Metadata}
		if d.Date != nil {
			y := *d.Date
			rec.Date = &y
		}
		run.Documents = append(run.Documents, rec)
	}
	if len(a.insufficient) > 0 {
		run.Insufficient = a.Insufficient()
	}
	return run.Clone()
}

// FromRun restores a Ready analyzer from a stored run without rescanning.
// Groups, tags, window and exclusion come from the run; the remaining
// options (tagger, stoplist, logger) from opts.
func FromRun(run store.Run, opts Options) (*Analyzer, error) {
	if len(run.Groups) == 0 {
		return nil, fmt.Errorf("run %s has no groups: %w", run.ID, internalerr.ErrInvalidInput)
	}
	tags, err := pos.NewTagSet(run.Tags...)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}
	opts.Groups = make([]group.Group, 0, len(run.Groups))
	for _, g := range run.Groups {
		opts.Groups = append(opts.Groups, group.NewFromSets(g.Name, g.Members, g.Subject, g.Object))
	}
	opts.Tags = tags
	opts.Window = WindowSize(run.Window)
	opts.Exclusion = group.ExclusionMode(run.Exclusion)
	if opts.Name == "" {
		opts.Name = run.Name
	}

	a, err := newAnalyzer(opts)
	if err != nil {
		return nil, err
	}
	a.results = run.Counts.Clone()
	if a.results == nil {
		a.results = make(aggregate.Results)
	}
	for _, d := range run.Documents {
		a.docs = append(a.docs, corpus.NewDocument(d.Label, "", d.Date, d.Metadata))
	}
	a.insufficient = make(map[string][]string, len(run.Insufficient))
	for g, labels := range run.Insufficient {
		a.insufficient[g] = append([]string(nil), labels...)
	}
	a.ready()
	return a, nil
}

// Save persists a snapshot and returns its run ID.
func (a *Analyzer) Save(ctx context.Context, st store.Store) (string, error) {
	return st.SaveRun(ctx, a.Snapshot())
}

// Load restores an analyzer from st.
func Load(ctx context.Context, st store.Store, id string, opts Options) (*Analyzer, error) {
	run, err := st.LoadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromRun(run, opts)
}

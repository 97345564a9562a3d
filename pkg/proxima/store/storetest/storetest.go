// Package storetest holds behaviour tests shared by the store backends.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/dunning"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/store"
)

// SampleRun returns a small run with two documents and two groups.
func SampleRun() store.Run {
	y := 1850
	return store.Run{
		Name:      "sample",
		Window:    5,
		Tags:      []string{"JJ", "JJR", "JJS"},
		Exclusion: "binary",
		Groups: []store.GroupRecord{
			{Name: "Female", Members: []string{"she", "her"}, Subject: []string{"she"}, Object: []string{"her"}},
			{Name: "Male", Members: []string{"he", "him"}},
		},
		Documents: []store.DocRecord{
			{Label: "a", Date: &y, Metadata: map[string]string{"author_gender": "female"}},
			{Label: "b"},
		},
		Counts: aggregate.Results{
			"a": {"Female": counter.Counter{"sad": 3}, "Male": counter.Counter{"tall": 1}},
			"b": {"Female": counter.Counter{}, "Male": counter.Counter{"sad": 2}},
		},
		Insufficient: map[string][]string{"Male": {"b"}},
	}
}

// Run exercises a store.Store implementation. open must return an empty
// store.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, open(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("ListAndDelete", func(t *testing.T) { testListAndDelete(t, open(t)) })
	t.Run("Dunning", func(t *testing.T) { testDunning(t, open(t)) })
}

func testRoundTrip(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	id, err := st.SaveRun(ctx, SampleRun())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("expected a ULID, got %q", id)
	}

	got, err := st.LoadRun(ctx, id)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if got.ID != id || got.Name != "sample" || got.Window != 5 || got.Exclusion != "binary" {
		t.Errorf("header mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if len(got.Tags) != 3 || got.Tags[0] != "JJ" {
		t.Errorf("tags = %v", got.Tags)
	}
	if len(got.Groups) != 2 || got.Groups[0].Subject[0] != "she" {
		t.Errorf("groups = %+v", got.Groups)
	}
	if len(got.Documents) != 2 || got.Documents[0].Label != "a" || *got.Documents[0].Date != 1850 {
		t.Errorf("documents = %+v", got.Documents)
	}
	if got.Documents[1].Date != nil {
		t.Error("undated document gained a date")
	}
	if got.Documents[0].Metadata["author_gender"] != "female" {
		t.Errorf("metadata = %v", got.Documents[0].Metadata)
	}
	if got.Counts["a"]["Female"]["sad"] != 3 || got.Counts["b"]["Male"]["sad"] != 2 {
		t.Errorf("counts = %v", got.Counts)
	}
	if len(got.Insufficient["Male"]) != 1 || got.Insufficient["Male"][0] != "b" {
		t.Errorf("insufficient = %v", got.Insufficient)
	}

	// Saving again with the same ID replaces the run.
	got.Counts["a"]["Female"]["sad"] = 9
	if _, err := st.SaveRun(ctx, got); err != nil {
		t.Fatalf("SaveRun again: %v", err)
	}
	again, err := st.LoadRun(ctx, id)
	if err != nil {
		t.Fatalf("LoadRun again: %v", err)
	}
	if again.Counts["a"]["Female"]["sad"] != 9 {
		t.Errorf("replace failed: %v", again.Counts["a"])
	}
}

func testNotFound(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()
	if _, err := st.LoadRun(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("LoadRun: expected ErrNotFound, got %v", err)
	}
	if err := st.DeleteRun(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("DeleteRun: expected ErrNotFound, got %v", err)
	}
	if err := st.SaveDunning(ctx, "missing", "x", dunning.Result{}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("SaveDunning: expected ErrNotFound, got %v", err)
	}
}

func testListAndDelete(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	older := SampleRun()
	older.Name = "older"
	older.CreatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := SampleRun()
	newer.Name = "newer"
	newer.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	oldID, err := st.SaveRun(ctx, older)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := st.SaveRun(ctx, newer); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].Name != "newer" || runs[1].Documents != 2 {
		t.Fatalf("ListRuns = %+v", runs)
	}

	if err := st.DeleteRun(ctx, oldID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	runs, _ = st.ListRuns(ctx)
	if len(runs) != 1 {
		t.Fatalf("expected one run after delete, got %d", len(runs))
	}
}

func testDunning(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()

	id, err := st.SaveRun(ctx, SampleRun())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	result := dunning.Total(
		counter.Counter{"sad": 20, "tall": 5},
		counter.Counter{"sad": 10, "tall": 30},
	)
	if err := st.SaveDunning(ctx, id, "female-vs-male", result); err != nil {
		t.Fatalf("SaveDunning: %v", err)
	}
	got, err := st.LoadDunning(ctx, id, "female-vs-male")
	if err != nil {
		t.Fatalf("LoadDunning: %v", err)
	}
	if len(got) != len(result) {
		t.Fatalf("got %d records, want %d", len(got), len(result))
	}
	for w, rec := range result {
		if got[w] != rec {
			t.Errorf("%s: got %+v, want %+v", w, got[w], rec)
		}
	}
	if _, err := st.LoadDunning(ctx, id, "other"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

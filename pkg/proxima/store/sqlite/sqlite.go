package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/counter"
	"github.com/cognicore/proxima/pkg/proxima/dunning"
	"github.com/cognicore/proxima/pkg/proxima/internalerr"
	"github.com/cognicore/proxima/pkg/proxima/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// connPragmas run on every pooled connection.
var connPragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(5000)",
}

// dsn appends the connection pragmas to path.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range connPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// OpenSQLite opens a SQLite database with WAL mode and foreign keys enabled
// on every connection.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	name TEXT,
	created_at TEXT NOT NULL,
	window_size INTEGER NOT NULL,
	tags TEXT NOT NULL,
	exclusion TEXT,
	groups_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_docs (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	label TEXT NOT NULL,
	date INTEGER,
	metadata TEXT,
	PRIMARY KEY(run_id, label),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_counts (
	run_id TEXT NOT NULL,
	doc_label TEXT NOT NULL,
	group_name TEXT NOT NULL,
	word TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, doc_label, group_name, word),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_insufficient (
	run_id TEXT NOT NULL,
	group_name TEXT NOT NULL,
	doc_label TEXT NOT NULL,
	PRIMARY KEY(run_id, group_name, doc_label),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS dunning_results (
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	word TEXT NOT NULL,
	dunning REAL NOT NULL,
	count_total INTEGER NOT NULL,
	count_corp1 INTEGER NOT NULL,
	count_corp2 INTEGER NOT NULL,
	freq_total REAL NOT NULL,
	freq_corp1 REAL NOT NULL,
	freq_corp2 REAL NOT NULL,
	PRIMARY KEY(run_id, name, word),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run and all of its counts.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) (string, error) {
	r = store.Prepare(r)

	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return "", err
	}
	groups, err := json.Marshal(r.Groups)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO runs (id, name, created_at, window_size, tags, exclusion, groups_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name,
	created_at=excluded.created_at,
	window_size=excluded.window_size,
	tags=excluded.tags,
	exclusion=excluded.exclusion,
	groups_json=excluded.groups_json;
`
	if _, err := tx.ExecContext(ctx, upsert,
		r.ID, r.Name, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Window,
		string(tags), r.Exclusion, string(groups),
	); err != nil {
		return "", err
	}

	for _, table := range []string{"run_docs", "run_counts", "run_insufficient"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", r.ID); err != nil {
			return "", err
		}
	}

	if err := insertDocs(ctx, tx, r.ID, r.Documents); err != nil {
		return "", err
	}
	if err := insertCounts(ctx, tx, r.ID, r.Counts); err != nil {
		return "", err
	}
	if err := insertInsufficient(ctx, tx, r.ID, r.Insufficient); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return r.ID, nil
}

func insertDocs(ctx context.Context, tx *sql.Tx, runID string, docs []store.DocRecord) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_docs (run_id, position, label, date, metadata) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, d := range docs {
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return err
		}
		var date sql.NullInt64
		if d.Date != nil {
			date = sql.NullInt64{Int64: int64(*d.Date), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, i, d.Label, date, string(meta)); err != nil {
			return fmt.Errorf("insert doc %q: %w", d.Label, err)
		}
	}
	return nil
}

func insertCounts(ctx context.Context, tx *sql.Tx, runID string, results aggregate.Results) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_counts (run_id, doc_label, group_name, word, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for label, byGroup := range results {
		for g, c := range byGroup {
			for word, n := range c {
				if _, err := stmt.ExecContext(ctx, runID, label, g, word, n); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func insertInsufficient(ctx context.Context, tx *sql.Tx, runID string, insufficient map[string][]string) error {
	for g, labels := range insufficient {
		for _, label := range labels {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO run_insufficient (run_id, group_name, doc_label) VALUES (?, ?, ?)`,
				runID, g, label,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadRun restores a run with its documents and counts.
func (s *sqliteStore) LoadRun(ctx context.Context, id string) (store.Run, error) {
	var (
		r         store.Run
		name      sql.NullString
		created   string
		tags      string
		exclusion sql.NullString
		groups    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, window_size, tags, exclusion, groups_json FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &name, &created, &r.Window, &tags, &exclusion, &groups)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	r.Name = name.String
	r.Exclusion = exclusion.String
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return store.Run{}, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(groups), &r.Groups); err != nil {
		return store.Run{}, fmt.Errorf("decode groups: %w", err)
	}

	if r.Documents, err = s.loadDocs(ctx, id); err != nil {
		return store.Run{}, err
	}
	if r.Counts, err = s.loadCounts(ctx, id, r.Documents); err != nil {
		return store.Run{}, err
	}
	if r.Insufficient, err = s.loadInsufficient(ctx, id); err != nil {
		return store.Run{}, err
	}
	return r, nil
}

func (s *sqliteStore) loadDocs(ctx context.Context, runID string) ([]store.DocRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, date, metadata FROM run_docs WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []store.DocRecord
	for rows.Next() {
		var (
			d    store.DocRecord
			date sql.NullInt64
			meta sql.NullString
		)
		if err := rows.Scan(&d.Label, &date, &meta); err != nil {
			return nil, err
		}
		if date.Valid {
			y := int(date.Int64)
			d.Date = &y
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &d.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of %q: %w", d.Label, err)
			}
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *sqliteStore) loadCounts(ctx context.Context, runID string, docs []store.DocRecord) (aggregate.Results, error) {
	results := make(aggregate.Results, len(docs))
	for _, d := range docs {
		results[d.Label] = make(map[string]counter.Counter)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_label, group_name, word, count FROM run_counts WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			label, group, word string
			n                  int64
		)
		if err := rows.Scan(&label, &group, &word, &n); err != nil {
			return nil, err
		}
		if results[label] == nil {
			results[label] = make(map[string]counter.Counter)
		}
		if results[label][group] == nil {
			results[label][group] = counter.New()
		}
		results[label][group][word] = n
	}
	return results, rows.Err()
}

func (s *sqliteStore) loadInsufficient(ctx context.Context, runID string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_name, doc_label FROM run_insufficient WHERE run_id = ? ORDER BY group_name, doc_label`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out map[string][]string
	for rows.Next() {
		var g, label string
		if err := rows.Scan(&g, &label); err != nil {
			return nil, err
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[g] = append(out[g], label)
	}
	return out, rows.Err()
}

// ListRuns returns runs newest first.
func (s *sqliteStore) ListRuns(ctx context.Context) ([]store.RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.name, r.created_at, r.window_size,
	(SELECT COUNT(*) FROM run_docs d WHERE d.run_id = r.id)
FROM runs r
ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunInfo
	for rows.Next() {
		var (
			info    store.RunInfo
			name    sql.NullString
			created string
		)
		if err := rows.Scan(&info.ID, &name, &created, &info.Window, &info.Documents); err != nil {
			return nil, err
		}
		info.Name = name.String
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteRun removes a run; dependent rows cascade.
func (s *sqliteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) runExists(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// SaveDunning replaces the named result of a run.
func (s *sqliteStore) SaveDunning(ctx context.Context, runID, name string, r dunning.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ok, err := s.runExists(ctx, tx, runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dunning_results WHERE run_id = ? AND name = ?`, runID, name); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO dunning_results
	(run_id, name, word, dunning, count_total, count_corp1, count_corp2, freq_total, freq_corp1, freq_corp2)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for word, rec := range r {
		if _, err := stmt.ExecContext(ctx, runID, name, word,
			rec.Dunning, rec.CountTotal, rec.CountCorp1, rec.CountCorp2,
			rec.FreqTotal, rec.FreqCorp1, rec.FreqCorp2,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadDunning returns the named result of a run.
func (s *sqliteStore) LoadDunning(ctx context.Context, runID, name string) (dunning.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT word, dunning, count_total, count_corp1, count_corp2, freq_total, freq_corp1, freq_corp2
FROM dunning_results WHERE run_id = ? AND name = ?`, runID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out dunning.Result
	for rows.Next() {
		var (
			word string
			rec  dunning.Record
		)
		if err := rows.Scan(&word, &rec.Dunning, &rec.CountTotal, &rec.CountCorp1, &rec.CountCorp2,
			&rec.FreqTotal, &rec.FreqCorp1, &rec.FreqCorp2); err != nil {
			return nil, err
		}
		if out == nil {
			out = make(dunning.Result)
		}
		out[word] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("dunning %s/%s: %w", runID, name, internalerr.ErrNotFound)
	}
	return out, nil
}

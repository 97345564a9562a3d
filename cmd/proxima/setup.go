package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cognicore/proxima/pkg/proxima/config"
	"github.com/cognicore/proxima/pkg/proxima/corpus"
	"github.com/cognicore/proxima/pkg/proxima/store"
	"github.com/cognicore/proxima/pkg/proxima/store/sqlite"
)

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	switch {
	case c.Bool("quiet"):
		logLevel = slog.LevelError
	case c.Bool("verbose"):
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: logLevel}))
}

func corpusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "metadata", Usage: "metadata CSV with a filename column"},
		&cli.StringFlag{Name: "texts", Usage: "directory holding the files named in --metadata, or the corpus itself without --metadata"},
		&cli.StringFlag{Name: "jsonl", Usage: "JSONL corpus, one {label, date, text, metadata} object per line"},
		&cli.StringFlag{Name: "name", Usage: "corpus name"},
		&cli.BoolFlag{Name: "detect-language", Usage: "fill the language metadata key from the text"},
	}
}

// loadCorpus picks the loader from the corpus flags.
func loadCorpus(ctx context.Context, c *cli.Context, logger *slog.Logger) (*corpus.Corpus, error) {
	opts := corpus.LoadOptions{Name: c.String("name"), Logger: logger}
	if c.Bool("detect-language") {
		opts.Detector = corpus.NewLinguaDetector()
	}

	var (
		corp *corpus.Corpus
		err  error
	)
	switch {
	case c.String("jsonl") != "":
		corp, err = corpus.LoadJSONL(c.String("jsonl"), opts)
	case c.String("metadata") != "":
		if c.String("texts") == "" {
			return nil, fmt.Errorf("--texts is required with --metadata")
		}
		corp, err = corpus.LoadCSV(ctx, c.String("metadata"), c.String("texts"), opts)
	case c.String("texts") != "":
		corp, err = corpus.LoadDir(ctx, c.String("texts"), opts)
	default:
		return nil, fmt.Errorf("one of --jsonl, --metadata or --texts is required")
	}
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	logger.Info("corpus loaded", "name", corp.Name, "documents", corp.Len())
	return corp, nil
}

func loadComponents(c *cli.Context) (*config.Components, error) {
	loader := config.Loader{
		AnalysisPath: c.String("config"),
		GroupsPath:   c.String("groups"),
		StoplistPath: c.String("stoplist"),
	}
	comp, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return comp, nil
}

// openStore opens the --db database, or returns nil when the flag is unset.
func openStore(ctx context.Context, c *cli.Context) (store.Store, error) {
	path := c.String("db")
	if path == "" {
		return nil, nil
	}
	st, err := sqlite.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

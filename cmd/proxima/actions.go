package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/cognicore/proxima/pkg/proxima/aggregate"
	"github.com/cognicore/proxima/pkg/proxima/distance"
	"github.com/cognicore/proxima/pkg/proxima/dunning"
	"github.com/cognicore/proxima/pkg/proxima/frequency"
	"github.com/cognicore/proxima/pkg/proxima/group"
	"github.com/cognicore/proxima/pkg/proxima/pos"
	"github.com/cognicore/proxima/pkg/proxima/proximity"
	"github.com/cognicore/proxima/pkg/proxima/store"
)

type scanReport struct {
	RunID        string              `json:"run_id,omitempty"`
	Name         string              `json:"name,omitempty"`
	Window       int                 `json:"window"`
	Tags         []string            `json:"tags"`
	By           string              `json:"by"`
	Skipped      []string            `json:"skipped,omitempty"`
	Insufficient map[string][]string `json:"insufficient,omitempty"`
	Result       any                 `json:"result"`
}

// buildAnalyzer scans the corpus, or restores --run from --db. A fresh scan
// is saved when a store is open. The returned store may be nil.
func buildAnalyzer(ctx context.Context, c *cli.Context, logger *slog.Logger) (*proximity.Analyzer, string, store.Store, error) {
	comp, err := loadComponents(c)
	if err != nil {
		return nil, "", nil, err
	}
	opts := comp.ProximityOptions()
	opts.Logger = logger
	opts.SkipFailedDocuments = c.Bool("skip-failed")
	if c.IsSet("window") {
		opts.Window = proximity.WindowSize(c.Int("window"))
	}
	if c.IsSet("exclusion") {
		mode, err := group.ParseExclusionMode(c.String("exclusion"))
		if err != nil {
			return nil, "", nil, err
		}
		opts.Exclusion = mode
	}
	if w := c.Int("workers"); w > 0 {
		opts.Workers = w
	}

	st, err := openStore(ctx, c)
	if err != nil {
		return nil, "", nil, err
	}

	if id := c.String("run"); id != "" {
		if st == nil {
			return nil, "", nil, fmt.Errorf("--run requires --db")
		}
		an, err := proximity.Load(ctx, st, id, opts)
		if err != nil {
			closeStore(st)
			return nil, "", nil, fmt.Errorf("load run %s: %w", id, err)
		}
		logger.Info("run loaded", "id", id, "documents", len(an.Documents()))
		return an, id, st, nil
	}

	corp, err := loadCorpus(ctx, c, logger)
	if err != nil {
		closeStore(st)
		return nil, "", nil, err
	}
	if opts.Name == "" {
		opts.Name = corp.Name
	}
	an, err := proximity.New(ctx, corp.Documents, opts)
	if err != nil {
		closeStore(st)
		return nil, "", nil, fmt.Errorf("scan: %w", err)
	}

	var runID string
	if st != nil {
		runID, err = an.Save(ctx, st)
		if err != nil {
			closeStore(st)
			return nil, "", nil, fmt.Errorf("save run: %w", err)
		}
		logger.Info("run saved", "id", runID)
	}
	return an, runID, st, nil
}

func closeStore(st store.Store) {
	if st != nil {
		st.Close()
	}
}

func scanAction(c *cli.Context) error {
	ctx := c.Context
	logger := newLogger(c)

	an, runID, st, err := buildAnalyzer(ctx, c, logger)
	if err != nil {
		return err
	}
	defer closeStore(st)

	opts := aggregate.Options{
		Sort:            c.Bool("sort"),
		Diff:            c.Bool("diff"),
		Limit:           c.Int("limit"),
		RemoveStopwords: c.Bool("remove-stopwords"),
	}

	report := scanReport{
		RunID:        runID,
		Name:         an.Name(),
		Window:       an.Window(),
		Tags:         an.Tags().List(),
		By:           c.String("by"),
		Skipped:      an.Skipped(),
		Insufficient: an.Insufficient(),
	}
	switch report.By {
	case "gender":
		report.Result = an.ByGender(opts)
	case "document":
		report.Result = an.ByDocument(opts)
	case "date":
		report.Result, err = an.ByDate(c.Int("from"), c.Int("to"), c.Int("bin"), opts)
	case "metadata":
		if c.String("key") == "" {
			return fmt.Errorf("--key is required with --by metadata")
		}
		report.Result, err = an.ByMetadata(c.String("key"), opts)
	case "overlap":
		report.Result = an.ByOverlap()
	default:
		return fmt.Errorf("unknown --by %q", report.By)
	}
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, report)
}

func dunningAction(c *cli.Context) error {
	ctx := c.Context
	logger := newLogger(c)

	an, runID, st, err := buildAnalyzer(ctx, c, logger)
	if err != nil {
		return err
	}
	defer closeStore(st)

	a, b := c.String("a"), c.String("b")
	var (
		result dunning.Result
		name   string
	)
	if key := c.String("key"); key != "" {
		result, err = an.DunningByMetadata(key, a, b, c.String("group"))
		name = fmt.Sprintf("%s:%s-%s", key, a, b)
		if g := c.String("group"); g != "" {
			name += "/" + g
		}
	} else {
		result, err = an.Dunning(a, b)
		name = fmt.Sprintf("groups:%s-%s", a, b)
	}
	if err != nil {
		return err
	}
	logger.Debug("dunning computed", "name", name, "words", len(result))

	if st != nil && runID != "" {
		if err := st.SaveDunning(ctx, runID, name, result); err != nil {
			return fmt.Errorf("save dunning: %w", err)
		}
		logger.Info("dunning saved", "run", runID, "name", name)
	}

	var (
		tagger pos.Tagger
		tags   pos.TagSet
	)
	if class := c.String("pos"); class != "" {
		tags, err = pos.TagSetForClass(class)
		if err != nil {
			return err
		}
		tagger = pos.NewProseTagger()
	}
	split, err := dunning.TopByPartOfSpeech(result, c.Int("top"), tagger, tags)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, split)
	}
	return dunning.Format(c.App.Writer, split, a, b)
}

func frequencyAction(c *cli.Context) error {
	ctx := c.Context
	logger := newLogger(c)

	comp, err := loadComponents(c)
	if err != nil {
		return err
	}
	corp, err := loadCorpus(ctx, c, logger)
	if err != nil {
		return err
	}
	workers := comp.Workers
	if w := c.Int("workers"); w > 0 {
		workers = w
	}
	fa, err := frequency.New(ctx, corp.Documents, frequency.Options{
		Groups:  comp.Groups,
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	d := frequency.Display{
		Format:   frequency.Format(c.String("format")),
		Grouping: frequency.Grouping(c.String("group-by")),
	}
	var result any
	switch by := c.String("by"); by {
	case "gender":
		result, err = fa.ByGender(d)
	case "document":
		result, err = fa.ByDocument(d)
	case "identifier":
		result, err = fa.ByIdentifier(d)
	case "date":
		result, err = fa.ByDate(c.Int("from"), c.Int("to"), c.Int("bin"), d)
	case "metadata":
		if c.String("key") == "" {
			return fmt.Errorf("--key is required with --by metadata")
		}
		result, err = fa.ByMetadata(c.String("key"), d)
	case "compare":
		if c.String("key") == "" {
			return fmt.Errorf("--key is required with --by compare")
		}
		result, err = fa.Compare(c.String("key"), c.String("a"), c.String("b"), c.String("group"), d)
	case "trend":
		result, err = fa.Trend(c.String("group"), d)
	default:
		return fmt.Errorf("unknown --by %q", by)
	}
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, result)
}

func distanceAction(c *cli.Context) error {
	ctx := c.Context
	logger := newLogger(c)

	comp, err := loadComponents(c)
	if err != nil {
		return err
	}
	corp, err := loadCorpus(ctx, c, logger)
	if err != nil {
		return err
	}
	report, err := distance.Analyze(corp, comp.Groups)
	if err != nil {
		return err
	}
	metric, err := distance.ParseMetric(c.String("metric"))
	if err != nil {
		return err
	}

	var result any
	switch by := c.String("by"); by {
	case "document":
		result = report.Results
	case "metadata":
		result, err = report.ByMetadata(c.String("key"), metric)
	case "date":
		result, err = report.ByDate(c.Int("from"), c.Int("to"), c.Int("bin"), metric)
	case "highest":
		result = report.Highest(c.Int("top"))
	default:
		return fmt.Errorf("unknown --by %q", by)
	}
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, result)
}

func runsAction(c *cli.Context) error {
	ctx := c.Context
	logger := newLogger(c)

	st, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer st.Close()

	if id := c.String("delete"); id != "" {
		if err := st.DeleteRun(ctx, id); err != nil {
			return fmt.Errorf("delete run %s: %w", id, err)
		}
		logger.Info("run deleted", "id", id)
		return nil
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	return writeJSON(c.App.Writer, runs)
}

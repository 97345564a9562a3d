package main

import (
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	exitOnError(newApp().Run(os.Args))
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "proxima",
		Usage: "gendered-language proximity and log-likelihood analysis",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "analysis YAML file"},
			&cli.StringFlag{Name: "groups", Usage: "groups YAML file, overrides the analysis file"},
			&cli.StringFlag{Name: "stoplist", Usage: "stoplist YAML file, overrides the analysis file"},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "collect the tagged words near each group's members",
				Flags:  append(corpusFlags(), append(analyzerFlags(), queryFlags()...)...),
				Action: scanAction,
			},
			{
				Name:  "dunning",
				Usage: "compare two groups, or two metadata values, by log-likelihood",
				Flags: append(corpusFlags(), append(analyzerFlags(),
					&cli.StringFlag{Name: "key", Usage: "metadata key; compare documents by its values instead of groups"},
					&cli.StringFlag{Name: "a", Usage: "first group, or first metadata value with --key", Value: "Female"},
					&cli.StringFlag{Name: "b", Usage: "second group, or second metadata value with --key", Value: "Male"},
					&cli.StringFlag{Name: "group", Usage: "with --key, restrict to one group's counts"},
					&cli.StringFlag{Name: "pos", Usage: "keep only words of this class (adjectives, adverbs, verbs, pronouns, nouns)"},
					&cli.IntFlag{Name: "top", Usage: "words per side", Value: 20},
					&cli.BoolFlag{Name: "json", Usage: "write JSON instead of tables"},
				)...),
				Action: dunningAction,
			},
			{
				Name:  "frequency",
				Usage: "count group identifiers",
				Flags: append(corpusFlags(),
					&cli.StringFlag{Name: "by", Usage: "gender, document, date, metadata, identifier, compare or trend", Value: "gender"},
					&cli.StringFlag{Name: "format", Usage: "count, frequency or relative", Value: "count"},
					&cli.StringFlag{Name: "group-by", Usage: "identifier, label or aggregate", Value: "identifier"},
					&cli.StringFlag{Name: "key", Usage: "metadata key for --by metadata or compare"},
					&cli.StringFlag{Name: "a", Usage: "first metadata value for --by compare", Value: "female"},
					&cli.StringFlag{Name: "b", Usage: "second metadata value for --by compare", Value: "male"},
					&cli.StringFlag{Name: "group", Usage: "group for --by compare or trend", Value: "Female"},
					&cli.IntFlag{Name: "from", Usage: "first year for --by date"},
					&cli.IntFlag{Name: "to", Usage: "end year (exclusive) for --by date"},
					&cli.IntFlag{Name: "bin", Usage: "years per bin for --by date", Value: 10},
					&cli.IntFlag{Name: "workers", Usage: "concurrent documents; 0 uses the config or GOMAXPROCS"},
				),
				Action: frequencyAction,
			},
			{
				Name:  "distance",
				Usage: "summarise the gaps between a group's occurrences",
				Flags: append(corpusFlags(),
					&cli.StringFlag{Name: "by", Usage: "document, metadata, date or highest", Value: "document"},
					&cli.StringFlag{Name: "metric", Usage: "median, mean, min or max", Value: "median"},
					&cli.StringFlag{Name: "key", Usage: "metadata key for --by metadata", Value: "author_gender"},
					&cli.IntFlag{Name: "from", Usage: "first year for --by date"},
					&cli.IntFlag{Name: "to", Usage: "end year (exclusive) for --by date"},
					&cli.IntFlag{Name: "bin", Usage: "years per bin for --by date", Value: 10},
					&cli.IntFlag{Name: "top", Usage: "documents per group for --by highest", Value: 10},
				),
				Action: distanceAction,
			},
			{
				Name:  "runs",
				Usage: "list or delete stored scans",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Usage: "SQLite database", Required: true},
					&cli.StringFlag{Name: "delete", Usage: "run ID to delete"},
				},
				Action: runsAction,
			},
		},
	}
}

func analyzerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db", Usage: "SQLite database; scans are saved to it"},
		&cli.StringFlag{Name: "run", Usage: "reuse a stored scan instead of loading a corpus (requires --db)"},
		&cli.IntFlag{Name: "window", Usage: "words on each side of a member; overrides the config"},
		&cli.StringFlag{Name: "exclusion", Usage: "binary, all or none; overrides the config"},
		&cli.IntFlag{Name: "workers", Usage: "concurrent documents; 0 uses the config or GOMAXPROCS"},
		&cli.BoolFlag{Name: "skip-failed", Usage: "log and skip documents that fail to tag"},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "by", Usage: "gender, document, date, metadata or overlap", Value: "gender"},
		&cli.StringFlag{Name: "key", Usage: "metadata key for --by metadata"},
		&cli.IntFlag{Name: "from", Usage: "first year for --by date"},
		&cli.IntFlag{Name: "to", Usage: "end year (exclusive) for --by date"},
		&cli.IntFlag{Name: "bin", Usage: "years per bin for --by date", Value: 10},
		&cli.BoolFlag{Name: "sort", Usage: "rank words by count"},
		&cli.BoolFlag{Name: "diff", Usage: "subtract the other groups' counts"},
		&cli.IntFlag{Name: "limit", Usage: "keep the top N ranked words (with --sort)"},
		&cli.BoolFlag{Name: "remove-stopwords", Usage: "drop stopwords before ranking"},
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/buildscout/buildscout/internal/config"
	"github.com/buildscout/buildscout/internal/export"
	"github.com/buildscout/buildscout/internal/search"
	"github.com/buildscout/buildscout/internal/sources/registry"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// parseLogLevel parses the LOG_LEVEL environment variable and returns the
// appropriate logrus level. Defaults to WarnLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	logLevelStr := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	switch logLevelStr {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := &cli.App{
		Name:    "buildscout",
		Usage:   "Multi-source search for construction topics: forums, Q&A sites, news, classifieds, and supplier catalogs",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML site-list config file",
				EnvVars: []string{config.ConfigPathEnvVar},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search all (or selected) sources for a query",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "sources",
						Aliases: []string{"s"},
						Usage:   "Sources to search (default: all)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   config.DefaultLimit,
						Usage:   "Maximum results per source",
					},
					&cli.IntFlag{
						Name:  "days",
						Value: config.DefaultDaysBack,
						Usage: "How many days back to search",
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Drop results below this score",
					},
					&cli.StringFlag{
						Name:  "keyword",
						Usage: "Keep only results mentioning this keyword",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format (text, json, or csv)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write results to a file instead of stdout",
					},
				},
				Action: func(c *cli.Context) error {
					return runSearch(c, logger)
				},
			},
			{
				Name:  "status",
				Usage: "Show each source's configuration status",
				Action: func(c *cli.Context) error {
					return runStatus(c, logger)
				},
			},
			{
				Name:      "suggest",
				Usage:     "Suggest refinements for a query",
				ArgsUsage: "<query>",
				Action: func(c *cli.Context) error {
					return runSuggest(c)
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func newOrchestrator(c *cli.Context, logger *logrus.Logger) (*search.Orchestrator, *config.Config, error) {
	cfg, err := config.Load(c.String("config"), logger)
	if err != nil {
		return nil, nil, err
	}
	adapters := registry.NewRegistry(cfg, logger)
	return search.NewOrchestrator(adapters, cfg.SourceNames, logger), cfg, nil
}

func runSearch(c *cli.Context, logger *logrus.Logger) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	orch, _, err := newOrchestrator(c, logger)
	if err != nil {
		return err
	}

	selected := c.StringSlice("sources")
	if len(selected) == 0 {
		selected = registry.SourceNames()
	}

	req := search.Request{
		Query:          query,
		Sources:        selected,
		LimitPerSource: c.Int("limit"),
		DaysBack:       c.Int("days"),
		Progress: func(percent int, message string) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", percent, message)
		},
	}

	results, meta := orch.SearchAllSources(c.Context, req)
	if meta.Error != "" {
		return fmt.Errorf("%s", meta.Error)
	}

	filter := search.Filter{Keyword: c.String("keyword")}
	if c.IsSet("min-score") {
		minScore := c.Float64("min-score")
		filter.MinScore = &minScore
	}
	results = orch.FilterResults(results, filter)

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				logger.WithError(closeErr).Warn("Failed to close output file")
			}
		}()
		out = f
	}

	switch c.String("format") {
	case "json":
		return export.WriteJSON(out, results, meta)
	case "csv":
		return export.WriteCSV(out, results)
	case "text":
		printResults(out, results, meta)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", c.String("format"))
	}
}

func printResults(out *os.File, results search.ResultSet, meta search.Metadata) {
	title := color.New(color.Bold)
	faint := color.New(color.Faint)

	for _, rec := range results {
		title.Fprintf(out, "%s\n", rec.Title)
		date := "unknown date"
		if rec.Date != nil {
			date = rec.Date.Format("2006-01-02")
		}
		faint.Fprintf(out, "  %s | %s | %s | score %.0f | %d comments\n",
			rec.Source, date, rec.Author, rec.Score, rec.CommentsCount)
		if rec.URL != "" {
			faint.Fprintf(out, "  %s\n", rec.URL)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%d results from %d sources in %.2fs\n",
		meta.TotalResults, len(meta.SourcesSearched), meta.SearchTimeSeconds)
	for _, src := range meta.SourcesSearched {
		outcome := meta.SourceResults[src]
		if outcome.Success {
			fmt.Fprintf(out, "  %s: %d results (%.2fs)\n", src, outcome.Count, outcome.SearchTimeSeconds)
		} else {
			fmt.Fprintf(out, "  %s: failed: %s\n", src, outcome.Error)
		}
	}
}

func runStatus(c *cli.Context, logger *logrus.Logger) error {
	orch, _, err := newOrchestrator(c, logger)
	if err != nil {
		return err
	}

	status := orch.ScraperStatus()
	ids := make([]string, 0, len(status))
	for id := range status {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	for _, id := range ids {
		s := status[id]
		if s.Configured {
			ok.Printf("  ✓ %s (%s)\n", s.Name, id)
		} else {
			warn.Printf("  ○ %s (%s): not configured\n", s.Name, id)
		}
	}
	return nil
}

func runSuggest(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}
	for _, s := range search.Suggestions(query) {
		fmt.Println(s)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/stackscan/internal/batch"
	"github.com/nao1215/stackscan/internal/classifier"
	"github.com/nao1215/stackscan/internal/config"
	"github.com/nao1215/stackscan/internal/crawler"
	"github.com/nao1215/stackscan/internal/database"
	"github.com/nao1215/stackscan/internal/fetcher"
	"github.com/nao1215/stackscan/internal/model"
	"github.com/nao1215/stackscan/internal/report"
	"github.com/spf13/cobra"
)

// errAllCrawlsFailed is returned when no seed produced a result.
var errAllCrawlsFailed = errors.New("all crawls failed")

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <url>...",
		Short: "Crawl websites and detect their technology stack",
		Long: `Scan crawls each seed URL breadth first, following only links that start
with the seed, and detects the technologies used on every fetched page.

A URL without a scheme is crawled over https. Pages that cannot be fetched
are reported and skipped; they do not count against the page budget.

Examples:
  # Scan a site and print the Markdown report
  stackscan scan example.com

  # Crawl up to 25 pages and save the report
  stackscan scan -p 25 -o website_analysis.md https://example.com/blog

  # Scan several sites, three at a time, as a table
  stackscan scan -b 3 --table a.example b.example c.example

  # Skip sites scanned during the last day
  stackscan scan --skip-recent 24h example.com

Configuration file (.stackscan) example:
  defaults:
    userAgent: "Mozilla/5.0 (compatible; stackscan)"
  sites:
    example.com:
      cookie: "session=abc123"
      ignorePatterns: ["/logout*"]`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per seed (1-100)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled concurrently")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with each request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of response body bytes read per page")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .stackscan in current or home directory)")

	cmd.Flags().BoolP("json", "j", false, "Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report (default)")
	cmd.Flags().Bool("table", false, "Output a table")
	cmd.Flags().Bool("summary", false, "Prepend a site-wide summary to the Markdown report")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().Bool("no-save", false, "Do not store the scan in the database")
	cmd.Flags().Duration("skip-recent", 0,
		"Skip seeds already scanned within this duration (e.g. 24h)")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit --config must exist; otherwise a missing file means no site settings.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.TableReport, err = cmd.Flags().GetBool("table")
	if err != nil {
		return nil, err
	}

	cfg.Summary, err = cmd.Flags().GetBool("summary")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = getDBDir(cmd)

	cfg.SkipRecent, err = cmd.Flags().GetDuration("skip-recent")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")

	cfg.Targets = make([]string, 0, len(args))
	for _, arg := range args {
		if seed := crawler.NormalizeSeed(arg); seed != "" {
			cfg.Targets = append(cfg.Targets, seed)
		}
	}

	return cfg, nil
}

// runScan crawls every target and writes the reports.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	cat, err := cfg.SiteConfigs.BuildCatalog()
	if err != nil {
		return fmt.Errorf("invalid catalog in config file: %w", err)
	}
	cls := classifier.New(cat)

	var db *database.ScanDB
	if cfg.SaveToDB || cfg.SkipRecent > 0 {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	targets, err := filterRecent(ctx, db, cfg, stderr)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	logger.Info("starting scan",
		"targets", targets,
		"maxPages", cfg.MaxPages,
		"batchSize", cfg.BatchSize,
	)

	prog := newProgress(stderr)
	processor := batch.NewProcessor(
		spiderFactory(cfg, cls, logger, prog),
		batch.WithConcurrency(cfg.BatchSize),
		batch.WithLogger(logger),
	)

	start := time.Now()
	prog.Start()
	results, batchErr := processor.Process(ctx, targets)
	prog.Stop()

	pages, failed := prog.Counts()
	logger.Info("scan finished",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"fetches", pages,
		"fetchErrors", failed,
	)

	if err := writeReports(ctx, cfg, db, results, logger, stdout, stderr); err != nil {
		return err
	}
	return batchErr
}

// filterRecent drops targets scanned within cfg.SkipRecent.
func filterRecent(ctx context.Context, db *database.ScanDB, cfg *config.Config, stderr io.Writer) ([]string, error) {
	if db == nil || cfg.SkipRecent <= 0 {
		return cfg.Targets, nil
	}

	targets := make([]string, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		recent, err := db.HasRecentScan(ctx, target, cfg.SkipRecent)
		if err != nil {
			return nil, fmt.Errorf("failed to check scan history: %w", err)
		}
		if recent {
			fmt.Fprintf(stderr, "Skipping %s: scanned within %s\n", target, cfg.SkipRecent)
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// spiderFactory builds a Spider per seed with that seed's site settings.
func spiderFactory(cfg *config.Config, cls *classifier.Classifier, logger *slog.Logger, reporter crawler.Reporter) batch.SpiderFactory {
	return func(seed string) (*crawler.Spider, error) {
		site, err := cfg.SiteConfigs.GetSiteConfig(seed)
		if err != nil {
			return nil, fmt.Errorf("site config for %s: %w", seed, err)
		}

		userAgent := cfg.UserAgent
		if site.UserAgent != "" {
			userAgent = site.UserAgent
		}
		maxPages := cfg.MaxPages
		if site.MaxPages > 0 {
			maxPages = min(site.MaxPages, config.MaxMaxPages)
		}

		logger.Debug("site config",
			"seed", seed,
			"maxPages", maxPages,
			"headers", site.Headers,
			"cookie", site.Cookie,
		)

		f := fetcher.New(
			fetcher.WithTimeout(cfg.Timeout),
			fetcher.WithUserAgent(userAgent),
			fetcher.WithMaxBodySize(cfg.MaxBodySize),
			fetcher.WithHeaders(site.Headers),
			fetcher.WithCookie(site.Cookie),
			fetcher.WithLogger(logger),
		)

		return crawler.NewSpider(
			crawler.WithFetcher(f),
			crawler.WithClassifier(cls),
			crawler.WithMaxPages(maxPages),
			crawler.WithIgnorePatterns(site.IgnorePatterns),
			crawler.WithFollowPatterns(site.FollowPatterns),
			crawler.WithReporter(crawler.MultiReporter(crawler.NewLogReporter(logger), reporter)),
		), nil
	}
}

// writeReports outputs every result with at least one page and stores
// finished ones in db. It fails when no seed yielded a page or the output
// is unusable.
func writeReports(
	ctx context.Context,
	cfg *config.Config,
	db *database.ScanDB,
	results []batch.Result,
	logger *slog.Logger,
	stdout, stderr io.Writer,
) error {
	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := newReportWriter(cfg, output)
	produced := 0

	saveDB := db
	if !cfg.SaveToDB {
		saveDB = nil
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stderr, "Scan error for %s: %v\n", r.Seed, r.Err)
		}
		if r.Aggregate == nil || r.Aggregate.Len() == 0 {
			if r.Err == nil {
				fmt.Fprintf(stderr, "No pages crawled for %s\n", r.Seed)
			}
			continue
		}
		produced++

		if _, err := writer.Write(r.Aggregate); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.Seed, err)
		}

		if r.Err != nil {
			// Partial results of an interrupted crawl are not stored.
			continue
		}
		if err := saveScan(ctx, saveDB, r.Aggregate, logger); err != nil {
			logger.Error("failed to save scan", "seed", r.Seed, "error", err)
		}
	}

	if cfg.ReportFile != "" && produced > 0 {
		fmt.Fprintf(stderr, "Report written to %s\n", cfg.ReportFile)
	}
	if produced == 0 && len(results) > 0 {
		return errAllCrawlsFailed
	}
	return nil
}

// openOutput opens path for writing, or returns stdout when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	closeFile := func() {
		_ = f.Close() //nolint:errcheck // Best effort close after writing
	}
	return f, closeFile, nil
}

// newReportWriter selects the report format from cfg.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.TableReport:
		return report.NewTableWriter(output)
	default:
		return report.NewMarkdownWriter(output, report.WithSummary(cfg.Summary))
	}
}

// saveScan stores a finished scan. A nil db is a no-op.
func saveScan(ctx context.Context, db *database.ScanDB, result *model.AggregateResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveScan(ctx, result)
	if err != nil {
		return err
	}

	logger.Info("scan saved to database", "seed", result.SeedURL, "id", id)
	return nil
}

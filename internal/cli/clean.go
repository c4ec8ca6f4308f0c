package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/periodize/internal/cache"
	"github.com/ppiankov/periodize/internal/dataset"
	"github.com/ppiankov/periodize/internal/model"
	"github.com/ppiankov/periodize/internal/pipeline"
	"github.com/ppiankov/periodize/internal/worker"
)

var (
	outPath      string
	summaryPath  string
	dateColumn   string
	separator    string
	concurrency  int
	cleanTimeout time.Duration
	noCache      bool
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean <file|url>",
	Short: "Add normalized dates, timeline years and periods to a CSV dataset",
	Long: `Clean reads a CSV dataset, runs every value of the dating column through
the normalizer, year extraction and period classifier in parallel, and
writes the dataset back with three extra columns:

  date_normalized     cleaned dating text
  year_for_timeline   signed year (negative is BC), empty when unknown
  period_category     historical period label

The input may be a local file or an http(s) URL. Downloads respect
robots.txt, are rate limited per host, retried on transient errors and
cached on disk.

Example:
  periodize clean hermitage.csv
  periodize clean export.csv --sep ";" --column Dating --out clean.csv
  periodize clean https://example.org/open-data/objects.csv --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	// Output flags
	cleanCmd.Flags().StringVarP(&outPath, "out", "o", "", "output CSV path (default: <input>_cleaned.csv)")
	cleanCmd.Flags().StringVar(&summaryPath, "summary", "", "write the run summary as JSON to this path")

	// Dataset flags
	cleanCmd.Flags().StringVar(&dateColumn, "column", "", "dating column name (default: dating)")
	cleanCmd.Flags().StringVar(&separator, "sep", "", `field separator, e.g. ";" or "tab" (default: ",")`)
	cleanCmd.Flags().StringVar(&periodsFile, "periods", "", "YAML period table (default: built-in table)")

	// Execution flags
	cleanCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: number of CPUs)")
	cleanCmd.Flags().DurationVar(&cleanTimeout, "timeout", 0, "abort the run after this long (0: no limit)")
	cleanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the parse memo and download cache")
}

func runClean(cmd *cobra.Command, args []string) error {
	input := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCleanFlags(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if cleanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cleanTimeout)
		defer cancel()
	}

	logger := newLogger(cfg.Output.Verbose)

	sep, err := dataset.ParseSeparator(cfg.Dataset.Separator)
	if err != nil {
		return err
	}

	out := outPath
	if out == "" {
		out = defaultOutPath(input)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Periodize Dataset Cleaning\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", input)
	fmt.Fprintf(os.Stderr, "  Column:       %s\n", cfg.Dataset.DateColumn)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", out)
	if cfg.Periods.File != "" {
		fmt.Fprintf(os.Stderr, "  Periods:      %s\n", cfg.Periods.File)
	}
	fmt.Fprintf(os.Stderr, "\n")

	classifier, err := pipeline.BuildClassifier(cfg.Periods)
	if err != nil {
		return fmt.Errorf("load periods: %w", err)
	}

	table, err := loadTable(ctx, input, sep, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d rows\n", len(table.Rows))

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Cache.Enabled {
		opts = append(opts, pipeline.WithMemo(cache.NewDatingMemo(cfg.Cache.MemoryTTL)))
	}
	p := pipeline.New(classifier, opts...)

	summary, err := dataset.Enrich(ctx, table, p, dataset.EnrichOptions{
		Columns:  dataset.ColumnsFromConfig(cfg.Dataset),
		Workers:  cfg.Concurrency.Workers,
		Progress: progressPrinter(len(table.Rows)),
	})
	if err != nil {
		return fmt.Errorf("enrich: %w", err)
	}

	if err := dataset.WriteFile(out, table, sep); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", out)

	if summaryPath != "" {
		if err := writeSummary(summaryPath, summary); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Failed to write summary: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "✓ Wrote summary: %s\n", summaryPath)
		}
	}

	stats := p.Stats()
	logger.Debug("pipeline stats", "run_id", summary.RunID, "processed", stats.Processed, "memo_hits", stats.MemoHits)

	printSummary(os.Stderr, summary, p.RuleNames())
	return nil
}

// applyCleanFlags lets explicitly set flags win over config and env
func applyCleanFlags(cfg *model.Config) {
	if dateColumn != "" {
		cfg.Dataset.DateColumn = dateColumn
	}
	if separator != "" {
		cfg.Dataset.Separator = separator
	}
	if periodsFile != "" {
		cfg.Periods.File = periodsFile
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}

func isRemote(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// defaultOutPath derives "<name>_cleaned.csv" next to a local input, or in
// the working directory for a URL
func defaultOutPath(input string) string {
	name := input
	if isRemote(input) {
		u, _ := url.Parse(input)
		name = path.Base(u.Path)
		if name == "" || name == "/" || name == "." {
			name = u.Hostname() + ".csv"
		}
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = ".csv"
	}
	return base + "_cleaned" + ext
}

func loadTable(ctx context.Context, input string, sep rune, cfg *model.Config, logger *slog.Logger) (*dataset.Table, error) {
	if !isRemote(input) {
		return dataset.ReadFile(input, sep)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Downloading dataset...\n")
	result, err := newFetcher(cfg, logger).FetchWithRetry(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if result.FromCache {
		fmt.Fprintf(os.Stderr, "✓ Using cached download (%d bytes)\n", len(result.Body))
	} else {
		fmt.Fprintf(os.Stderr, "✓ Downloaded %d bytes\n", len(result.Body))
	}

	return dataset.Read(bytes.NewReader(result.Body), sep)
}

func newFetcher(cfg *model.Config, logger *slog.Logger) *pipeline.Fetcher {
	opts := []pipeline.FetcherOption{
		pipeline.WithAttempts(cfg.HTTP.Attempts),
		pipeline.WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
		pipeline.WithFetchLogger(logger),
	}
	if cfg.Cache.Enabled {
		layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		opts = append(opts, pipeline.WithCache(layered, cfg.Cache.DiskTTL))
	}

	return pipeline.NewFetcher(
		cfg.HTTP.Timeout,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.RespectRobots,
		cfg.HTTP.HTTPProxy,
		cfg.HTTP.HTTPSProxy,
		cfg.HTTP.NoProxy,
		opts...,
	)
}

// progressPrinter reports every tenth of the rows on large datasets
func progressPrinter(total int) worker.ProgressFunc {
	if total < 1000 {
		return nil
	}
	step := total / 10
	return func(done, n int) {
		if done%step == 0 || done == n {
			fmt.Fprintf(os.Stderr, "  Processed %d/%d rows\n", done, n)
		}
	}
}

func writeSummary(path string, s *dataset.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printSummary(w io.Writer, s *dataset.Summary, rules []string) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Cleaning Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Run:       %s\n", s.RunID)
	fmt.Fprintf(w, "  Rows:      %d\n", s.Rows)
	fmt.Fprintf(w, "  Dated:     %d (%.1f%%)\n", s.Parsed, 100*s.ParsedRatio())
	fmt.Fprintf(w, "  Unknown:   %d\n", s.Unknown)
	fmt.Fprintf(w, "  Time:      %v\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")

	// Patterns in cascade order, skipping those that never fired
	if s.Parsed > 0 {
		fmt.Fprintf(w, "  Patterns:\n")
		for _, name := range rules {
			if n := s.Rules[name]; n > 0 {
				fmt.Fprintf(w, "    %6d  %s\n", n, name)
			}
		}
		fmt.Fprintf(w, "\n")
	}

	if len(s.Periods) == 0 {
		return
	}
	fmt.Fprintf(w, "  Periods:\n")
	for _, pc := range s.Periods {
		fmt.Fprintf(w, "    %6d  %s\n", pc.Count, pc.Period)
	}
	fmt.Fprintf(w, "\n")
}

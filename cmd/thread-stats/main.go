package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
	"github.com/theimaginaryfoundation/thread-stats/analysis/export"
	"github.com/theimaginaryfoundation/thread-stats/analysis/ingest"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	level, _ := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := run(ctx, cfg, os.Stdout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "threads=%d messages=%d conversations=%d csv_files=%d report=%s activity=%s\n",
		st.Threads, st.Messages, st.Conversations, st.CSVFiles, st.ReportPath, st.ActivityPath)
}

type runStats struct {
	Threads       int
	Messages      int
	Conversations int
	CSVFiles      int
	ReportPath    string
	ActivityPath  string
}

func run(ctx context.Context, cfg Config, stdout io.Writer, logger *slog.Logger) (runStats, error) {
	var st runStats

	names, err := ingest.LoadNames(cfg.NamesPath)
	if err != nil {
		return st, err
	}
	loc, err := cfg.location()
	if err != nil {
		return st, err
	}
	format, err := ingest.ParseFormat(cfg.Format)
	if err != nil {
		return st, err
	}

	started := time.Now()
	threads, format, err := ingest.Load(ctx, cfg.InPath, format, ingest.Options{
		Names:    names,
		Owner:    cfg.Owner,
		Location: loc,
	})
	if err != nil {
		return st, err
	}
	logger.Info("loaded export", "path", cfg.InPath, "format", format, "threads", len(threads), "elapsed", time.Since(started).Round(time.Millisecond))

	opts, err := cfg.analysisOptions(format)
	if err != nil {
		return st, err
	}
	res, err := analysis.Run(threads, opts)
	if err != nil {
		return st, err
	}
	st.Threads = len(res.Threads)
	for _, t := range res.Threads {
		st.Messages += len(t.Messages)
		st.Conversations += len(t.Conversations)
		logger.Debug("thread analyzed", "index", t.Index, "label", analysis.ThreadLabel(t), "messages", len(t.Messages), "conversations", len(t.Conversations))
	}
	logger.Info("analysis done", "threads", st.Threads, "messages", st.Messages, "conversations", st.Conversations, "dedupe", opts.Dedupe)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return st, fmt.Errorf("mkdir -out: %w", err)
	}

	st.CSVFiles, err = export.WriteThreadCSVs(filepath.Join(cfg.OutDir, "csv"), res.Threads, cfg.Overwrite)
	if err != nil {
		return st, err
	}
	logger.Info("wrote interval csv files", "count", st.CSVFiles)

	if cfg.ActivityMember != "" {
		member := names.Resolve(cfg.ActivityMember)
		series, err := analysis.ActivitySeries(res.Threads, res.Global, member, analysis.ActivityMetric(cfg.ActivityMetric), cfg.Threshold, cfg.MovingAverage)
		if err != nil {
			return st, err
		}
		if res.Global == nil || len(series) == 0 {
			logger.Warn("no activity series above threshold", "member", member, "metric", cfg.ActivityMetric, "threshold", cfg.Threshold)
		} else {
			name := fmt.Sprintf("activity.%s.%s.csv", export.SanitizeFilenameComponent(member), cfg.ActivityMetric)
			st.ActivityPath = filepath.Join(cfg.OutDir, name)
			if err := export.WriteSeriesFile(st.ActivityPath, res.Global, series, cfg.Overwrite); err != nil {
				return st, err
			}
			logger.Info("wrote activity series", "path", st.ActivityPath, "series", len(series))
		}
	}

	st.ReportPath = filepath.Join(cfg.OutDir, "report.json")
	if !cfg.Overwrite {
		if _, err := os.Stat(st.ReportPath); err == nil {
			return st, fmt.Errorf("output file already exists: %s", st.ReportPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return st, fmt.Errorf("stat report: %w", err)
		}
	}
	report := export.NewReport(res, cfg.InPath, string(format), time.Now())
	if err := export.WriteReport(st.ReportPath, report, cfg.Pretty); err != nil {
		return st, fmt.Errorf("write report: %w", err)
	}
	logger.Info("wrote report", "path", st.ReportPath, "run_id", report.RunID)

	if !cfg.Quiet {
		if err := export.WriteSummary(stdout, res); err != nil {
			return st, fmt.Errorf("write summary: %w", err)
		}
	}
	return st, nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	return parseConfig(fs, args, nil)
}

// parseConfig applies defaults, then environ (nil = process environment), then flags.
func parseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	cfg := defaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}
	fs.SetOutput(os.Stderr)

	var flagMarkers []string
	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Messenger export: JSON inbox directory or legacy messages.htm")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Input format: auto|json|html (auto: directory=json, file=html)")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Output directory for report.json, csv/ and activity CSV")
	fs.StringVar(&cfg.NamesPath, "names", cfg.NamesPath, "Optional JSON file mapping display names to canonical ids")
	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "Export owner, appended to JSON thread members")
	fs.StringVar(&cfg.TZ, "tz", cfg.TZ, "IANA time zone for calendar dates (default: local)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	fs.IntVar(&cfg.TopWords, "top-words", cfg.TopWords, "Number of top words kept per member (>= 1)")
	fs.Func("marker", "Content marker name=substring, case-insensitive (repeatable)", func(s string) error {
		flagMarkers = append(flagMarkers, s)
		return nil
	})
	fs.StringVar(&cfg.Emoji, "emoji", cfg.Emoji, "Comma-separated emoji to count monthly (empty = built-in set, none = disable)")
	fs.BoolVar(&cfg.FilterStopWords, "filter-stop-words", cfg.FilterStopWords, "Drop stop words from top-words lists")
	fs.StringVar(&cfg.Dedupe, "dedupe", cfg.Dedupe, "Merge threads with identical members: auto|true|false (auto: html only)")
	fs.StringVar(&cfg.ActivityMember, "activity-member", cfg.ActivityMember, "Member for the global activity series CSV (empty disables)")
	fs.StringVar(&cfg.ActivityMetric, "activity-metric", cfg.ActivityMetric, "Activity series metric: messages|words")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "Minimum member total for a thread to get an activity series")
	fs.IntVar(&cfg.MovingAverage, "moving-average", cfg.MovingAverage, "Moving-average window in days")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Pretty-print report.json")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Overwrite existing output files")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Skip the terminal summary")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if len(flagMarkers) > 0 {
		cfg.Markers = flagMarkers
	}
	cfg.InPath = filepath.Clean(cfg.InPath)
	cfg.OutDir = filepath.Clean(cfg.OutDir)
	if cfg.NamesPath != "" {
		cfg.NamesPath = filepath.Clean(cfg.NamesPath)
	}
	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log-level must be debug|info|warn|error, got %q", s)
	}
}

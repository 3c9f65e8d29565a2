package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theimaginaryfoundation/thread-stats/analysis/ingest"
)

func TestParseConfig_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("thread-stats", flag.ContinueOnError)
	cfg, err := parseConfig(fs, []string{
		"-in", "export/inbox",
		"-out", "out/stats/",
		"-format", "json",
		"-top-words", "25",
		"-marker", "alice=@alice",
		"-marker", "haha",
		"-dedupe", "true",
		"-activity-member", "alice",
		"-activity-metric", "words",
		"-threshold", "10",
		"-moving-average", "7",
		"-pretty",
		"-overwrite",
	}, map[string]string{})
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.InPath != filepath.Clean("export/inbox") || cfg.OutDir != filepath.Clean("out/stats") {
		t.Fatalf("InPath=%q OutDir=%q", cfg.InPath, cfg.OutDir)
	}
	if cfg.TopWords != 25 || cfg.Threshold != 10 || cfg.MovingAverage != 7 {
		t.Fatalf("TopWords=%d Threshold=%d MovingAverage=%d", cfg.TopWords, cfg.Threshold, cfg.MovingAverage)
	}
	if len(cfg.Markers) != 2 || cfg.Markers[1] != "haha" {
		t.Fatalf("Markers=%v", cfg.Markers)
	}
	if !cfg.Pretty || !cfg.Overwrite {
		t.Fatalf("Pretty=%v Overwrite=%v", cfg.Pretty, cfg.Overwrite)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseConfig_EnvThenFlags(t *testing.T) {
	t.Parallel()

	environ := map[string]string{
		"THREAD_STATS_OWNER":     "Me",
		"THREAD_STATS_TZ":        "Europe/Stockholm",
		"THREAD_STATS_MARKERS":   "a=x,b=y",
		"THREAD_STATS_LOG_LEVEL": "debug",
	}
	fs := flag.NewFlagSet("thread-stats", flag.ContinueOnError)
	cfg, err := parseConfig(fs, []string{"-owner", "Flag Owner"}, environ)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Owner != "Flag Owner" {
		t.Fatalf("Owner=%q, flag should win", cfg.Owner)
	}
	if cfg.TZ != "Europe/Stockholm" || cfg.LogLevel != "debug" {
		t.Fatalf("TZ=%q LogLevel=%q", cfg.TZ, cfg.LogLevel)
	}
	if len(cfg.Markers) != 2 || cfg.Markers[0] != "a=x" {
		t.Fatalf("Markers=%v", cfg.Markers)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"format":         func(c *Config) { c.Format = "xml" },
		"dedupe":         func(c *Config) { c.Dedupe = "maybe" },
		"metric":         func(c *Config) { c.ActivityMetric = "emoji" },
		"moving average": func(c *Config) { c.MovingAverage = 0 },
		"marker":         func(c *Config) { c.Markers = []string{"=x"} },
		"tz":             func(c *Config) { c.TZ = "Mars/Olympus" },
		"log level":      func(c *Config) { c.LogLevel = "loud" },
		"top words":      func(c *Config) { c.TopWords = -1 },
		"zero top words": func(c *Config) { c.TopWords = 0 },
	}
	for name, mutate := range cases {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestConfigDedupeAndEmoji(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if cfg.dedupe(ingest.FormatJSON) || !cfg.dedupe(ingest.FormatHTML) {
		t.Fatalf("auto dedupe should be html only")
	}
	cfg.Dedupe = "true"
	if !cfg.dedupe(ingest.FormatJSON) {
		t.Fatalf("explicit dedupe ignored")
	}
	if cfg.emoji() != nil {
		t.Fatalf("unset emoji should use defaults")
	}
	cfg.Emoji = "none"
	if e := cfg.emoji(); e == nil || len(e) != 0 {
		t.Fatalf("none=%v", e)
	}
	cfg.Emoji = " , ,"
	if e := cfg.emoji(); e == nil || len(e) != 0 {
		t.Fatalf("separators only=%v, want empty non-nil", e)
	}
	cfg.Emoji = ":D, <3"
	if e := cfg.emoji(); len(e) != 2 || e[1] != "<3" {
		t.Fatalf("emoji=%v", e)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRun_JSONExport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	writeFile(t, filepath.Join(inbox, "friends", "message_1.json"), `{
		"title": "Friends",
		"participants": [{"name": "Alice"}, {"name": "Bob"}],
		"messages": [
			{"sender_name": "Alice", "timestamp_ms": 1483430400000, "content": "hej @me"},
			{"sender_name": "Me", "timestamp_ms": 1483430460000, "content": "hej hej"},
			{"sender_name": "Bob", "timestamp_ms": 1483603200000, "content": "later"}
		]
	}`)

	cfg := defaultConfig()
	cfg.InPath = inbox
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.Owner = "Me"
	cfg.TZ = "UTC"
	cfg.Markers = []string{"me=@me"}
	cfg.ActivityMember = "Me"
	cfg.Threshold = 0
	cfg.MovingAverage = 2
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var stdout bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := run(context.Background(), cfg, &stdout, logger)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Threads != 1 || st.Messages != 3 || st.Conversations != 2 {
		t.Fatalf("stats=%+v", st)
	}
	if st.CSVFiles != 8 {
		t.Fatalf("CSVFiles=%d, want 8", st.CSVFiles)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutDir, "report.json")); err != nil {
		t.Fatalf("report: %v", err)
	}
	b, err := os.ReadFile(st.ActivityPath)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if !strings.HasPrefix(string(b), "Date,Friends\n2017-01-03,1.0000\n") {
		t.Fatalf("activity csv=%q", string(b))
	}
	if !strings.Contains(stdout.String(), "Friends") {
		t.Fatalf("summary=%q", stdout.String())
	}

	if _, err := run(context.Background(), cfg, io.Discard, logger); err == nil {
		t.Fatalf("expected error on second run without -overwrite")
	}
	cfg.Overwrite = true
	if _, err := run(context.Background(), cfg, io.Discard, logger); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
}

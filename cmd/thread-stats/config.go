package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
	"github.com/theimaginaryfoundation/thread-stats/analysis/ingest"
)

type Config struct {
	InPath    string
	Format    string
	OutDir    string
	NamesPath string `env:"THREAD_STATS_NAMES"`
	Owner     string `env:"THREAD_STATS_OWNER"`
	TZ        string `env:"THREAD_STATS_TZ"`
	LogLevel  string `env:"THREAD_STATS_LOG_LEVEL"`

	TopWords        int
	Markers         []string `env:"THREAD_STATS_MARKERS" envSeparator:","`
	Emoji           string
	FilterStopWords bool
	Dedupe          string

	ActivityMember string
	ActivityMetric string
	Threshold      int
	MovingAverage  int

	Pretty    bool
	Overwrite bool
	Quiet     bool
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if _, err := ingest.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.TopWords < 1 {
		return errors.New("top-words must be >= 1")
	}
	if _, err := c.markers(); err != nil {
		return err
	}
	switch c.Dedupe {
	case "auto", "true", "false":
	default:
		return fmt.Errorf("dedupe must be auto|true|false, got %q", c.Dedupe)
	}
	switch analysis.ActivityMetric(c.ActivityMetric) {
	case analysis.ActivityMessages, analysis.ActivityWords:
	default:
		return fmt.Errorf("activity-metric must be messages|words, got %q", c.ActivityMetric)
	}
	if c.Threshold < 0 {
		return errors.New("threshold must be >= 0")
	}
	if c.MovingAverage < 1 {
		return errors.New("moving-average must be >= 1")
	}
	if _, err := c.location(); err != nil {
		return err
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InPath:         filepath.FromSlash("messages/inbox"),
		Format:         string(ingest.FormatAuto),
		OutDir:         filepath.FromSlash("out/thread-stats"),
		LogLevel:       "info",
		TopWords:       analysis.DefaultTopWords,
		Dedupe:         "auto",
		ActivityMetric: string(analysis.ActivityMessages),
		Threshold:      1000,
		MovingAverage:  50,
	}
}

func (c Config) markers() ([]analysis.Marker, error) {
	var out []analysis.Marker
	for _, s := range c.Markers {
		if strings.TrimSpace(s) == "" {
			continue
		}
		m, err := analysis.ParseMarker(s)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (c Config) location() (*time.Location, error) {
	if c.TZ == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("bad -tz %q: %w", c.TZ, err)
	}
	return loc, nil
}

// emoji returns nil (defaults) when unset and an empty slice for "none" or a list with no entries.
func (c Config) emoji() []string {
	switch strings.TrimSpace(c.Emoji) {
	case "":
		return nil
	case "none":
		return []string{}
	}
	out := []string{}
	for _, e := range strings.Split(c.Emoji, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// dedupe resolves "auto" against the format that was actually loaded.
func (c Config) dedupe(format ingest.Format) bool {
	switch c.Dedupe {
	case "true":
		return true
	case "false":
		return false
	default:
		return format == ingest.FormatHTML
	}
}

func (c Config) analysisOptions(format ingest.Format) (analysis.Options, error) {
	markers, err := c.markers()
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		Dedupe:          c.dedupe(format),
		TopWords:        c.TopWords,
		Markers:         markers,
		Emoji:           c.emoji(),
		FilterStopWords: c.FilterStopWords,
	}, nil
}

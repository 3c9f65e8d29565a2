package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

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
	Dedupe    string

	Model              string
	APIKey             string `env:"OPENAI_API_KEY"`
	Limit              int
	MinMessages        int
	MaxTranscriptChars int
	MaxThreads         int
	Concurrency        int

	Pretty    bool
	Overwrite bool
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if _, err := ingest.ParseFormat(c.Format); err != nil {
		return err
	}
	switch c.Dedupe {
	case "auto", "true", "false":
	default:
		return fmt.Errorf("dedupe must be auto|true|false, got %q", c.Dedupe)
	}
	if c.Limit < 0 {
		return errors.New("limit must be >= 0")
	}
	if c.MinMessages < 0 {
		return errors.New("min-messages must be >= 0")
	}
	if c.MaxTranscriptChars < 0 {
		return errors.New("max-transcript-chars must be >= 0")
	}
	if c.MaxThreads < 0 {
		return errors.New("max-threads must be >= 0")
	}
	if c.Concurrency < 0 {
		return errors.New("concurrency must be >= 0")
	}
	if c.TZ != "" {
		if _, err := time.LoadLocation(c.TZ); err != nil {
			return fmt.Errorf("bad -tz %q: %w", c.TZ, err)
		}
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InPath:             filepath.FromSlash("messages/inbox"),
		Format:             string(ingest.FormatAuto),
		OutDir:             filepath.FromSlash("out/digests"),
		LogLevel:           "info",
		Dedupe:             "auto",
		Model:              "gpt-5-mini",
		Limit:              10,
		MinMessages:        20,
		MaxTranscriptChars: 40_000,
		Concurrency:        4,
	}
}

func (c Config) location() *time.Location {
	if c.TZ == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) dedupe(format ingest.Format) bool {
	switch strings.ToLower(c.Dedupe) {
	case "true":
		return true
	case "false":
		return false
	default:
		return format == ingest.FormatHTML
	}
}

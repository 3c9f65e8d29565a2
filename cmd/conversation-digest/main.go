package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/sync/errgroup"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
	"github.com/theimaginaryfoundation/thread-stats/analysis/fileutils"
	"github.com/theimaginaryfoundation/thread-stats/analysis/ingest"
	"github.com/theimaginaryfoundation/thread-stats/analysis/provider"
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
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	level, _ := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	digester := openAIConversationDigester{
		client:             &client,
		model:              cfg.Model,
		maxTranscriptChars: cfg.MaxTranscriptChars,
	}

	st, err := run(ctx, cfg, digester, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "threads_digested=%d threads_skipped=%d conversations_digested=%d digests_out=%s\n",
		st.Written, st.Skipped, st.Conversations, cfg.OutDir)
}

// DigestFile is the per-thread output document.
type DigestFile struct {
	ThreadIndex int                           `json:"thread_index"`
	ThreadTitle string                        `json:"thread_title,omitempty"`
	Members     []string                      `json:"members"`
	Model       string                        `json:"model"`
	GeneratedAt time.Time                     `json:"generated_at"`
	Digests     []analysis.ConversationDigest `json:"digests"`
}

type digestStats struct {
	Written       int64
	Skipped       int64
	Conversations int64
}

func run(ctx context.Context, cfg Config, d analysis.Digester, logger *slog.Logger) (digestStats, error) {
	var st digestStats

	names, err := ingest.LoadNames(cfg.NamesPath)
	if err != nil {
		return st, err
	}
	format, err := ingest.ParseFormat(cfg.Format)
	if err != nil {
		return st, err
	}
	threads, format, err := ingest.Load(ctx, cfg.InPath, format, ingest.Options{
		Names:    names,
		Owner:    cfg.Owner,
		Location: cfg.location(),
	})
	if err != nil {
		return st, err
	}
	res, err := analysis.Run(threads, analysis.Options{Dedupe: cfg.dedupe(format)})
	if err != nil {
		return st, err
	}
	logger.Info("segmented export", "path", cfg.InPath, "format", format, "threads", len(res.Threads))

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return st, fmt.Errorf("mkdir -out: %w", err)
	}

	todo := res.Threads
	if cfg.MaxThreads > 0 && len(todo) > cfg.MaxThreads {
		todo = todo[:cfg.MaxThreads]
	}
	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = 1
	}

	opts := analysis.DigestOptions{Limit: cfg.Limit, MinMessages: cfg.MinMessages}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, t := range todo {
		t := t
		if len(analysis.SelectConversations(t.Conversations, opts)) == 0 {
			continue
		}
		g.Go(func() error {
			outPath := digestOutPath(cfg.OutDir, t.Index)
			if !cfg.Overwrite && fileutils.FileExists(outPath) {
				atomic.AddInt64(&st.Skipped, 1)
				logger.Debug("digest exists, skipping", "thread", t.Index, "path", outPath)
				return nil
			}

			digests, err := analysis.DigestThread(gctx, t, d, opts)
			if err != nil {
				return err
			}
			doc := DigestFile{
				ThreadIndex: t.Index,
				ThreadTitle: t.Title,
				Members:     t.Members,
				Model:       cfg.Model,
				GeneratedAt: time.Now().UTC(),
				Digests:     digests,
			}
			if err := fileutils.WriteJSONFileAtomic(outPath, doc, cfg.Pretty); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			atomic.AddInt64(&st.Written, 1)
			atomic.AddInt64(&st.Conversations, int64(len(digests)))
			logger.Info("digested thread", "thread", t.Index, "label", analysis.ThreadLabel(t), "conversations", len(digests))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return st, err
	}
	return st, nil
}

func digestOutPath(outDir string, threadIndex int) string {
	return filepath.Join(outDir, fmt.Sprintf("thread_%d.digest.json", threadIndex))
}

type openAIConversationDigester struct {
	client             *openai.Client
	model              string
	maxTranscriptChars int
}

var digestSchema = provider.GenerateSchema[analysis.DigestText]()

func (d openAIConversationDigester) DigestConversation(ctx context.Context, thread analysis.Thread, conv analysis.Conversation) (analysis.DigestText, error) {
	if d.client == nil {
		return analysis.DigestText{}, errors.New("openAIConversationDigester: client is nil")
	}
	if d.model == "" {
		return analysis.DigestText{}, errors.New("openAIConversationDigester: model is empty")
	}

	req := provider.StructuredRequest{
		Model:        d.model,
		Instructions: conversationDigestPrompt,
		Input:        buildDigestInput(thread, conv, d.maxTranscriptChars),
		SchemaName:   "ConversationDigest",
		Description:  "Conversation digest JSON",
		Schema:       digestSchema,
		MaxOutput:    1200,
	}
	resp, err := provider.CallWithRetry(ctx, d.client, req.Params())
	if err != nil {
		return analysis.DigestText{}, err
	}

	var out analysis.DigestText
	if err := fileutils.DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return analysis.DigestText{}, fmt.Errorf("decode digest: %w", err)
	}
	return out, nil
}

func buildDigestInput(thread analysis.Thread, conv analysis.Conversation, maxChars int) string {
	var b strings.Builder
	if thread.Title != "" {
		fmt.Fprintf(&b, "Thread: %s\n", thread.Title)
	}
	fmt.Fprintf(&b, "Thread members: %s\n", strings.Join(thread.Members, ", "))
	fmt.Fprintf(&b, "Participants: %s\n", strings.Join(conv.Members, ", "))
	fmt.Fprintf(&b, "Messages: %d\n\n", len(conv.Messages))
	b.WriteString(analysis.RenderTranscript(conv, maxChars))
	return b.String()
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

	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Messenger export: JSON inbox directory or legacy messages.htm")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Input format: auto|json|html")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Output directory for thread_<index>.digest.json files")
	fs.StringVar(&cfg.NamesPath, "names", cfg.NamesPath, "Optional JSON file mapping display names to canonical ids")
	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "Export owner, appended to JSON thread members")
	fs.StringVar(&cfg.TZ, "tz", cfg.TZ, "IANA time zone for transcript times (default: local)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	fs.StringVar(&cfg.Dedupe, "dedupe", cfg.Dedupe, "Merge threads with identical members: auto|true|false")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model to use (e.g. gpt-5-mini)")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "Largest conversations digested per thread (0 = all)")
	fs.IntVar(&cfg.MinMessages, "min-messages", cfg.MinMessages, "Skip conversations with fewer messages")
	fs.IntVar(&cfg.MaxTranscriptChars, "max-transcript-chars", cfg.MaxTranscriptChars, "Transcript size cap per conversation (0 = unbounded)")
	fs.IntVar(&cfg.MaxThreads, "max-threads", cfg.MaxThreads, "Process only the first N threads (0 = all)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Max threads digested concurrently")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Pretty-print digest JSON files")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Re-digest threads whose output already exists")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
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

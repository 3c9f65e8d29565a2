package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
)

type rawThread struct {
	Title        string            `json:"title"`
	Participants []json.RawMessage `json:"participants"`
	Messages     []rawMessage      `json:"messages"`
}

type rawMessage struct {
	SenderName  string   `json:"sender_name"`
	TimestampMS *int64   `json:"timestamp_ms"`
	Timestamp   *float64 `json:"timestamp"`
	Content     *string  `json:"content"`
}

// LoadJSONDir reads a Messenger JSON export: one sub-directory per thread, each holding message.json or
// split message_1.json, message_2.json, ... parts whose messages are concatenated.
func LoadJSONDir(ctx context.Context, dir string, opts Options) ([]analysis.Thread, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadJSONDir: read dir: %w", err)
	}

	owner := opts.Names.Resolve(opts.Owner)
	var threads []analysis.Thread
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || name == "stickers_used" {
			continue
		}
		files, err := threadFiles(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			continue
		}

		t := analysis.Thread{Index: len(threads)}
		for i, f := range files {
			part, err := readThreadFile(f, opts)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				t.Title = part.Title
				t.Members = part.Members
			}
			t.Messages = append(t.Messages, part.Messages...)
		}
		t.Members = appendOwner(t.Members, owner)
		threads = append(threads, t)
	}
	return threads, nil
}

// threadFiles lists message.json and message_N.json in dir, message.json first, parts by number.
func threadFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadJSONDir: read thread dir: %w", err)
	}

	type part struct {
		n    int
		path string
	}
	var parts []part
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == "message.json" {
			parts = append(parts, part{n: -1, path: filepath.Join(dir, name)})
			continue
		}
		if !strings.HasPrefix(name, "message_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "message_"), ".json"))
		if err != nil {
			continue
		}
		parts = append(parts, part{n: n, path: filepath.Join(dir, name)})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.path)
	}
	return out, nil
}

func readThreadFile(path string, opts Options) (analysis.Thread, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return analysis.Thread{}, fmt.Errorf("LoadJSONDir: read %s: %w", path, err)
	}
	var raw rawThread
	if err := json.Unmarshal(b, &raw); err != nil {
		return analysis.Thread{}, fmt.Errorf("LoadJSONDir: unmarshal %s: %w", path, err)
	}

	t := analysis.Thread{Title: raw.Title}
	for i, p := range raw.Participants {
		name, err := participantName(p)
		if err != nil {
			return analysis.Thread{}, fmt.Errorf("LoadJSONDir: %s: participant %d: %w", path, i, err)
		}
		t.Members = append(t.Members, opts.Names.Resolve(name))
	}

	loc := opts.location()
	t.Messages = make([]analysis.Message, 0, len(raw.Messages))
	for i, m := range raw.Messages {
		ts, ok := m.time()
		if !ok {
			return analysis.Thread{}, fmt.Errorf("LoadJSONDir: %s: message %d: %w: missing timestamp", path, i, analysis.ErrInvalidInput)
		}
		content := ""
		if m.Content != nil {
			content = *m.Content
		}
		t.Messages = append(t.Messages, analysis.Message{
			Timestamp: ts.In(loc),
			Sender:    opts.Names.Resolve(m.SenderName),
			Content:   content,
		})
	}
	return t, nil
}

// participantName accepts both "Name" and {"name": "Name"}.
func participantName(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}
	return obj.Name, nil
}

func (m rawMessage) time() (time.Time, bool) {
	switch {
	case m.TimestampMS != nil:
		return time.UnixMilli(*m.TimestampMS), true
	case m.Timestamp != nil:
		sec, frac := math.Modf(*m.Timestamp)
		return time.Unix(int64(sec), int64(frac*1e9)), true
	default:
		return time.Time{}, false
	}
}

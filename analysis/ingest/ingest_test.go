package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadJSONDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "friends_abc", "message_2.json"), `{
		"title": "Friends",
		"participants": [{"name": "Bob B"}],
		"messages": [{"sender_name": "Bob B", "timestamp_ms": 1483430400000, "content": "second part"}]
	}`)
	writeFile(t, filepath.Join(dir, "friends_abc", "message_1.json"), `{
		"title": "Friends",
		"participants": [{"name": "Alice A"}, {"name": "Bob B"}],
		"messages": [
			{"sender_name": "Alice A", "timestamp_ms": 1483520400000, "content": "hej"},
			{"sender_name": "Bob B", "timestamp_ms": 1483520460000}
		]
	}`)
	writeFile(t, filepath.Join(dir, "old_thread", "message.json"), `{
		"participants": ["Carl"],
		"messages": [{"sender_name": "Carl", "timestamp": 1483430400.5, "content": "legacy"}]
	}`)
	writeFile(t, filepath.Join(dir, "stickers_used", "message.json"), `{}`)
	writeFile(t, filepath.Join(dir, ".DS_Store", "message.json"), `{}`)
	writeFile(t, filepath.Join(dir, "empty", "photo.jpg"), "x")

	opts := Options{
		Names:    Names{"Alice A": "alice", "Bob B": "bob"},
		Owner:    "Me",
		Location: time.UTC,
	}
	threads, err := LoadJSONDir(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("LoadJSONDir: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("threads=%d, want 2", len(threads))
	}

	fr := threads[0]
	if fr.Title != "Friends" || fr.Index != 0 {
		t.Fatalf("title=%q index=%d", fr.Title, fr.Index)
	}
	if strings.Join(fr.Members, ",") != "alice,bob,Me" {
		t.Fatalf("members=%v", fr.Members)
	}
	if len(fr.Messages) != 3 {
		t.Fatalf("messages=%d, want 3", len(fr.Messages))
	}
	if fr.Messages[0].Sender != "alice" || fr.Messages[2].Content != "second part" {
		t.Fatalf("message order=%+v", fr.Messages)
	}
	if fr.Messages[1].Content != "" {
		t.Fatalf("missing content=%q, want empty", fr.Messages[1].Content)
	}
	if fr.Messages[0].Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp not projected into location")
	}

	old := threads[1]
	if strings.Join(old.Members, ",") != "Carl,Me" {
		t.Fatalf("legacy members=%v", old.Members)
	}
	if got := old.Messages[0].Timestamp.UnixMilli(); got != 1483430400500 {
		t.Fatalf("seconds timestamp=%d", got)
	}
}

func TestLoadJSONDir_MissingTimestamp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "t", "message.json"), `{"participants":["A"],"messages":[{"sender_name":"A","content":"x"}]}`)
	_, err := LoadJSONDir(context.Background(), dir, Options{})
	if !errors.Is(err, analysis.ErrInvalidInput) {
		t.Fatalf("err=%v, want ErrInvalidInput", err)
	}
}

const legacyHTML = `<html><body>
<div class="contents"><h1>Messages</h1>
<div class="thread">Alice A, Bob B
<div class="message"><div class="message_header"><span class="user">Bob B</span><span class="meta">Wednesday, January 4, 2017 at 10:05am UTC+01</span></div></div>
<p>sent <b>later</b></p>
<div class="message"><div class="message_header"><span class="user">Alice A</span><span class="meta">Tuesday, January 3, 2017 at 9:15PM UTC+01</span></div></div>
<p>first<br>line</p>
</div>
<div class="thread">Alice A, Carl
<div class="message"><div class="message_header"><span class="user">Carl</span><span class="meta">Monday, January 2, 2017 at 8:00am UTC</span></div></div>
<p>hi &amp; bye</p>
</div>
</div></body></html>`

func TestParseHTML(t *testing.T) {
	t.Parallel()

	threads, err := ParseHTML(context.Background(), strings.NewReader(legacyHTML), Options{
		Names:    Names{"Alice A": "alice"},
		Owner:    "ignored",
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("threads=%d, want 2", len(threads))
	}

	first := threads[0]
	if strings.Join(first.Members, ",") != "alice,Bob B" {
		t.Fatalf("members=%v", first.Members)
	}
	if len(first.Messages) != 2 {
		t.Fatalf("messages=%d, want 2", len(first.Messages))
	}
	m0 := first.Messages[0]
	if m0.Sender != "Bob B" || m0.Content != "sent later" {
		t.Fatalf("message 0=%+v", m0)
	}
	if want := time.Date(2017, time.January, 4, 9, 5, 0, 0, time.UTC); !m0.Timestamp.Equal(want) {
		t.Fatalf("timestamp=%v, want %v", m0.Timestamp, want)
	}
	if first.Messages[1].Content != "firstline" || first.Messages[1].Sender != "alice" {
		t.Fatalf("message 1=%+v", first.Messages[1])
	}

	second := threads[1]
	if second.Index != 1 || strings.Join(second.Members, ",") != "alice,Carl" {
		t.Fatalf("second thread=%+v", second)
	}
	if second.Messages[0].Content != "hi & bye" {
		t.Fatalf("content=%q", second.Messages[0].Content)
	}
}

func TestParseMetaDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Time
	}{
		{"Tuesday, January 3, 2017 at 9:15pm UTC+01", time.Date(2017, time.January, 3, 20, 15, 0, 0, time.UTC)},
		{"Tuesday, January 3, 2017 at 9:15PM UTC-05:30", time.Date(2017, time.January, 4, 2, 45, 0, 0, time.UTC)},
		{"Tuesday, January 3, 2017 at 12:01am UTC", time.Date(2017, time.January, 3, 0, 1, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseMetaDate(tc.in)
		if err != nil {
			t.Fatalf("ParseMetaDate(%q): %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseMetaDate(%q)=%v, want %v", tc.in, got.UTC(), tc.want)
		}
	}
	for _, bad := range []string{"January 3, 2017", "Tuesday, January 3, 2017 at 9:15pm UTC+1x"} {
		if _, err := ParseMetaDate(bad); err == nil {
			t.Fatalf("ParseMetaDate(%q) expected error", bad)
		}
	}
}

func TestLoadNamesAndResolve(t *testing.T) {
	t.Parallel()

	n, err := LoadNames("")
	if err != nil || len(n) != 0 {
		t.Fatalf("empty path: %v %v", n, err)
	}

	p := filepath.Join(t.TempDir(), "names.json")
	writeFile(t, p, `{"Alice A": "alice"}`)
	n, err = LoadNames(p)
	if err != nil {
		t.Fatalf("LoadNames: %v", err)
	}
	if n.Resolve(" Alice A ") != "alice" || n.Resolve("Bob") != "Bob" {
		t.Fatalf("Resolve mismatch: %v", n)
	}
}

func TestParseFormatAndLoad(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatAuto, "JSON": FormatJSON, " html ": FormatHTML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}

	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "messages.htm")
	writeFile(t, htmlPath, legacyHTML)
	threads, format, err := Load(context.Background(), htmlPath, FormatAuto, Options{Location: time.UTC})
	if err != nil || format != FormatHTML || len(threads) != 2 {
		t.Fatalf("Load html: format=%q threads=%d err=%v", format, len(threads), err)
	}

	inbox := filepath.Join(dir, "inbox")
	writeFile(t, filepath.Join(inbox, "t", "message.json"), `{"participants":["A"],"messages":[]}`)
	threads, format, err = Load(context.Background(), inbox, FormatAuto, Options{})
	if err != nil || format != FormatJSON || len(threads) != 1 {
		t.Fatalf("Load json: format=%q threads=%d err=%v", format, len(threads), err)
	}
}

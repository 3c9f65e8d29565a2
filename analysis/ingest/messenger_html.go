package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
)

// LoadHTMLFile reads a legacy Messenger messages.htm export. Threads come back in document order, which for
// these exports is newest first and may list one member set several times; see analysis.GroupThreads.
func LoadHTMLFile(ctx context.Context, path string, opts Options) ([]analysis.Thread, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadHTMLFile: open input: %w", err)
	}
	defer f.Close()

	threads, err := ParseHTML(ctx, bufio.NewReaderSize(f, 1<<20), opts)
	if err != nil {
		return nil, fmt.Errorf("LoadHTMLFile: %w", err)
	}
	return threads, nil
}

type htmlField int

const (
	fieldNone htmlField = iota
	fieldMembers
	fieldSender
	fieldDate
	fieldContent
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

type htmlParser struct {
	opts    Options
	threads []analysis.Thread
	cur     *analysis.Thread
	next    htmlField
	depth   int
}

// ParseHTML streams a legacy export.
//
// A class="thread" element opens a thread whose first text is its comma separated member list. Inside it,
// class="message" opens a message, class="user" text is the sender, class="meta" text is the date and
// <p> text is the content. The thread closes with the end tag that takes nesting below its own element.
func ParseHTML(ctx context.Context, r io.Reader, opts Options) ([]analysis.Thread, error) {
	p := &htmlParser{opts: opts}
	z := html.NewTokenizer(r)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return p.threads, nil
			}
			return nil, z.Err()
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if !voidElements[tag] {
				p.depth++
			}
			p.startTag(tag, classes(z, hasAttr))
		case html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			p.startTag(string(name), classes(z, hasAttr))
		case html.EndTagToken:
			p.depth--
			if p.depth < 0 && p.cur != nil {
				p.threads = append(p.threads, *p.cur)
				p.cur = nil
			}
		case html.TextToken:
			if err := p.text(string(z.Text())); err != nil {
				return nil, err
			}
		}
	}
}

func classes(z *html.Tokenizer, hasAttr bool) []string {
	var out []string
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "class" {
			out = append(out, string(val))
		}
	}
	return out
}

func (p *htmlParser) startTag(tag string, classes []string) {
	for _, c := range classes {
		switch c {
		case "thread":
			p.cur = &analysis.Thread{Index: len(p.threads)}
			p.next = fieldMembers
			p.depth = 0
		case "message":
			if p.cur != nil {
				p.cur.Messages = append(p.cur.Messages, analysis.Message{})
			}
		case "user":
			p.next = fieldSender
		case "meta":
			p.next = fieldDate
		}
	}
	if tag == "p" {
		p.next = fieldContent
	}
}

func (p *htmlParser) text(data string) error {
	if p.cur == nil || strings.TrimSpace(data) == "" {
		return nil
	}

	if p.next == fieldMembers {
		var members []string
		for _, m := range strings.Split(strings.TrimSpace(data), ", ") {
			members = append(members, p.opts.Names.Resolve(m))
		}
		p.cur.Members = members
		p.next = fieldNone
		return nil
	}

	if len(p.cur.Messages) == 0 {
		return nil
	}
	msg := &p.cur.Messages[len(p.cur.Messages)-1]
	switch p.next {
	case fieldSender:
		msg.Sender = p.opts.Names.Resolve(data)
		p.next = fieldNone
	case fieldDate:
		ts, err := ParseMetaDate(data)
		if err != nil {
			return fmt.Errorf("thread %d message %d: %w", len(p.threads), len(p.cur.Messages)-1, err)
		}
		msg.Timestamp = ts.In(p.opts.location())
		p.next = fieldNone
	case fieldContent:
		msg.Content += data
	}
	return nil
}

var metaLayouts = []string{
	"Monday, January 2, 2006 at 3:04pm",
	"Monday, January 2, 2006 at 3:04PM",
}

// ParseMetaDate parses export dates such as "Tuesday, January 3, 2017 at 9:15pm UTC+01".
func ParseMetaDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, " UTC")
	if i < 0 {
		return time.Time{}, fmt.Errorf("ParseMetaDate: no UTC offset in %q", s)
	}
	offset, err := parseUTCOffset(s[i+len(" UTC"):])
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseMetaDate: %q: %w", s, err)
	}
	loc := time.FixedZone("UTC"+s[i+len(" UTC"):], offset)

	for _, layout := range metaLayouts {
		if t, err := time.ParseInLocation(layout, s[:i], loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ParseMetaDate: unrecognized date %q", s)
}

// parseUTCOffset parses "", "+01", "-0500" or "+05:30" into seconds east of UTC.
func parseUTCOffset(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("bad offset %q", s)
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	var hh, mm string
	switch len(digits) {
	case 1, 2:
		hh = digits
	case 4:
		hh, mm = digits[:2], digits[2:]
	default:
		return 0, fmt.Errorf("bad offset %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("bad offset %q", s)
	}
	m := 0
	if mm != "" {
		if m, err = strconv.Atoi(mm); err != nil {
			return 0, fmt.Errorf("bad offset %q", s)
		}
	}
	return sign * (h*3600 + m*60), nil
}

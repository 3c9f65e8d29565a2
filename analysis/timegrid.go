package analysis

import (
	"strings"
	"time"
)

// BuildDaily returns the dense daily grid over the thread's own date range, or nil for an empty thread.
// msgs need not be sorted.
func BuildDaily(members []string, msgs []Message, opts Options) *TimeData {
	if len(msgs) == 0 {
		return nil
	}
	start, end := dateRange(msgs)
	return buildDailyRange(members, msgs, start, end, opts.withDefaults(), true)
}

// BuildMonthly returns the dense monthly grid over the thread's own month range, or nil for an empty thread.
// msgs need not be sorted.
func BuildMonthly(members []string, msgs []Message, opts Options) *TimeData {
	if len(msgs) == 0 {
		return nil
	}
	opts = opts.withDefaults()
	members = uniqueMembers(members)
	markers := opts.markerNames()

	first, last := dateRange(msgs)
	start := FirstOfMonth(first)
	end := FirstOfMonth(last)
	n := DiffMonth(end, start) + 1

	td := &TimeData{
		Interval: Monthly,
		Start:    start,
		End:      end,
		Members:  members,
		Markers:  markers,
		Buckets:  make([]Bucket, n),
	}
	for i := range td.Buckets {
		b := newBucket(AddMonths(start, i), members, markers)
		b.EmojiPerMember = zeroCounts(members)
		b.AdjustedEmojiPerMember = make(map[string]float64, len(members))
		for _, m := range members {
			b.AdjustedEmojiPerMember[m] = 0
		}
		td.Buckets[i] = b
	}

	for _, msg := range msgs {
		b, ok := td.At(msg.Timestamp)
		if !ok {
			continue
		}
		countMarkers(b, msg.Content, opts.Markers)
		if _, member := b.MessagesPerMember[msg.Sender]; !member {
			continue
		}
		b.MessagesPerMember[msg.Sender]++
		b.WordsPerMember[msg.Sender] += len(strings.Fields(msg.Content))
		if opts.containsEmoji(msg.Content) {
			b.EmojiPerMember[msg.Sender]++
		}
	}

	for i := range td.Buckets {
		b := &td.Buckets[i]
		for _, m := range members {
			if w := b.WordsPerMember[m]; w != 0 {
				b.AdjustedEmojiPerMember[m] = float64(b.EmojiPerMember[m]) / float64(w)
			}
		}
	}
	return td
}

// BuildGlobal aligns every non-empty thread onto one shared daily range, from the earliest message date to
// the latest message date across threads. Threads are keyed by their Index. Returns nil when no thread has
// messages.
func BuildGlobal(threads []Thread) *GlobalTimeData {
	var (
		start, end time.Time
		found      bool
	)
	for _, t := range threads {
		if len(t.Messages) == 0 {
			continue
		}
		ts, te := dateRange(t.Messages)
		if !found || ts.Before(start) {
			start = ts
		}
		if !found || te.After(end) {
			end = te
		}
		found = true
	}
	if !found {
		return nil
	}

	g := &GlobalTimeData{
		Start:   start,
		End:     end,
		Threads: make(map[int]*TimeData, len(threads)),
	}
	for _, t := range threads {
		if len(t.Messages) == 0 {
			continue
		}
		g.Threads[t.Index] = buildDailyRange(t.Members, t.Messages, start, end, Options{}, false)
	}
	return g
}

// dateRange returns the earliest and latest calendar date among msgs. Dates are taken in each message's own
// location, so with mixed offsets a later instant can fall on an earlier date than its predecessor.
func dateRange(msgs []Message) (start, end time.Time) {
	for i, m := range msgs {
		d := DateOf(m.Timestamp)
		if i == 0 || d.Before(start) {
			start = d
		}
		if i == 0 || d.After(end) {
			end = d
		}
	}
	return start, end
}

// buildDailyRange zero-fills every date in [start, end] first and only then accumulates.
func buildDailyRange(members []string, msgs []Message, start, end time.Time, opts Options, withMarkers bool) *TimeData {
	members = uniqueMembers(members)
	var markers []string
	if withMarkers {
		markers = opts.markerNames()
	}

	n := DaysBetween(start, end) + 1
	td := &TimeData{
		Interval: Daily,
		Start:    start,
		End:      end,
		Members:  members,
		Markers:  markers,
		Buckets:  make([]Bucket, n),
	}
	for i := range td.Buckets {
		td.Buckets[i] = newBucket(start.AddDate(0, 0, i), members, markers)
	}

	for _, msg := range msgs {
		b, ok := td.At(msg.Timestamp)
		if !ok {
			continue
		}
		if withMarkers {
			countMarkers(b, msg.Content, opts.Markers)
		}
		if _, member := b.MessagesPerMember[msg.Sender]; !member {
			continue
		}
		b.MessagesPerMember[msg.Sender]++
		b.WordsPerMember[msg.Sender] += len(strings.Fields(msg.Content))
	}
	return td
}

func newBucket(date time.Time, members, markers []string) Bucket {
	b := Bucket{
		Date:              date,
		MessagesPerMember: zeroCounts(members),
		WordsPerMember:    zeroCounts(members),
	}
	if len(markers) > 0 {
		b.Markers = zeroCounts(markers)
	}
	return b
}

func zeroCounts(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for _, k := range keys {
		m[k] = 0
	}
	return m
}

// countMarkers counts every message regardless of sender.
func countMarkers(b *Bucket, content string, markers []Marker) {
	for _, m := range markers {
		if m.Matches(content) {
			b.Markers[m.Name]++
		}
	}
}

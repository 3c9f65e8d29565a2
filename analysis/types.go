package analysis

import (
	"errors"
	"time"
)

// ErrInvalidInput is returned when a thread handed to the pipeline is missing a field no stage can recover.
var ErrInvalidInput = errors.New("invalid input")

// Message is one normalized message of a thread.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
}

// Thread is the full history of one fixed set of participants plus everything derived from it.
type Thread struct {
	Index   int      `json:"index"`
	Title   string   `json:"title,omitempty"`
	Members []string `json:"members"`

	Messages      []Message      `json:"messages"`
	Conversations []Conversation `json:"-"`

	Meta    MetaData  `json:"-"`
	Daily   *TimeData `json:"-"`
	Monthly *TimeData `json:"-"`
}

// Conversation is a contiguous burst of activity inside a thread.
// Members are the senders in order of first appearance.
type Conversation struct {
	Members  []string  `json:"members"`
	Messages []Message `json:"messages"`
}

// Start returns the timestamp of the first message.
func (c Conversation) Start() time.Time {
	return c.Messages[0].Timestamp
}

// End returns the timestamp of the last message.
func (c Conversation) End() time.Time {
	return c.Messages[len(c.Messages)-1].Timestamp
}

// Starter is the sender of the first message.
func (c Conversation) Starter() string {
	return c.Messages[0].Sender
}

// Ender is the sender of the last message.
func (c Conversation) Ender() string {
	return c.Messages[len(c.Messages)-1].Sender
}

func (c Conversation) hasMember(m string) bool {
	for _, x := range c.Members {
		if x == m {
			return true
		}
	}
	return false
}

// WordCount is one entry of a member's top-words list.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// MemberStats are the per-member counters of a thread.
type MemberStats struct {
	Messages             int         `json:"messages"`
	Words                int         `json:"words"`
	ConversationsStarted int         `json:"conversations_started"`
	ConversationsEnded   int         `json:"conversations_ended"`
	SoloConversations    int         `json:"solo_conversations"`
	TopWords             []WordCount `json:"top_words"`
}

// WordsPerMessage returns Words/Messages and false when the member sent nothing.
func (s MemberStats) WordsPerMessage() (float64, bool) {
	if s.Messages == 0 {
		return 0, false
	}
	return float64(s.Words) / float64(s.Messages), true
}

// MetaData is the per-thread summary, recomputed wholesale on each run.
type MetaData struct {
	NumberOfMessages int                    `json:"number_of_messages"`
	Members          []string               `json:"members"`
	PerMember        map[string]MemberStats `json:"per_member"`
}

// Interval names a time-bucket resolution.
type Interval string

const (
	Daily   Interval = "daily"
	Monthly Interval = "monthly"
)

// Bucket holds the aggregates for one calendar unit. Every member of the owning thread has an entry in
// every per-member map, zero or not.
type Bucket struct {
	Date time.Time `json:"date"`

	MessagesPerMember map[string]int `json:"messages_per_member"`
	WordsPerMember    map[string]int `json:"words_per_member"`
	Markers           map[string]int `json:"markers,omitempty"`

	// Monthly only.
	EmojiPerMember         map[string]int     `json:"emoji_per_member,omitempty"`
	AdjustedEmojiPerMember map[string]float64 `json:"adjusted_emoji_per_member,omitempty"`
}

// TimeData is a dense calendar grid: one bucket per day (or per first-of-month) from Start to End inclusive.
type TimeData struct {
	Interval Interval  `json:"interval"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Members  []string  `json:"members"`
	Markers  []string  `json:"markers,omitempty"`
	Buckets  []Bucket  `json:"buckets"`
}

// At returns the bucket for the calendar unit containing d.
func (td *TimeData) At(d time.Time) (*Bucket, bool) {
	if td == nil || len(td.Buckets) == 0 {
		return nil, false
	}
	var i int
	switch td.Interval {
	case Monthly:
		i = DiffMonth(DateOf(d), td.Start)
	default:
		i = DaysBetween(td.Start, DateOf(d))
	}
	if i < 0 || i >= len(td.Buckets) {
		return nil, false
	}
	return &td.Buckets[i], true
}

// GlobalTimeData holds one daily grid per thread, all over the same global date range.
type GlobalTimeData struct {
	Start   time.Time         `json:"start"`
	End     time.Time         `json:"end"`
	Threads map[int]*TimeData `json:"threads"`
}

// Result is the output of one pipeline run.
type Result struct {
	Threads []Thread
	Global  *GlobalTimeData
}

package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/thread-stats/analysis/fileutils"
)

// DigestText is the model-produced description of one conversation.
type DigestText struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Tone    string `json:"tone"`
}

// ConversationDigest ties a DigestText to the conversation it describes.
type ConversationDigest struct {
	ThreadIndex       int       `json:"thread_index"`
	ThreadTitle       string    `json:"thread_title,omitempty"`
	ConversationIndex int       `json:"conversation_index"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Starter           string    `json:"starter"`
	Members           []string  `json:"members"`
	MessageCount      int       `json:"message_count"`

	DigestText
}

// Digester describes a single conversation.
type Digester interface {
	DigestConversation(ctx context.Context, thread Thread, conv Conversation) (DigestText, error)
}

// DigestOptions controls which conversations of a thread are digested.
type DigestOptions struct {
	// Limit is the number of conversations per thread (0 = all).
	Limit int

	// MinMessages skips conversations shorter than this.
	MinMessages int
}

// SelectConversations returns the indices of the largest conversations by message count, in chronological
// order. Equal sizes prefer the earlier conversation.
func SelectConversations(convs []Conversation, opts DigestOptions) []int {
	var idx []int
	for i, c := range convs {
		if len(c.Messages) >= opts.MinMessages {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return len(convs[idx[a]].Messages) > len(convs[idx[b]].Messages)
	})
	if opts.Limit > 0 && len(idx) > opts.Limit {
		idx = idx[:opts.Limit]
	}
	sort.Ints(idx)
	return idx
}

// RenderTranscript formats a conversation as "time sender: content" lines, stopping before maxChars
// (0 = unbounded). Long messages are truncated individually.
func RenderTranscript(conv Conversation, maxChars int) string {
	var b strings.Builder
	for _, m := range conv.Messages {
		line := fmt.Sprintf("%s %s: %s\n",
			m.Timestamp.Format("2006-01-02 15:04"),
			m.Sender,
			fileutils.Truncate(fileutils.SanitizeNewlines(m.Content), 500))
		if maxChars > 0 && b.Len()+len(line) > maxChars {
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

// DigestThread digests the selected conversations of an already segmented thread.
func DigestThread(ctx context.Context, thread Thread, d Digester, opts DigestOptions) ([]ConversationDigest, error) {
	if ctx == nil {
		return nil, errors.New("DigestThread: ctx is nil")
	}
	if d == nil {
		return nil, errors.New("DigestThread: digester is nil")
	}

	var out []ConversationDigest
	for _, i := range SelectConversations(thread.Conversations, opts) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		conv := thread.Conversations[i]
		text, err := d.DigestConversation(ctx, thread, conv)
		if err != nil {
			return nil, fmt.Errorf("DigestThread: thread %d conversation %d: %w", thread.Index, i, err)
		}
		out = append(out, ConversationDigest{
			ThreadIndex:       thread.Index,
			ThreadTitle:       thread.Title,
			ConversationIndex: i,
			Start:             conv.Start(),
			End:               conv.End(),
			Starter:           conv.Starter(),
			Members:           append([]string(nil), conv.Members...),
			MessageCount:      len(conv.Messages),
			DigestText: DigestText{
				Title:   strings.TrimSpace(text.Title),
				Summary: strings.TrimSpace(text.Summary),
				Tone:    strings.TrimSpace(text.Tone),
			},
		})
	}
	return out, nil
}

package analysis

import (
	"sort"
	"time"
)

const (
	// Any gap longer than this starts a new conversation.
	ConversationIdleLimit = 5 * time.Hour
	// A gap longer than this starts a new conversation when the sender already took part.
	ConversationResumeLimit = time.Hour
)

// SortMessages orders messages oldest first. Equal timestamps keep their original order.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

// Segment partitions time-sorted messages into conversations in a single pass.
// Concatenating the returned conversations reproduces msgs exactly.
func Segment(msgs []Message) []Conversation {
	var convs []Conversation
	for _, m := range msgs {
		var last *Conversation
		if len(convs) > 0 {
			last = &convs[len(convs)-1]
		}
		if StartsConversation(m, last) {
			convs = append(convs, Conversation{
				Members:  []string{m.Sender},
				Messages: []Message{m},
			})
			continue
		}
		if !last.hasMember(m.Sender) {
			last.Members = append(last.Members, m.Sender)
		}
		last.Messages = append(last.Messages, m)
	}
	return convs
}

// StartsConversation reports whether m opens a new conversation after last.
//
// A gap of more than five hours always splits. A gap between one and five hours splits only when the sender
// is already a member of last: the same person picking the thread up again is a new topic, while someone
// else answering late is still a reply.
func StartsConversation(m Message, last *Conversation) bool {
	if last == nil || len(last.Messages) == 0 {
		return true
	}
	gap := m.Timestamp.Sub(last.End())
	if gap > ConversationIdleLimit {
		return true
	}
	if gap > ConversationResumeLimit && last.hasMember(m.Sender) {
		return true
	}
	return false
}

package analysis

import (
	"sort"
	"strings"
)

// ComputeMetaData tallies per-member counters and top words for one thread.
// Senders outside members are skipped, not reported.
func ComputeMetaData(members []string, msgs []Message, convs []Conversation, opts Options) MetaData {
	opts = opts.withDefaults()
	members = uniqueMembers(members)

	stats := make(map[string]*MemberStats, len(members))
	freqs := make(map[string]*wordFreq, len(members))
	for _, m := range members {
		stats[m] = &MemberStats{TopWords: []WordCount{}}
		freqs[m] = newWordFreq()
	}

	var skip map[string]struct{}
	if opts.FilterStopWords {
		skip = memberSet(opts.StopWords)
	}

	for _, msg := range msgs {
		s, ok := stats[msg.Sender]
		if !ok {
			continue
		}
		words := strings.Fields(msg.Content)
		s.Messages++
		s.Words += len(words)
		for _, w := range words {
			w = strings.TrimSpace(strings.ToLower(w))
			if _, stop := skip[w]; stop {
				continue
			}
			freqs[msg.Sender].add(w)
		}
	}

	for _, c := range convs {
		if len(c.Messages) == 0 {
			continue
		}
		if s, ok := stats[c.Starter()]; ok {
			s.ConversationsStarted++
			if len(c.Members) == 1 {
				s.SoloConversations++
			}
		}
		if s, ok := stats[c.Ender()]; ok {
			s.ConversationsEnded++
		}
	}

	meta := MetaData{
		NumberOfMessages: len(msgs),
		Members:          members,
		PerMember:        make(map[string]MemberStats, len(members)),
	}
	for _, m := range members {
		s := stats[m]
		s.TopWords = freqs[m].top(opts.TopWords)
		meta.PerMember[m] = *s
	}
	return meta
}

// wordFreq counts words and remembers the order each was first seen.
type wordFreq struct {
	counts map[string]int
	order  []string
}

func newWordFreq() *wordFreq {
	return &wordFreq{counts: make(map[string]int)}
}

func (f *wordFreq) add(w string) {
	if _, ok := f.counts[w]; !ok {
		f.order = append(f.order, w)
	}
	f.counts[w]++
}

// top returns up to k words by descending count. Equal counts keep first-seen order, which is what
// repeatedly extracting the strict maximum from an insertion-ordered map yields.
func (f *wordFreq) top(k int) []WordCount {
	out := make([]WordCount, 0, len(f.order))
	for _, w := range f.order {
		out = append(out, WordCount{Word: w, Count: f.counts[w]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

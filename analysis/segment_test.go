package analysis

import (
	"testing"
	"time"
)

func TestSegment_ResumeBySameSenderSplits(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		msgAt(0, "A", "hi"),
		msgAt(30*time.Minute, "B", "hey"),
		msgAt(2*time.Hour, "A", "later"),
	}
	convs := Segment(msgs)
	if len(convs) != 2 {
		t.Fatalf("conversations=%d, want 2", len(convs))
	}
	if len(convs[0].Messages) != 2 || len(convs[1].Messages) != 1 {
		t.Fatalf("sizes=%d,%d, want 2,1", len(convs[0].Messages), len(convs[1].Messages))
	}
	if got := convs[0].Members; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("members=%v, want [A B]", got)
	}
}

func TestSegment_LateReplyByNewSenderContinues(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		msgAt(0, "A", "question"),
		msgAt(3*time.Hour, "B", "answer"),
	}
	if convs := Segment(msgs); len(convs) != 1 {
		t.Fatalf("conversations=%d, want 1", len(convs))
	}
}

func TestSegment_IdleLimitAlwaysSplits(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		msgAt(0, "A", "one"),
		msgAt(6*time.Hour, "B", "two"),
	}
	if convs := Segment(msgs); len(convs) != 2 {
		t.Fatalf("conversations=%d, want 2", len(convs))
	}
}

func TestSegment_BoundariesAreExclusive(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		msgAt(0, "A", "one"),
		msgAt(time.Hour, "A", "exactly one hour"),
		msgAt(6*time.Hour, "B", "exactly five hours"),
	}
	if convs := Segment(msgs); len(convs) != 1 {
		t.Fatalf("conversations=%d, want 1", len(convs))
	}
}

func TestSegment_PartitionsMessages(t *testing.T) {
	t.Parallel()

	var msgs []Message
	senders := []string{"A", "B", "C"}
	for i := 0; i < 40; i++ {
		gap := time.Duration(i%7) * 50 * time.Minute
		msgs = append(msgs, msgAt(time.Duration(i)*time.Hour+gap, senders[i%3], "m"))
	}
	SortMessages(msgs)

	var flat []Message
	for _, c := range Segment(msgs) {
		if len(c.Messages) == 0 {
			t.Fatalf("empty conversation")
		}
		flat = append(flat, c.Messages...)
	}
	if len(flat) != len(msgs) {
		t.Fatalf("flattened=%d, want %d", len(flat), len(msgs))
	}
	for i := range msgs {
		if flat[i] != msgs[i] {
			t.Fatalf("message %d differs after segmentation", i)
		}
	}
}

func TestSegment_Empty(t *testing.T) {
	t.Parallel()

	if convs := Segment(nil); len(convs) != 0 {
		t.Fatalf("conversations=%d, want 0", len(convs))
	}
}

func TestSortMessages_StableForEqualTimestamps(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		msgAt(time.Hour, "A", "late"),
		msgAt(0, "A", "first"),
		msgAt(0, "B", "second"),
	}
	SortMessages(msgs)
	if msgs[0].Content != "first" || msgs[1].Content != "second" || msgs[2].Content != "late" {
		t.Fatalf("order=%q,%q,%q", msgs[0].Content, msgs[1].Content, msgs[2].Content)
	}
}

package analysis

import (
	"fmt"
	"strings"
)

// Run executes the fixed stage order over threads: validate, group (when opts.Dedupe), sort, segment,
// metadata, per-thread time grids and the global grid. The input slice and its message slices are not
// modified; Index is reassigned to each thread's position in the output.
func Run(threads []Thread, opts Options) (Result, error) {
	opts = opts.withDefaults()

	for i := range threads {
		if err := ValidateThread(threads[i]); err != nil {
			return Result{}, fmt.Errorf("Run: thread %d: %w", i, err)
		}
	}

	var out []Thread
	if opts.Dedupe {
		out = GroupThreads(threads)
	} else {
		out = make([]Thread, len(threads))
		for i, t := range threads {
			t.Messages = append([]Message(nil), t.Messages...)
			out[i] = t
		}
	}

	for i := range out {
		t := &out[i]
		t.Index = i
		SortMessages(t.Messages)
		t.Conversations = Segment(t.Messages)
		t.Meta = ComputeMetaData(t.Members, t.Messages, t.Conversations, opts)
		t.Daily = BuildDaily(t.Members, t.Messages, opts)
		t.Monthly = BuildMonthly(t.Members, t.Messages, opts)
	}

	return Result{
		Threads: out,
		Global:  BuildGlobal(out),
	}, nil
}

// ValidateThread rejects threads missing fields that no stage can reconstruct.
func ValidateThread(t Thread) error {
	if len(t.Members) == 0 {
		return fmt.Errorf("%w: no members", ErrInvalidInput)
	}
	for i, m := range t.Messages {
		if m.Timestamp.IsZero() {
			return fmt.Errorf("%w: message %d: missing timestamp", ErrInvalidInput, i)
		}
		if strings.TrimSpace(m.Sender) == "" {
			return fmt.Errorf("%w: message %d: missing sender", ErrInvalidInput, i)
		}
	}
	return nil
}

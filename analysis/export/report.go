package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
	"github.com/theimaginaryfoundation/thread-stats/analysis/fileutils"
)

// Report is the machine-readable outcome of one pipeline run.
type Report struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Source      string         `json:"source,omitempty"`
	Format      string         `json:"format,omitempty"`
	GlobalStart *time.Time     `json:"global_start,omitempty"`
	GlobalEnd   *time.Time     `json:"global_end,omitempty"`
	Threads     []ThreadReport `json:"threads"`
}

// ThreadReport summarizes one thread.
type ThreadReport struct {
	Index         int               `json:"index"`
	Title         string            `json:"title,omitempty"`
	Members       []string          `json:"members"`
	Messages      int               `json:"messages"`
	Conversations int               `json:"conversations"`
	FirstDay      *time.Time        `json:"first_day,omitempty"`
	LastDay       *time.Time        `json:"last_day,omitempty"`
	Meta          analysis.MetaData `json:"meta"`
}

// NewReport builds a report for res with a fresh run id.
func NewReport(res analysis.Result, source, format string, now time.Time) Report {
	r := Report{
		RunID:       uuid.NewString(),
		GeneratedAt: now.UTC(),
		Source:      source,
		Format:      format,
		Threads:     make([]ThreadReport, 0, len(res.Threads)),
	}
	if res.Global != nil {
		start, end := res.Global.Start, res.Global.End
		r.GlobalStart, r.GlobalEnd = &start, &end
	}
	for _, t := range res.Threads {
		tr := ThreadReport{
			Index:         t.Index,
			Title:         t.Title,
			Members:       t.Meta.Members,
			Messages:      len(t.Messages),
			Conversations: len(t.Conversations),
			Meta:          t.Meta,
		}
		if t.Daily != nil {
			first, last := t.Daily.Start, t.Daily.End
			tr.FirstDay, tr.LastDay = &first, &last
		}
		r.Threads = append(r.Threads, tr)
	}
	return r
}

// WriteReport writes r to path atomically.
func WriteReport(path string, r Report, pretty bool) error {
	return fileutils.WriteJSONFileAtomic(path, r, pretty)
}

package analysis

import "fmt"

// ActivityMetric selects the per-member counter an activity series is drawn from.
type ActivityMetric string

const (
	ActivityMessages ActivityMetric = "messages"
	ActivityWords    ActivityMetric = "words"
)

// Series is one thread's daily values for one member over the global range.
type Series struct {
	ThreadIndex int       `json:"thread_index"`
	Label       string    `json:"label"`
	Total       int       `json:"total"`
	Points      []float64 `json:"points"`
}

// ActivitySeries builds one smoothed series per thread for member, keeping only threads where the member's
// total reaches threshold. Every series has one point per day of g's range.
func ActivitySeries(threads []Thread, g *GlobalTimeData, member string, metric ActivityMetric, threshold, window int) ([]Series, error) {
	if g == nil {
		return nil, nil
	}
	if metric != ActivityMessages && metric != ActivityWords {
		return nil, fmt.Errorf("ActivitySeries: metric must be %q or %q, got %q", ActivityMessages, ActivityWords, metric)
	}

	var out []Series
	for _, t := range threads {
		td, ok := g.Threads[t.Index]
		if !ok {
			continue
		}
		s := Series{
			ThreadIndex: t.Index,
			Label:       ThreadLabel(t),
			Points:      make([]float64, len(td.Buckets)),
		}
		for i, b := range td.Buckets {
			v := b.MessagesPerMember[member]
			if metric == ActivityWords {
				v = b.WordsPerMember[member]
			}
			s.Total += v
			s.Points[i] = float64(v)
		}
		if s.Total < threshold {
			continue
		}
		s.Points = MovingAverage(s.Points, window)
		out = append(out, s)
	}
	return out, nil
}

// MovingAverage returns the trailing mean over window points. The first window points, which lack a full
// window, are the running mean of everything so far.
func MovingAverage(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 1 {
		copy(out, xs)
		return out
	}
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
			out[i] = sum / float64(window)
			continue
		}
		out[i] = sum / float64(i+1)
	}
	return out
}

// ThreadLabel is the title of t, or a positional name when the export had none.
func ThreadLabel(t Thread) string {
	if t.Title != "" {
		return t.Title
	}
	return fmt.Sprintf("thread %d", t.Index)
}

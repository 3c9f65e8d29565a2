// Package export writes finished analysis results as CSV, JSON and terminal summaries.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
)

// Metric names a per-bucket record of a TimeData grid.
type Metric string

const (
	MessagesPerMember      Metric = "messages_per_member"
	WordsPerMember         Metric = "words_per_member"
	EmojiPerMember         Metric = "emoji_per_member"
	AdjustedEmojiPerMember Metric = "adjusted_emoji_per_member"
	MarkerCounts           Metric = "markers"
)

// Metrics lists the metrics available for an interval.
func Metrics(interval analysis.Interval) []Metric {
	if interval == analysis.Monthly {
		return []Metric{MessagesPerMember, WordsPerMember, EmojiPerMember, AdjustedEmojiPerMember, MarkerCounts}
	}
	return []Metric{MessagesPerMember, WordsPerMember, MarkerCounts}
}

const dateLayout = "2006-01-02"

// WriteIntervalCSV writes "Date,<column>..." followed by one row per bucket in ascending date order.
// Columns are the grid's members, or its marker names for MarkerCounts.
func WriteIntervalCSV(w io.Writer, td *analysis.TimeData, metric Metric) error {
	if td == nil {
		return fmt.Errorf("WriteIntervalCSV: no time data")
	}
	if metric == MarkerCounts && len(td.Markers) == 0 {
		return fmt.Errorf("WriteIntervalCSV: grid has no markers")
	}
	if (metric == EmojiPerMember || metric == AdjustedEmojiPerMember) && td.Interval != analysis.Monthly {
		return fmt.Errorf("WriteIntervalCSV: %s is only tracked monthly", metric)
	}

	cols := td.Members
	if metric == MarkerCounts {
		cols = td.Markers
	}

	cw := csv.NewWriter(w)
	header := append([]string{"Date"}, cols...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("WriteIntervalCSV: write header: %w", err)
	}
	row := make([]string, len(cols)+1)
	for _, b := range td.Buckets {
		row[0] = b.Date.Format(dateLayout)
		for i, c := range cols {
			v, err := cell(b, metric, c)
			if err != nil {
				return err
			}
			row[i+1] = v
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteIntervalCSV: write row %s: %w", row[0], err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(b analysis.Bucket, metric Metric, col string) (string, error) {
	switch metric {
	case MessagesPerMember:
		return strconv.Itoa(b.MessagesPerMember[col]), nil
	case WordsPerMember:
		return strconv.Itoa(b.WordsPerMember[col]), nil
	case EmojiPerMember:
		return strconv.Itoa(b.EmojiPerMember[col]), nil
	case AdjustedEmojiPerMember:
		return strconv.FormatFloat(b.AdjustedEmojiPerMember[col], 'g', -1, 64), nil
	case MarkerCounts:
		return strconv.Itoa(b.Markers[col]), nil
	default:
		return "", fmt.Errorf("WriteIntervalCSV: unknown metric %q", metric)
	}
}

// WriteSeriesCSV writes "Date,<label>..." with one row per day starting at start.
// All series must have the same number of points.
func WriteSeriesCSV(w io.Writer, g *analysis.GlobalTimeData, series []analysis.Series) error {
	if g == nil {
		return fmt.Errorf("WriteSeriesCSV: no global time data")
	}
	days := analysis.DaysBetween(g.Start, g.End) + 1
	for _, s := range series {
		if len(s.Points) != days {
			return fmt.Errorf("WriteSeriesCSV: series %q has %d points, want %d", s.Label, len(s.Points), days)
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"Date"}
	for _, s := range series {
		header = append(header, s.Label)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("WriteSeriesCSV: write header: %w", err)
	}
	row := make([]string, len(series)+1)
	for d := 0; d < days; d++ {
		row[0] = g.Start.AddDate(0, 0, d).Format(dateLayout)
		for i, s := range series {
			row[i+1] = strconv.FormatFloat(s.Points[d], 'f', 4, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteSeriesCSV: write row %s: %w", row[0], err)
		}
	}
	cw.Flush()
	return cw.Error()
}

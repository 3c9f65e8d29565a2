package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
	"github.com/theimaginaryfoundation/thread-stats/analysis/fileutils"
)

// ThreadCSVName is the file name of one thread/interval/metric export, e.g. "003_alice_bob.monthly.words_per_member.csv".
func ThreadCSVName(t analysis.Thread, interval analysis.Interval, metric Metric) string {
	base := SanitizeFilenameComponent(t.Title)
	if base == "" {
		base = SanitizeFilenameComponent(strings.Join(t.Members, "_"))
	}
	if base == "" {
		base = "thread"
	}
	return fmt.Sprintf("%03d_%s.%s.%s.csv", t.Index, base, interval, metric)
}

// WriteThreadCSVs writes every applicable interval/metric CSV of every thread into dir and returns the
// number of files written. Threads without messages produce no files.
func WriteThreadCSVs(dir string, threads []analysis.Thread, overwrite bool) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("WriteThreadCSVs: create output dir: %w", err)
	}
	written := 0
	for _, t := range threads {
		for _, td := range []*analysis.TimeData{t.Daily, t.Monthly} {
			if td == nil {
				continue
			}
			for _, metric := range Metrics(td.Interval) {
				if metric == MarkerCounts && len(td.Markers) == 0 {
					continue
				}
				path := filepath.Join(dir, ThreadCSVName(t, td.Interval, metric))
				if err := writeNew(path, overwrite, func(w io.Writer) error {
					return WriteIntervalCSV(w, td, metric)
				}); err != nil {
					return written, fmt.Errorf("WriteThreadCSVs: thread %d: %w", t.Index, err)
				}
				written++
			}
		}
	}
	return written, nil
}

// WriteSeriesFile writes an activity series CSV to path.
func WriteSeriesFile(path string, g *analysis.GlobalTimeData, series []analysis.Series, overwrite bool) error {
	if err := writeNew(path, overwrite, func(w io.Writer) error {
		return WriteSeriesCSV(w, g, series)
	}); err != nil {
		return fmt.Errorf("WriteSeriesFile: %w", err)
	}
	return nil
}

func writeNew(path string, overwrite bool, write func(io.Writer) error) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("output file already exists: %s", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat output file: %w", err)
		}
	}
	return fileutils.WriteAtomic(path, 0o644, write)
}

// SanitizeFilenameComponent keeps letters, digits, '-', '_' and '.', replacing everything else with '_'.
func SanitizeFilenameComponent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), "._-")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}

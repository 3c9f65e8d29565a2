// Package ingest turns Messenger exports into normalized analysis threads.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
	"github.com/theimaginaryfoundation/thread-stats/analysis/fileutils"
)

// Format names an export layout.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat accepts "auto", "json" or "html" (empty means auto).
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want auto|json|html)", s)
	}
}

// Options apply to every loader.
type Options struct {
	// Names maps raw display names to canonical member ids.
	Names Names

	// Owner is the exporting user. JSON exports leave the owner out of participants, so it is appended.
	Owner string

	// Location is where calendar dates are taken (nil = time.Local).
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Load reads threads from path. With FormatAuto a directory is a JSON export and a file is a legacy
// HTML export. The returned format is the one actually used.
func Load(ctx context.Context, path string, format Format, opts Options) ([]analysis.Thread, Format, error) {
	if ctx == nil {
		return nil, "", errors.New("Load: ctx is nil")
	}
	if path == "" {
		return nil, "", errors.New("Load: path is empty")
	}

	if format == "" || format == FormatAuto {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, "", fmt.Errorf("Load: stat input: %w", err)
		}
		format = FormatHTML
		if fi.IsDir() {
			format = FormatJSON
		}
	}

	var (
		threads []analysis.Thread
		err     error
	)
	switch format {
	case FormatJSON:
		threads, err = LoadJSONDir(ctx, path, opts)
	case FormatHTML:
		threads, err = LoadHTMLFile(ctx, path, opts)
	default:
		return nil, "", fmt.Errorf("Load: unsupported format %q", format)
	}
	if err != nil {
		return nil, "", err
	}
	return threads, format, nil
}

// Names is an identity-normalization table.
type Names map[string]string

// Resolve returns the canonical id for a raw display name, or the name itself.
func (n Names) Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if id, ok := n[raw]; ok {
		return id
	}
	return raw
}

// LoadNames reads a JSON object of raw display name to canonical id. An empty path yields an empty table.
func LoadNames(path string) (Names, error) {
	if path == "" {
		return Names{}, nil
	}
	var n Names
	if err := fileutils.ReadJSONFile(path, &n); err != nil {
		return nil, fmt.Errorf("LoadNames: %w", err)
	}
	if n == nil {
		n = Names{}
	}
	return n, nil
}

// appendOwner adds owner to members unless it is empty or already present.
func appendOwner(members []string, owner string) []string {
	if owner == "" {
		return members
	}
	for _, m := range members {
		if m == owner {
			return members
		}
	}
	return append(members, owner)
}

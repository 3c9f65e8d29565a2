package analysis

import (
	"fmt"
	"strings"
)

// DefaultTopWords is the length of each member's top-words list.
const DefaultTopWords = 100

// Marker counts messages whose content contains Substring, case-insensitively.
type Marker struct {
	Name      string `json:"name"`
	Substring string `json:"substring"`
}

// Matches reports whether content contains the marker substring, ignoring case.
func (m Marker) Matches(content string) bool {
	if m.Substring == "" {
		return false
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(m.Substring))
}

// ParseMarker parses "name=substring". A bare "substring" uses itself as the name.
func ParseMarker(s string) (Marker, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Marker{}, fmt.Errorf("ParseMarker: empty marker")
	}
	name, sub, ok := strings.Cut(s, "=")
	if !ok {
		return Marker{Name: s, Substring: s}, nil
	}
	name = strings.TrimSpace(name)
	sub = strings.TrimSpace(sub)
	if name == "" || sub == "" {
		return Marker{}, fmt.Errorf("ParseMarker: want name=substring, got %q", s)
	}
	return Marker{Name: name, Substring: sub}, nil
}

// DefaultEmoji is the emoji/emoticon set counted in monthly buckets.
func DefaultEmoji() []string {
	return []string{":)", ";)", ":/", "😆", "😅", "😀", "😂", "😉"}
}

// DefaultStopWords is the stop-word list used when Options.FilterStopWords is set.
func DefaultStopWords() []string {
	return []string{"det", "är", "jag", "att", "inte", "på", "vi", "du", "har", "man", "och", "eller", "så", "i"}
}

// Options controls a pipeline run.
type Options struct {
	// Dedupe merges threads with identical member sets before sorting. Only the legacy HTML
	// export splits threads, so JSON input leaves this off.
	Dedupe bool

	// TopWords is K for the per-member top-words list (DefaultTopWords when <= 0).
	TopWords int

	Markers []Marker

	// Emoji are matched case-sensitively. nil means DefaultEmoji; an empty non-nil slice disables counting.
	Emoji []string

	// StopWords are ignored by the top-words count only when FilterStopWords is set.
	StopWords       []string
	FilterStopWords bool
}

func (o Options) withDefaults() Options {
	if o.TopWords <= 0 {
		o.TopWords = DefaultTopWords
	}
	if o.Emoji == nil {
		o.Emoji = DefaultEmoji()
	}
	if o.FilterStopWords && o.StopWords == nil {
		o.StopWords = DefaultStopWords()
	}
	return o
}

func (o Options) markerNames() []string {
	if len(o.Markers) == 0 {
		return nil
	}
	names := make([]string, 0, len(o.Markers))
	for _, m := range o.Markers {
		names = append(names, m.Name)
	}
	return names
}

func (o Options) containsEmoji(content string) bool {
	for _, e := range o.Emoji {
		if e != "" && strings.Contains(content, e) {
			return true
		}
	}
	return false
}

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/theimaginaryfoundation/thread-stats/analysis"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	memberStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// WriteSummary prints a per-thread, per-member overview of res.
func WriteSummary(w io.Writer, res analysis.Result) error {
	var b strings.Builder
	for _, t := range res.Threads {
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", analysis.ThreadLabel(t), strings.Join(t.Members, ", "))))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s messages, %s conversations",
			humanize.Comma(int64(t.Meta.NumberOfMessages)), humanize.Comma(int64(len(t.Conversations))))))
		b.WriteString("\n")
		for _, m := range t.Meta.Members {
			b.WriteString("  ")
			b.WriteString(memberStyle.Render(m))
			b.WriteString("\n")
			b.WriteString(MemberLines(t.Meta.PerMember[m]))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// MemberLines renders the counters of one member, one per line.
func MemberLines(s analysis.MemberStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "    messages:               %s\n", humanize.Comma(int64(s.Messages)))
	fmt.Fprintf(&b, "    words:                  %s\n", humanize.Comma(int64(s.Words)))
	if wpm, ok := s.WordsPerMessage(); ok {
		fmt.Fprintf(&b, "    words per message:      %.2f\n", wpm)
	} else {
		b.WriteString("    words per message:      (no messages sent)\n")
	}
	fmt.Fprintf(&b, "    conversations started:  %s\n", humanize.Comma(int64(s.ConversationsStarted)))
	fmt.Fprintf(&b, "    solo conversations:     %s\n", humanize.Comma(int64(s.SoloConversations)))
	fmt.Fprintf(&b, "    conversations ended:    %s\n", humanize.Comma(int64(s.ConversationsEnded)))
	return b.String()
}

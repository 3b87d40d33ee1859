package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const shortsTag = "shorts"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// FinalizeTags returns a copy of tags with "shorts" appended unless some tag
// already matches it case-insensitively.
func FinalizeTags(tags []string) []string {
	final := make([]string, 0, len(tags)+1)
	final = append(final, tags...)
	for _, tag := range tags {
		if strings.EqualFold(tag, shortsTag) {
			return final
		}
	}
	return append(final, shortsTag)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func progressPrinter(out io.Writer) func(float64) {
	return func(fraction float64) {
		_, _ = fmt.Fprintf(out, "Uploading... %d%%\n", int(fraction*100))
	}
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "(none)"
	}
	return strings.Join(tags, ", ")
}

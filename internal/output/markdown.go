package output

import (
	"fmt"
	"strings"

	"github.com/factlens/factlens/internal/core"
)

// MarkdownFormatter renders results as a Markdown list.
type MarkdownFormatter struct{}

// FormatNews renders an aggregated result as Markdown.
func (f *MarkdownFormatter) FormatNews(result *core.AggregatedResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("## Front page (%s)\n\n", result.GeneratedAt.Format("2006-01-02")))

	for _, item := range result.Items {
		title := item.Title
		if item.Link != "" {
			title = fmt.Sprintf("[%s](%s)", item.Title, item.Link)
		}

		b.WriteString("- ")
		if item.Category != "" {
			b.WriteString(fmt.Sprintf("**%s**: ", item.Category))
		}
		b.WriteString(title)
		if item.SourceName != "" {
			b.WriteString(fmt.Sprintf(" _(%s)_", item.SourceName))
		}
		b.WriteString("\n")

		if item.Summary != "" {
			b.WriteString("  ")
			b.WriteString(item.Summary)
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

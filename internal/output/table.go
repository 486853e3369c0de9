package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/factlens/factlens/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatNews renders an aggregated result as a table.
func (f *TableFormatter) FormatNews(result *core.AggregatedResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Category", "Title", "Source", "Published"})

	for _, item := range result.Items {
		t.AppendRow(table.Row{
			item.Category,
			item.Title,
			item.SourceName,
			publishedLabel(item.PublishedAt),
		})
	}

	if result.TotalCount > 0 {
		t.AppendFooter(table.Row{
			"",
			fmt.Sprintf("%d items", result.TotalCount),
			"",
			result.GeneratedAt.Format("2006-01-02 15:04"),
		})
	}

	return t.Render(), nil
}

func publishedLabel(published *time.Time) string {
	if published == nil {
		return "-"
	}
	return published.Format("2006-01-02 15:04")
}

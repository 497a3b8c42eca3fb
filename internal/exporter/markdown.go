package exporter

import (
	"strings"

	"plforecast/pkg/contracts/domain"
)

// TableToMarkdown renders a table as a GitHub pipe table. The assistant prompt embeds
// this text, so the layout is stable: one header row, one separator, one row per item.
func TableToMarkdown(table *domain.Table) string {
	if table == nil {
		return ""
	}
	headers, records := tableRecords(table)
	return pipeTable(headers, records)
}

// ViewToMarkdown renders a summary view as a pipe table.
func ViewToMarkdown(view *domain.View) string {
	if view == nil {
		return ""
	}
	headers, records := viewRecords(view)
	return pipeTable(headers, records)
}

func pipeTable(headers []string, records [][]string) string {
	var b strings.Builder
	writePipeRow(&b, headers)

	sep := make([]string, len(headers))
	for i := range sep {
		if i == 0 {
			sep[i] = ":---"
		} else {
			sep[i] = "---:"
		}
	}
	writePipeRow(&b, sep)

	for _, r := range records {
		writePipeRow(&b, r)
	}
	return b.String()
}

func writePipeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(c, "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

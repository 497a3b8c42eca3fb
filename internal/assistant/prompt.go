package assistant

import (
	"strings"

	"plforecast/internal/exporter"
	"plforecast/pkg/contracts/domain"
)

const (
	promptIntro = "You are a financial analyst assistant. Analyze the following P&L data and answer the user's question."
	promptOutro = "Provide concise, professional insights. Use bullet points/markdown."
)

// BuildSystemPrompt embeds table as a markdown pipe table between the fixed instructions.
func BuildSystemPrompt(table *domain.Table) string {
	var b strings.Builder
	b.WriteString(promptIntro)
	b.WriteString("\n\nData:\n")
	b.WriteString(exporter.TableToMarkdown(table))
	b.WriteString("\n")
	b.WriteString(promptOutro)
	return b.String()
}

package assistant

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts a markdown reply to HTML. Raw HTML in the reply is not passed through.
func RenderHTML(reply string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(cleanReply(reply)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// cleanReply strips a code fence wrapping the whole reply, which some models add.
func cleanReply(reply string) string {
	cleaned := strings.TrimSpace(reply)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "```"), "```")
	cleaned = strings.TrimPrefix(cleaned, "markdown")
	return strings.TrimSpace(cleaned)
}

package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const syntaxMarkdown = `# 深渊速览

Send ` + "`速览`" + ` or ` + "`深渊速览`" + ` followed by any of the words below, separated by spaces.
Unknown words are ignored and later words win.

| Words | Meaning |
|-------|---------|
| ` + "`12`, `第12层`, `十二层`" + ` | floor (1 to 12, default 12) |
| ` + "`12-3`, `12_3`" + ` | floor and chamber, one picture per chamber |
| ` + "`上期`, `下期`" + ` | previous or next period |
| ` + "`2023年1月上`, `23年1月下`, `1月上`" + ` | a named period |

Without a chamber the three chambers of the floor are drawn side by side.

# 深渊统计

Send ` + "`深渊统计`" + ` on its own for the Akasha statistics of floor 12.
`

// renderSyntax renders the grammar help. style is a glamour standard style name or
// "auto" to detect the terminal.
func renderSyntax(style string) (string, error) {
	opt := glamour.WithStandardStyle(style)
	if style == "auto" {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(
		opt,
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render(syntaxMarkdown)
}

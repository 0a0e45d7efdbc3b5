package presentation

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
)

// noMarginStyle drops glamour's document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// SummaryMarkdown describes a collection as a markdown document.
func SummaryMarkdown(c CollectionDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n\n", escapeMarkdown(c.Name), escapeMarkdown(c.Symbol))
	if c.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(c.Description))
	}

	access := "public"
	if c.WhitelistOnly {
		access = "whitelist only"
	}
	start := "immediately"
	if c.MintingBeginsFrom > 0 {
		start = time.Unix(c.MintingBeginsFrom, 0).UTC().Format(time.RFC3339)
	}

	b.WriteString("| | |\n|---|---|\n")
	rows := [][2]string{
		{"Address", "`" + c.Address + "`"},
		{"Owner", "`" + c.Owner + "`"},
		{"Factory", "`" + c.Factory + "`"},
		{"Version", fmt.Sprintf("V%d", c.Version)},
		{"Supply", fmt.Sprintf("%d / %d", c.TotalSupply, c.MaxSupply)},
		{"Next token", fmt.Sprintf("#%d", c.NextTokenID)},
		{"Minting", access},
		{"Minting cost", etherOf(c.MintingCost)},
		{"Minting begins", start},
		{"Royalty", fractionOf(c.RoyaltyFraction)},
	}
	if c.Hidden {
		rows = append(rows, [2]string{"Listing", "hidden"})
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r[0], r[1])
	}
	return b.String()
}

// RenderSummary renders SummaryMarkdown for the terminal at the given width.
func RenderSummary(c CollectionDTO, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	return r.Render(SummaryMarkdown(c))
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "|", `\|`, "#", `\#`, "[", `\[`, "]", `\]`, "<", "&lt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

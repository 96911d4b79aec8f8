package cmd

import (
	"fmt"
	"strings"

	"github.com/odgs/odgs/bundle"
	"github.com/odgs/odgs/internal/config"
	"github.com/odgs/odgs/internal/schema"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorRed     = "\033[31m"
	colorGray    = "\033[90m"
)

// palette paints strings when color is on and passes them through otherwise.
type palette bool

func (p palette) paint(code, s string) string {
	if !p {
		return s
	}
	return code + s + colorReset
}

// formatKeys lists bundle keys with document kind and size.
//
//	⚡ 7 documents │ 3f2a9c…
//	  standardMetrics       array   7
//	  physicalDataMap       object  2
func formatKeys(b *bundle.Bundle, p palette) string {
	width := 0
	for _, k := range b.Keys() {
		if len(k) > width {
			width = len(k)
		}
	}

	var sb strings.Builder
	sb.WriteString(p.paint(colorBold, fmt.Sprintf("⚡ %d documents", b.Len())))
	sb.WriteString(fmt.Sprintf(" │ %s\n", p.paint(colorGray, shortDigest(b.Digest()))))
	for _, k := range b.Keys() {
		doc := b.MustGet(k)
		name := fmt.Sprintf("%-*s", width, k)
		sb.WriteString(fmt.Sprintf("  %s  %s  %d\n",
			p.paint(colorCyan, name),
			p.paint(colorMagenta, fmt.Sprintf("%-6s", doc.Kind())),
			doc.Len()))
	}
	return sb.String()
}

// formatReport renders a validation report.
func formatReport(rep schema.Report, p palette) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s Loaded %d metrics.\n", p.paint(colorGreen, "✓"), rep.Metrics))
	sb.WriteString(fmt.Sprintf("%s Loaded %d data rules.\n", p.paint(colorGreen, "✓"), rep.DataRules))

	// Group messages per item, keeping first-seen order.
	type group struct {
		doc  bundle.Key
		item string
		msgs []string
	}
	var groups []*group
	index := make(map[string]*group)
	for _, is := range rep.Issues {
		id := string(is.Document) + "\x00" + is.Item
		g, ok := index[id]
		if !ok {
			g = &group{doc: is.Document, item: is.Item}
			index[id] = g
			groups = append(groups, g)
		}
		g.msgs = append(g.msgs, is.Message)
	}
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("%s Error in %s '%s': %s\n",
			p.paint(colorRed, "✗"), g.doc, g.item, strings.Join(g.msgs, ", ")))
	}

	if rep.OK() {
		sb.WriteString(p.paint(colorBold, "All governance checks passed.") + "\n")
	} else {
		sb.WriteString(p.paint(colorYellow, fmt.Sprintf("%d issues found.", len(rep.Issues))) + "\n")
	}
	return sb.String()
}

// formatConfig renders the effective configuration.
func formatConfig(c *config.Config, path string, p palette) string {
	source := "embedded"
	if c.LibDir != "" {
		source = c.LibDir
	}
	var sb strings.Builder
	sb.WriteString(p.paint(colorBold, "⚡ odgs config") + "\n")
	sb.WriteString(fmt.Sprintf("  Config:     %s\n", path))
	sb.WriteString(fmt.Sprintf("  Documents:  %s\n", source))
	sb.WriteString(fmt.Sprintf("  Log:        %s (%s)\n", c.Log.Level, c.Log.Format))
	sb.WriteString(fmt.Sprintf("  Export:     %s\n", c.Export.Path))
	return sb.String()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

package ui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// MarkdownRenderMargin is the left margin used for terminal markdown rendering.
const MarkdownRenderMargin = 2

const defaultCodeTheme = "monokai"

var markdownCodeTheme = defaultCodeTheme

// ConfigureMarkdownCodeTheme sets the chroma theme for fenced code blocks.
// Unknown names fall back to the default theme.
func ConfigureMarkdownCodeTheme(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, known := range styles.Names() {
		if strings.ToLower(known) == name {
			markdownCodeTheme = known
			return
		}
	}
	markdownCodeTheme = defaultCodeTheme
}

// RenderMarkdown renders a report for the terminal, wrapped at width.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

// markdownStyle covers the elements reports use: headings, bullet lists,
// bold labels, inline paths and fenced diffs.
func markdownStyle() ansi.StyleConfig {
	code := ptr("203")
	margin := uint(MarkdownRenderMargin)
	heading := ansi.StylePrimitive{BlockSuffix: "\n", Bold: ptr(true)}
	if color, ok := AccentColor(); ok {
		heading.Color = ptr(color)
	}

	var cfg ansi.StyleConfig
	cfg.Document.BlockPrefix = "\n"
	cfg.Document.BlockSuffix = "\n"
	cfg.Document.Margin = &margin
	cfg.Heading.StylePrimitive = heading
	cfg.H1.Prefix = "# "
	cfg.H1.Underline = ptr(true)
	cfg.H2.Prefix = "## "
	cfg.H2.Underline = ptr(true)
	cfg.List.LevelIndent = 2
	cfg.Item.BlockPrefix = "• "
	cfg.Strong.Bold = ptr(true)
	cfg.Code.Color = code
	cfg.CodeBlock.Color = code
	cfg.CodeBlock.Margin = &margin
	cfg.CodeBlock.Theme = markdownCodeTheme
	return cfg
}

func ptr[T any](v T) *T { return &v }

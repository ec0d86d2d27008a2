// Package markdown renders markdown text to ANSI-styled terminal output,
// goldmark for parsing and lipgloss for styling. Assistant responses pass
// through here before the console shows them.
package markdown

import "github.com/mwidla/teleop"

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width; code blocks keep
// their lines intact.
func Render(source string, width int, theme teleop.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}

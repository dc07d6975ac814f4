// Package style renders one-off strings with lipgloss.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/streamgrab/streamgrab/color"
	"github.com/streamgrab/streamgrab/source"
)

func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer that paints text with c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(c).Render(s) }
}

var (
	Faint  = func(s string) string { return New().Faint(true).Render(s) }
	Bold   = func(s string) string { return New().Bold(true).Render(s) }
	Italic = func(s string) string { return New().Italic(true).Render(s) }
)

// Tag renders s as a padded label.
func Tag(fg, bg lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(fg).Background(bg).Padding(0, 1).Render(s) }
}

// Kind labels a manifest kind.
func Kind(kind source.Kind) string {
	switch kind {
	case source.Index:
		return Fg(color.Cyan)(string(kind))
	case source.Master:
		return Fg(color.Purple)(string(kind))
	default:
		return Faint(string(kind))
	}
}

// Box frames a block of text.
func Box(border lipgloss.Color) lipgloss.Style {
	return New().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Margin(1, 0)
}

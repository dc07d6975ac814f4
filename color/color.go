// Package color names the terminal colors streamgrab prints with.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps an ANSI index or hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// ANSI colors follow the user's terminal theme.
var (
	Red      = New("1")
	Green    = New("2")
	Yellow   = New("3")
	Blue     = New("4")
	Purple   = New("5")
	Cyan     = New("6")
	Gray     = New("8")
	HiRed    = New("9")
	HiGreen  = New("10")
	HiYellow = New("11")
	HiBlue   = New("12")
	HiPurple = New("13")
	HiCyan   = New("14")
)

// Roles map meaning to color so output stays consistent.
var (
	Accent  = HiPurple
	Success = Green
	Failure = Red
	Warning = Yellow
	Muted   = Gray
	Link    = HiBlue
)

// Progress bar gradient.
const (
	ProgressFrom = "#7D56F4"
	ProgressTo   = "#43BF6D"
)

package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var (
	keyword = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Render

	paragraph = lipgloss.NewStyle().
			Width(78).
			Padding(0, 0, 0, 2).
			Render

	faint = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}).
		Render

	failure = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5F87")).
		Render
)

// stderrIsTerminal reports whether progress output goes to a terminal.
func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// termWidth returns the width of stdout, or fallback when it is not a
// terminal.
func termWidth(fallback int) int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fallback
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// preview fits s on one line of at most width cells.
func preview(s string, width int) string {
	s = collapseSpace(s)
	if width <= 1 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// pad right-pads s to width cells.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func collapseSpace(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			if !space {
				out = append(out, ' ')
			}
			space = true
			continue
		}
		space = false
		out = append(out, r)
	}
	return string(out)
}

package controller

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Paint decorates one line of terminal text.
type Paint func(string) string

func plain(s string) string { return s }

// render adapts a lipgloss style's variadic Render to a Paint.
func render(st lipgloss.Style) Paint { return func(s string) string { return st.Render(s) } }

// Styles holds the decorations used when rendering reports.
type Styles struct {
	Dim     Paint
	File    Paint
	Heading Paint
	Pass    Paint
	Fail    Paint
}

// NewStyles returns colored styles, or identity styles when color is off.
func NewStyles(color bool) Styles {
	if !color {
		return Styles{Dim: plain, File: plain, Heading: plain, Pass: plain, Fail: plain}
	}

	return Styles{
		Dim:     render(lipgloss.NewStyle().Faint(true)),
		File:    render(lipgloss.NewStyle().Foreground(lipgloss.Color("11"))),
		Heading: render(lipgloss.NewStyle().Bold(true)),
		Pass:    render(lipgloss.NewStyle().Foreground(lipgloss.Color("2"))),
		Fail:    render(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)),
	}
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

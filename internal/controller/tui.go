package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	m "taptree.dev/pkg/taptree/internal/model"
)

// pagerChrome is the number of terminal rows the pager reserves for its
// status line.
const pagerChrome = 1

// TUI implements UI like SimpleUI, but pages the summary through an
// interactive viewer when it does not fit the terminal.
type TUI struct {
	*SimpleUI
	out    io.Writer
	width  int
	height int
	run    func(ctx context.Context, model tea.Model) error
}

// NewTUI creates a new TUI. The terminal size is read from out when it is
// a terminal.
func NewTUI(out io.Writer, options ...Option) *TUI {
	t := &TUI{
		SimpleUI: NewSimpleUI(out, options...),
		out:      out,
	}

	if f, ok := out.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			t.width = width
			t.height = height
		}
	}

	t.run = t.runProgram

	return t
}

// DisplaySummary prints the summary, or opens the pager when it is taller
// than the terminal.
func (t *TUI) DisplaySummary(ctx context.Context, summaries []m.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := t.summaryText(summaries)

	if !t.needsPagination(text) {
		_, err := io.WriteString(t.out, text)
		return err
	}

	return t.run(ctx, newPagerModel(text, t.width, t.height))
}

func (t *TUI) needsPagination(text string) bool {
	if t.height <= pagerChrome {
		return false
	}

	return strings.Count(text, "\n") > t.height-pagerChrome
}

func (t *TUI) runProgram(ctx context.Context, model tea.Model) error {
	program := tea.NewProgram(model, tea.WithOutput(t.out), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}

	return nil
}

// pagerModel scrolls a rendered report.
type pagerModel struct {
	viewport viewport.Model
	quitting bool
}

func newPagerModel(content string, width, height int) pagerModel {
	vp := viewport.New(width, max(1, height-pagerChrome))
	vp.SetContent(strings.TrimRight(content, "\n"))

	return pagerModel{viewport: vp}
}

func (pm pagerModel) Init() tea.Cmd {
	return nil
}

func (pm pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pm.viewport.Width = msg.Width
		pm.viewport.Height = max(1, msg.Height-pagerChrome)

		return pm, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			pm.quitting = true
			return pm, tea.Quit
		case "g", "home":
			pm.viewport.GotoTop()
			return pm, nil
		case "G", "end":
			pm.viewport.GotoBottom()
			return pm, nil
		}
	}

	var cmd tea.Cmd

	pm.viewport, cmd = pm.viewport.Update(msg)

	return pm, cmd
}

func (pm pagerModel) View() string {
	if pm.quitting {
		return ""
	}

	status := fmt.Sprintf("  %3.f%% | ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit", pm.viewport.ScrollPercent()*100)

	return pm.viewport.View() + "\n" + status
}

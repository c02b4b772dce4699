package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/pest2phpunit/internal/convert"
	"github.com/unbound-force/pest2phpunit/internal/report"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Next     key.Binding
	Prev     key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Next, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Next, k.Prev},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Next:     key.NewBinding(key.WithKeys("n", "tab"), key.WithHelp("n", "next file")),
	Prev:     key.NewBinding(key.WithKeys("p", "shift+tab"), key.WithHelp("p", "previous file")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	leakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// markerModel is the Bubble Tea model for browsing the markers and
// leaks of a conversion run.
type markerModel struct {
	run      *report.Run
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string

	// offsets holds the content line where each listed file starts.
	offsets []int
}

func newMarkerModel(run *report.Run) markerModel {
	content, offsets := renderMarkerContent(run)
	return markerModel{
		run:     run,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: content,
		offsets: offsets,
	}
}

// reviewFiles returns the converted files that need follow-up.
func reviewFiles(run *report.Run) []*convert.Result {
	var out []*convert.Result
	for _, res := range run.Files {
		if res.Converted && !res.Clean() {
			out = append(out, res)
		}
	}
	return out
}

func renderMarkerContent(run *report.Run) (string, []int) {
	if run == nil {
		run = &report.Run{}
	}
	var sb strings.Builder
	var offsets []int
	lines := 0
	write := func(s string) {
		sb.WriteString(s)
		lines += strings.Count(s, "\n")
	}

	files := reviewFiles(run)
	t := run.Totals()
	write(titleStyle.Render(
		fmt.Sprintf("pest2phpunit: %d file(s) to review, %d marker(s), %d leak(s)",
			len(files), t.Markers, t.Leaks)))
	write("\n\n")

	if len(files) == 0 {
		write(statusStyle.Render("Nothing to review: every converted file is clean."))
		write("\n")
	}

	for _, res := range files {
		offsets = append(offsets, lines)
		write(tuiHeaderStyle.Render(fmt.Sprintf("=== %s ===", res.Path)))
		write("\n")
		write(statusStyle.Render(fmt.Sprintf("    class %s, %d test(s)", res.Class, len(res.Tests))))
		write("\n")

		rows := make([][]string, 0, len(res.Markers)+len(res.Leaks))
		for _, m := range res.Markers {
			rows = append(rows, []string{"TODO", strconv.Itoa(m.Line), m.Method, detail(m.Message)})
		}
		for _, l := range res.Leaks {
			rows = append(rows, []string{"LEAK", "", l.Method, detail(l.Code)})
		}

		tbl := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(tuiBorderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return tuiHeaderStyle
				}
				if col == 0 && row >= 0 && row < len(rows) {
					switch rows[row][0] {
					case "TODO":
						return markerStyle
					case "LEAK":
						return leakStyle
					}
				}
				return lipgloss.NewStyle()
			}).
			Headers("KIND", "LINE", "METHOD", "DETAIL").
			Rows(rows...)

		write(tbl.String())
		write("\n\n")
	}

	return sb.String(), offsets
}

// detail shortens a table cell to one line of at most 60 characters.
func detail(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

func (m markerModel) Init() tea.Cmd {
	return nil
}

// jump scrolls to the next (dir > 0) or previous file section.
func (m *markerModel) jump(dir int) {
	current := m.viewport.YOffset
	if dir > 0 {
		for _, off := range m.offsets {
			if off > current {
				m.viewport.SetYOffset(off)
				return
			}
		}
		return
	}
	for i := len(m.offsets) - 1; i >= 0; i-- {
		if m.offsets[i] < current {
			m.viewport.SetYOffset(m.offsets[i])
			return
		}
	}
	m.viewport.GotoTop()
}

func (m markerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 0
		footerHeight := 2
		verticalMargin := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMargin)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMargin
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Next) && m.ready:
			m.jump(1)
			return m, nil
		case key.Matches(msg, m.keys.Prev) && m.ready:
			m.jump(-1)
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m markerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveMarkers launches the Bubble Tea TUI for browsing the
// markers and leaks of a run.
func runInteractiveMarkers(run *report.Run) error {
	model := newMarkerModel(run)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

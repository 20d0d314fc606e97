package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("PIPELINE GRAPH"))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.graphDOT == "":
		s.WriteString("Generating graph...\n")
	default:
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if _, ok := m.store.GetDeal(m.selectedID); ok {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
		m.graphDOT = ""
		m.err = nil
	}

	return m, nil
}

// generateGraph renders the DOT source for the deals on the current tab.
func (m *Model) generateGraph() {
	if m.generator == nil {
		m.graphDOT = ""
		return
	}

	result, err := m.generator.GeneratePipelineGraph(m.ctx, m.visibleDeals(), "dot")
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.graphDOT = string(result.Output)
}

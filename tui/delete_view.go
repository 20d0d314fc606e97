// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Asks before removing a deal from the pipeline
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/viz"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	deal, ok := m.store.GetDeal(m.selectedID)
	if !ok {
		return errorStyle.Render("Error: deal not found")
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := "Are you sure you want to delete this deal?"
	info := fmt.Sprintf("\n%s\n%s · %s\n", deal.Property.Address, deal.Stage.Label(), viz.Money(deal.Value))
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		info,
		warning,
		"",
		buttons,
	)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		deal, _ := m.store.GetDeal(m.selectedID)
		if m.store.DeleteDeal(m.selectedID) {
			m.err = nil
			m.status = fmt.Sprintf("✓ Deleted deal: %s", deal.Property.Address)
		} else {
			m.err = fmt.Errorf("deal not found")
		}
		m.viewMode = ViewList
		m.selectedID = uuid.Nil
		m.clampSelection()
	case "n", "N", "esc":
		if _, ok := m.store.GetDeal(m.selectedID); ok {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
	}

	return m, nil
}

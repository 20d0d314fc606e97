package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/viz"
)

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("DEALDESK PIPELINE"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.searchQuery != "" {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	}

	// Table
	if m.tab == tabStale {
		s.WriteString(m.renderStaleTable())
	} else {
		s.WriteString(m.renderDealsTable())
	}
	s.WriteString("\n")

	s.WriteString(m.renderStatus())

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i := 0; i < numTabs; i++ {
		label := m.tabLabel(i)
		if i == m.tab {
			style := tabActiveStyle
			if stage, ok := tabStage(i); ok {
				cfg, _ := models.StageInfo(stage)
				style = style.Foreground(stageColors[cfg.Color])
			}
			rendered = append(rendered, style.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) tabLabel(i int) string {
	switch i {
	case tabAll:
		return fmt.Sprintf("All (%d)", m.store.Len())
	case tabStale:
		return "Stale"
	}
	stage, _ := tabStage(i)
	return fmt.Sprintf("%s (%d)", stage.Label(), m.store.GetStageStats(stage).Count)
}

// tabStage returns the stage shown by a stage tab.
func tabStage(i int) (models.Stage, bool) {
	stages := models.Stages()
	if i < 1 || i > len(stages) {
		return "", false
	}
	return stages[i-1], true
}

// visibleDeals returns the rows for the current tab and search query.
func (m Model) visibleDeals() []models.Deal {
	var deals []models.Deal
	switch {
	case m.tab == tabStale:
		deals = staleDeals(m.store.Deals())
	default:
		deals = m.store.SearchDeals(m.searchQuery)
		if stage, ok := tabStage(m.tab); ok {
			filtered := deals[:0]
			for _, d := range deals {
				if d.Stage == stage {
					filtered = append(filtered, d)
				}
			}
			deals = filtered
		}
	}
	return deals
}

func (m Model) renderDealsTable() string {
	deals := m.visibleDeals()
	if len(deals) == 0 {
		return helpStyle.Render("No deals")
	}

	columns := []table.Column{
		{Title: "Address", Width: 28},
		{Title: "Contact", Width: 18},
		{Title: "Stage", Width: 15},
		{Title: "Value", Width: 12},
		{Title: "Priority", Width: 8},
		{Title: "Days", Width: 5},
	}

	var rows []table.Row
	for _, deal := range deals {
		rows = append(rows, table.Row{
			deal.Property.Address,
			deal.Contact.Name,
			deal.Stage.Label(),
			viz.Money(deal.Value),
			string(deal.Priority),
			fmt.Sprintf("%d", deal.DaysInStage),
		})
	}

	return m.newTable(columns, rows).View()
}

func (m Model) newTable(columns []table.Column, rows []table.Row) table.Model {
	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	case m.status != "":
		return statusStyle.Render(m.status) + "\n"
	}
	return ""
}

func (m Model) renderListHelp() string {
	if m.searching {
		return helpStyle.Render("Enter: Apply • Esc: Clear search")
	}
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch stage",
		"Enter: View details",
		">/<: Move stage",
		"/: Search",
		"n: New",
		"d: Delete",
		"g: Graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.visibleDeals())-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % numTabs
		m.selectedRow = 0
	case "shift+tab":
		m.tab = (m.tab + numTabs - 1) % numTabs
		m.selectedRow = 0
	case "enter":
		if id, ok := m.selectedDealID(); ok {
			m.selectedID = id
			m.viewMode = ViewDetail
			m.status = ""
		}
	case ">", "l":
		if id, ok := m.selectedDealID(); ok {
			m.moveDeal(id, true)
			m.clampSelection()
		}
	case "<", "h":
		if id, ok := m.selectedDealID(); ok {
			m.moveDeal(id, false)
			m.clampSelection()
		}
	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case "n":
		m.selectedID = uuid.Nil
		m.viewMode = ViewEdit
		m.initFormInputs()
	case "d":
		if id, ok := m.selectedDealID(); ok {
			m.selectedID = id
			m.viewMode = ViewConfirmDelete
		}
	case "g":
		m.selectedID = uuid.Nil
		m.viewMode = ViewGraph
		m.generateGraph()
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.selectedRow = 0
		return m, nil
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.searchQuery = m.searchInput.Value()
	m.selectedRow = 0
	return m, cmd
}

func (m Model) selectedDealID() (id uuid.UUID, ok bool) {
	deals := m.visibleDeals()
	if m.selectedRow < 0 || m.selectedRow >= len(deals) {
		return id, false
	}
	return deals[m.selectedRow].ID, true
}

func (m *Model) clampSelection() {
	n := len(m.visibleDeals())
	if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

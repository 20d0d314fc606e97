package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/viz"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginTop(1)
)

// historyLimit caps the stage history and activity lines shown.
const historyLimit = 8

func (m Model) renderDetailView() string {
	var s strings.Builder

	deal, ok := m.store.GetDeal(m.selectedID)
	if !ok {
		s.WriteString(titleStyle.Render("DEAL"))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("Deal not found"))
		s.WriteString("\n\n")
		s.WriteString(m.renderDetailHelp())
		return s.String()
	}

	cfg, _ := models.StageInfo(deal.Stage)
	stageStyle := lipgloss.NewStyle().Bold(true).Foreground(stageColors[cfg.Color])

	s.WriteString(titleStyle.Render(strings.ToUpper(deal.Property.Address)))
	s.WriteString("\n")
	s.WriteString(stageStyle.Render("● " + deal.Stage.Label()))
	s.WriteString("\n\n")

	s.WriteString(m.renderDealDetail(deal))
	s.WriteString(m.renderStageHistory(deal))
	s.WriteString(m.renderActivity(deal))
	s.WriteString("\n")
	s.WriteString(m.renderStatus())

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderDealDetail(deal models.Deal) string {
	var s strings.Builder

	p := deal.Property
	location := strings.TrimSpace(strings.Join(nonEmpty(p.City, p.State, p.Zip), ", "))
	s.WriteString(m.renderField("Location", location))
	s.WriteString(m.renderField("Value", viz.Money(deal.Value)))
	if !p.Price.IsZero() {
		s.WriteString(m.renderField("Asking", viz.Money(p.Price)))
	}
	if p.ARV != nil {
		s.WriteString(m.renderField("ARV", viz.Money(*p.ARV)))
	}
	if spread, ok := deal.Spread(); ok {
		s.WriteString(m.renderField("Spread", viz.Money(spread)))
	}
	s.WriteString(m.renderField("Strategy", deal.Strategy.Label()))
	s.WriteString(m.renderField("Priority", string(deal.Priority)))
	s.WriteString(m.renderField("Contact", contactLine(deal.Contact)))
	s.WriteString(m.renderField("In stage", fmt.Sprintf("%d days", deal.DaysInStage)))
	s.WriteString(m.renderField("Last activity", deal.LastActivity))
	s.WriteString(m.renderField("Tags", strings.Join(deal.Tags, ", ")))
	s.WriteString(m.renderField("Notes", deal.Notes))

	return s.String()
}

func (m Model) renderStageHistory(deal models.Deal) string {
	var s strings.Builder
	s.WriteString(sectionStyle.Render("Stage history"))
	s.WriteString("\n")

	history := deal.StageHistory
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		line := fmt.Sprintf("  %-15s %s by %s", h.Stage.Label(), humanize.RelTime(h.Timestamp, m.now(), "ago", "from now"), h.Actor)
		if h.Notes != "" {
			line += " (" + h.Notes + ")"
		}
		s.WriteString(fieldValueStyle.Render(line))
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) renderActivity(deal models.Deal) string {
	if len(deal.Activities) == 0 {
		return ""
	}

	var s strings.Builder
	s.WriteString(sectionStyle.Render("Activity"))
	s.WriteString("\n")

	activities := deal.Activities
	if len(activities) > historyLimit {
		activities = activities[len(activities)-historyLimit:]
	}
	for i := len(activities) - 1; i >= 0; i-- {
		a := activities[i]
		s.WriteString(fieldValueStyle.Render(fmt.Sprintf("  %-12s %s", humanize.RelTime(a.Timestamp, m.now(), "ago", "from now"), a.Description)))
		s.WriteString("\n")
	}
	return s.String()
}

func contactLine(c models.Contact) string {
	return strings.Join(nonEmpty(c.Name, c.Phone, c.Email), " · ")
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		">/<: Move stage",
		"e: Edit",
		"d: Delete",
		"g: View graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.clampSelection()
	case ">", "l":
		m.moveDeal(m.selectedID, true)
	case "<", "h":
		m.moveDeal(m.selectedID, false)
	case "e":
		m.viewMode = ViewEdit
		m.initFormInputs()
		return m, textinput.Blink
	case "d":
		m.viewMode = ViewConfirmDelete
	case "g":
		m.viewMode = ViewGraph
		m.generateGraph()
	}

	return m, nil
}

// moveDeal advances or rewinds a deal one stage along the pipeline.
func (m *Model) moveDeal(id uuid.UUID, forward bool) {
	deal, ok := m.store.GetDeal(id)
	if !ok {
		m.err = fmt.Errorf("deal not found")
		return
	}

	next, ok := deal.Stage.Prev()
	if forward {
		next, ok = deal.Stage.Next()
	}
	if !ok {
		m.status = fmt.Sprintf("%s has no %s stage", deal.Stage.Label(), direction(forward))
		return
	}

	if _, ok := m.store.MoveDeal(id, next, ""); !ok {
		m.err = fmt.Errorf("deal not found")
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("✓ Moved %s to %s", deal.Property.Address, next.Label())
}

func direction(forward bool) string {
	if forward {
		return "next"
	}
	return "previous"
}

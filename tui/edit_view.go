package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/shopspring/decimal"
)

// Form field positions.
const (
	fieldAddress = iota
	fieldCity
	fieldState
	fieldContact
	fieldPhone
	fieldValue
	fieldPriority
	fieldStrategy
	fieldNotes
	numFields
)

func (m Model) renderEditView() string {
	var s strings.Builder

	// Title
	if m.selectedID == uuid.Nil {
		s.WriteString(titleStyle.Render("NEW DEAL"))
	} else {
		s.WriteString(titleStyle.Render("EDIT DEAL"))
	}
	s.WriteString("\n\n")

	// Form fields
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		if m.selectedID == uuid.Nil {
			m.viewMode = ViewList
		} else {
			m.viewMode = ViewDetail
		}
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		id, err := m.saveDeal()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.selectedID = id
		m.viewMode = ViewDetail
		return m, nil
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initFormInputs() {
	placeholders := [numFields]string{
		fieldAddress:  "Address",
		fieldCity:     "City",
		fieldState:    "State",
		fieldContact:  "Contact name",
		fieldPhone:    "Contact phone",
		fieldValue:    "Value (e.g. 185000)",
		fieldPriority: "Priority (low, medium, high)",
		fieldStrategy: "Strategy (wholesaling, flipping, rentals, subjectTo, brrrr, commercial)",
		fieldNotes:    "Notes",
	}

	inputs := make([]textinput.Model, numFields)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].CharLimit = 100
	}
	inputs[fieldNotes].CharLimit = 500

	// If editing, populate fields
	if deal, ok := m.store.GetDeal(m.selectedID); ok && m.selectedID != uuid.Nil {
		inputs[fieldAddress].SetValue(deal.Property.Address)
		inputs[fieldCity].SetValue(deal.Property.City)
		inputs[fieldState].SetValue(deal.Property.State)
		inputs[fieldContact].SetValue(deal.Contact.Name)
		inputs[fieldPhone].SetValue(deal.Contact.Phone)
		inputs[fieldValue].SetValue(deal.Value.String())
		inputs[fieldPriority].SetValue(string(deal.Priority))
		inputs[fieldStrategy].SetValue(string(deal.Strategy))
		inputs[fieldNotes].SetValue(deal.Notes)
	}

	m.formInputs = inputs
	m.focusIndex = 0
	m.err = nil
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

// saveDeal creates or updates the deal from the form and returns its id.
func (m *Model) saveDeal() (uuid.UUID, error) {
	field := func(i int) string { return strings.TrimSpace(m.formInputs[i].Value()) }

	address := field(fieldAddress)
	if address == "" {
		return uuid.Nil, fmt.Errorf("address is required")
	}

	value := decimal.Zero
	if raw := strings.NewReplacer("$", "", ",", "").Replace(field(fieldValue)); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			return uuid.Nil, fmt.Errorf("invalid value: %s", field(fieldValue))
		}
		value = v
	}

	priority := models.PriorityMedium
	if raw := field(fieldPriority); raw != "" {
		priority = models.Priority(raw)
		if !priority.IsValid() {
			return uuid.Nil, fmt.Errorf("invalid priority: %s", raw)
		}
	}

	strategy := models.StrategyWholesaling
	if raw := field(fieldStrategy); raw != "" {
		strategy = models.Strategy(raw)
		if !strategy.IsValid() {
			return uuid.Nil, fmt.Errorf("invalid strategy: %s", raw)
		}
	}

	notes := field(fieldNotes)

	if m.selectedID == uuid.Nil {
		stage := models.StageLead
		if s, ok := tabStage(m.tab); ok {
			stage = s
		}
		deal := m.store.AddDeal(models.DealInput{
			Property: models.Property{Address: address, City: field(fieldCity), State: field(fieldState)},
			Contact:  models.Contact{ID: uuid.NewString(), Name: field(fieldContact), Phone: field(fieldPhone)},
			Stage:    stage,
			Value:    value,
			Priority: priority,
			Strategy: strategy,
			Notes:    notes,
		})
		m.status = fmt.Sprintf("✓ Created deal: %s", address)
		return deal.ID, nil
	}

	existing, ok := m.store.GetDeal(m.selectedID)
	if !ok {
		return uuid.Nil, fmt.Errorf("deal not found")
	}
	property := existing.Property.Clone()
	property.Address = address
	property.City = field(fieldCity)
	property.State = field(fieldState)
	contact := existing.Contact
	contact.Name = field(fieldContact)
	contact.Phone = field(fieldPhone)

	if !m.store.UpdateDeal(m.selectedID, models.DealPatch{
		Property: &property,
		Contact:  &contact,
		Value:    &value,
		Priority: &priority,
		Strategy: &strategy,
		Notes:    &notes,
	}) {
		return uuid.Nil, fmt.Errorf("deal not found")
	}
	m.status = fmt.Sprintf("✓ Updated deal: %s", address)
	return m.selectedID, nil
}

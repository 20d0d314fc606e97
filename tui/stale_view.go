// ABOUTME: TUI view for deals that need attention
// ABOUTME: Lists open deals sitting in one stage longer than the stale threshold
package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/viz"
)

// staleDeals returns open deals past viz.StaleAfterDays, longest wait first.
func staleDeals(deals []models.Deal) []models.Deal {
	var stale []models.Deal
	for _, d := range deals {
		if !d.Stage.IsClosed() && d.DaysInStage > viz.StaleAfterDays {
			stale = append(stale, d)
		}
	}
	sort.SliceStable(stale, func(i, j int) bool {
		return stale[i].DaysInStage > stale[j].DaysInStage
	})
	return stale
}

func (m Model) renderStaleTable() string {
	deals := m.visibleDeals()
	if len(deals) == 0 {
		return helpStyle.Render("Nothing stale. Every open deal moved in the last two weeks.")
	}

	columns := []table.Column{
		{Title: "Status", Width: 6},
		{Title: "Address", Width: 28},
		{Title: "Stage", Width: 15},
		{Title: "Days", Width: 6},
		{Title: "Priority", Width: 8},
		{Title: "Contact", Width: 18},
	}

	var rows []table.Row
	for _, d := range deals {
		indicator := "🟡"
		if d.DaysInStage > 2*viz.StaleAfterDays {
			indicator = "🔴"
		}

		rows = append(rows, table.Row{
			indicator,
			d.Property.Address,
			d.Stage.Label(),
			fmt.Sprintf("%d", d.DaysInStage),
			string(d.Priority),
			d.Contact.Name,
		})
	}

	return m.newTable(columns, rows).View()
}

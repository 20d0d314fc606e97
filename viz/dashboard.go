// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides an ASCII overview of the deal pipeline
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harperreed/dealdesk/models"
	"github.com/shopspring/decimal"
)

// StaleAfterDays is how long an open deal may sit in one stage before the
// dashboard flags it.
const StaleAfterDays = 14

type DashboardStats struct {
	Pipeline []models.StageStats

	TotalDeals int
	OpenValue  decimal.Decimal
	WonValue   decimal.Decimal

	// Activity from the last 7 days, newest first.
	RecentActivity []ActivityItem

	StaleDeals []StaleDeal
}

type ActivityItem struct {
	Date        time.Time
	Address     string
	Description string
}

type StaleDeal struct {
	Address string
	Stage   models.Stage
	Days    int
}

// GenerateDashboardStats summarizes deals as of now.
func GenerateDashboardStats(deals []models.Deal, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		TotalDeals: len(deals),
		OpenValue:  decimal.Zero,
		WonValue:   decimal.Zero,
	}

	byStage := make(map[models.Stage]*models.StageStats)
	for _, stage := range models.Stages() {
		byStage[stage] = &models.StageStats{Stage: stage, TotalValue: decimal.Zero}
	}

	weekAgo := now.AddDate(0, 0, -7)
	for _, d := range deals {
		if s, ok := byStage[d.Stage]; ok {
			s.Count++
			s.TotalValue = s.TotalValue.Add(d.Value)
		}

		switch {
		case d.Stage == models.StageClosedWon:
			stats.WonValue = stats.WonValue.Add(d.Value)
		case !d.Stage.IsClosed():
			stats.OpenValue = stats.OpenValue.Add(d.Value)
			if d.DaysInStage > StaleAfterDays {
				stats.StaleDeals = append(stats.StaleDeals, StaleDeal{
					Address: d.Property.Address,
					Stage:   d.Stage,
					Days:    d.DaysInStage,
				})
			}
		}

		for _, a := range d.Activities {
			if a.Timestamp.After(weekAgo) && !a.Timestamp.After(now) {
				stats.RecentActivity = append(stats.RecentActivity, ActivityItem{
					Date:        a.Timestamp,
					Address:     d.Property.Address,
					Description: a.Description,
				})
			}
		}
	}

	for _, stage := range models.Stages() {
		stats.Pipeline = append(stats.Pipeline, *byStage[stage])
	}
	sort.SliceStable(stats.RecentActivity, func(i, j int) bool {
		return stats.RecentActivity[i].Date.After(stats.RecentActivity[j].Date)
	})
	sort.SliceStable(stats.StaleDeals, func(i, j int) bool {
		return stats.StaleDeals[i].Days > stats.StaleDeals[j].Days
	})
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  DEALDESK PIPELINE\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, stats.Pipeline)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  🏠 %d deals  📈 %s open  🏆 %s won\n\n",
		stats.TotalDeals, Money(stats.OpenValue), Money(stats.WonValue)))

	if len(stats.RecentActivity) > 0 {
		out.WriteString("RECENT ACTIVITY\n")
		for i, a := range stats.RecentActivity {
			if i == 5 {
				out.WriteString(fmt.Sprintf("  … and %d more\n", len(stats.RecentActivity)-5))
				break
			}
			out.WriteString(fmt.Sprintf("  %s  %s: %s\n", a.Date.Format("Jan 02"), a.Address, a.Description))
		}
		out.WriteString("\n")
	}

	if len(stats.StaleDeals) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d deals - no stage change in %d+ days\n", len(stats.StaleDeals), StaleAfterDays))
		for _, s := range stats.StaleDeals {
			out.WriteString(fmt.Sprintf("     %s (%s, %d days)\n", s.Address, s.Stage.Label(), s.Days))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline []models.StageStats) {
	maxCount := 0
	for _, s := range pipeline {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, s := range pipeline {
		barLength := (s.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-15s %s  %2d  %s\n", s.Stage.Label(), bar, s.Count, Money(s.TotalValue)))
	}
}

// Money formats d as whole dollars with thousands separators.
func Money(d decimal.Decimal) string {
	return "$" + humanize.Comma(d.Round(0).IntPart())
}

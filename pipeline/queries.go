// ABOUTME: Read-side operations over the deal pipeline
// ABOUTME: Stage lookup, contact matching, stage stats, search, and conjunctive filters
package pipeline

import (
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/shopspring/decimal"
)

// GetDeal returns a copy of the deal with id.
func (s *Store) GetDeal(id uuid.UUID) (models.Deal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.deals, id)
	if i < 0 {
		return models.Deal{}, false
	}
	return s.deals[i].Clone(), true
}

// Deals returns every deal in insertion order.
func (s *Store) Deals() []models.Deal {
	return s.where(func(models.Deal) bool { return true })
}

// Len returns the number of deals.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deals)
}

// GetDealsByStage returns the deals currently in stage, in insertion order.
func (s *Store) GetDealsByStage(stage models.Stage) []models.Deal {
	return s.where(func(d models.Deal) bool { return d.Stage == stage })
}

// GetDealsByContact matches on the embedded contact id.
func (s *Store) GetDealsByContact(contactID string) []models.Deal {
	return s.where(func(d models.Deal) bool { return d.Contact.ID == contactID })
}

// GetStageStats counts the deals in stage and sums their values.
func (s *Store) GetStageStats(stage models.Stage) models.StageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.StageStats{Stage: stage, TotalValue: decimal.Zero}
	for _, d := range s.deals {
		if d.Stage == stage {
			stats.Count++
			stats.TotalValue = stats.TotalValue.Add(d.Value)
		}
	}
	return stats
}

// AllStageStats returns one entry per stage in pipeline order.
func (s *Store) AllStageStats() []models.StageStats {
	stages := models.Stages()
	out := make([]models.StageStats, 0, len(stages))
	for _, stage := range stages {
		out = append(out, s.GetStageStats(stage))
	}
	return out
}

// SearchDeals matches query case-insensitively against the property address,
// contact name, notes and tags. An empty query matches every deal.
func (s *Store) SearchDeals(query string) []models.Deal {
	q := strings.ToLower(query)
	return s.where(func(d models.Deal) bool { return matchesQuery(d, q) })
}

// FilterDeals applies every non-nil filter with AND semantics. Range bounds are
// inclusive; the date range is compared against CreatedAt.
func (s *Store) FilterDeals(filters models.DealFilters) []models.Deal {
	return s.where(func(d models.Deal) bool { return matchesFilters(d, filters) })
}

func (s *Store) where(pred func(models.Deal) bool) []models.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Deal, 0)
	for _, d := range s.deals {
		if pred(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}

func matchesQuery(d models.Deal, lowered string) bool {
	if strings.Contains(strings.ToLower(d.Property.Address), lowered) ||
		strings.Contains(strings.ToLower(d.Contact.Name), lowered) ||
		strings.Contains(strings.ToLower(d.Notes), lowered) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), lowered) {
			return true
		}
	}
	return false
}

func matchesFilters(d models.Deal, f models.DealFilters) bool {
	if f.Stage != nil && d.Stage != *f.Stage {
		return false
	}
	if f.Priority != nil && d.Priority != *f.Priority {
		return false
	}
	if f.Strategy != nil && d.Strategy != *f.Strategy {
		return false
	}
	if r := f.ValueRange; r != nil {
		if d.Value.LessThan(r.Min) || d.Value.GreaterThan(r.Max) {
			return false
		}
	}
	if r := f.DateRange; r != nil {
		if d.CreatedAt.Before(r.Start) || d.CreatedAt.After(r.End) {
			return false
		}
	}
	return true
}

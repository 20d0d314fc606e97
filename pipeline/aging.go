// ABOUTME: Stage aging for the deal pipeline
// ABOUTME: Recomputes days-in-stage and relative last-activity labels
package pipeline

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harperreed/dealdesk/models"
	"go.uber.org/zap"
)

// RefreshAging recomputes DaysInStage and LastActivity for every deal as of
// now. UpdatedAt is left alone: these are display fields. It returns the number
// of deals whose display fields changed.
func (s *Store) RefreshAging(now time.Time) int {
	s.mu.Lock()

	next := s.copyDeals()
	changed := 0
	for i := range next {
		d := next[i]
		days, last := agingFor(d, now)
		if days == d.DaysInStage && last == d.LastActivity {
			continue
		}
		d = d.Clone()
		d.DaysInStage = days
		d.LastActivity = last
		next[i] = d
		s.save(d)
		changed++
	}

	if changed == 0 {
		s.mu.Unlock()
		return 0
	}

	s.logger.Debug("pipeline aging refreshed", zap.Int("changed", changed))
	s.commit(next, Event{Kind: EventAged})
	return changed
}

func agingFor(d models.Deal, now time.Time) (int, string) {
	enteredAt := d.CreatedAt
	if n := len(d.StageHistory); n > 0 {
		enteredAt = d.StageHistory[n-1].Timestamp
	}

	days := 0
	if now.After(enteredAt) {
		days = int(now.Sub(enteredAt).Hours() / 24)
	}

	lastAt := d.UpdatedAt
	if n := len(d.Activities); n > 0 && d.Activities[n-1].Timestamp.After(lastAt) {
		lastAt = d.Activities[n-1].Timestamp
	}
	if now.Sub(lastAt) < time.Minute {
		return days, models.LastActivityJustNow
	}
	return days, humanize.RelTime(lastAt, now, "ago", "from now")
}

// ABOUTME: In-memory deal pipeline store with copy-on-write snapshots
// ABOUTME: Owns all deal state; create, update, move-stage, and delete operations
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// DefaultActor is recorded in stage history when no actor is configured.
const DefaultActor = "system"

// Repository persists deals behind the store. Every mutation writes through;
// the store stays the source of truth for the session.
type Repository interface {
	LoadDeals(ctx context.Context) ([]models.Deal, error)
	SaveDeal(ctx context.Context, deal models.Deal) error
	DeleteDeal(ctx context.Context, id uuid.UUID) error
}

// EventKind names the mutation that produced a snapshot.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventMoved   EventKind = "moved"
	EventDeleted EventKind = "deleted"
	EventAged    EventKind = "aged"
	EventLoaded  EventKind = "loaded"
)

// Event describes a single mutation.
type Event struct {
	Kind   EventKind
	DealID uuid.UUID
	From   models.Stage
	To     models.Stage
}

// Snapshot is the full deal list after a mutation. Deals is never modified
// after publication; subscribers must treat it as read-only.
type Snapshot struct {
	Version uint64
	Event   Event
	Deals   []models.Deal
}

// Store is the single owner of deal state for a session.
type Store struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex
	subsMu   sync.RWMutex

	deals   []models.Deal
	version uint64

	now     func() time.Time
	newID   func() uuid.UUID
	actor   string
	logger  *zap.Logger
	repo    Repository
	entropy *ulid.MonotonicEntropy

	subs    map[int]func(Snapshot)
	nextSub int
	pending []Snapshot
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces uuid.New for deal identifiers.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) { s.newID = gen }
}

// WithActor sets the actor recorded for stage changes.
func WithActor(actor string) Option {
	return func(s *Store) {
		if actor != "" {
			s.actor = actor
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRepository(repo Repository) Option {
	return func(s *Store) { s.repo = repo }
}

// WithSeed preloads fully formed deals, keeping their ids and timestamps.
func WithSeed(deals []models.Deal) Option {
	return func(s *Store) {
		for _, d := range deals {
			s.deals = append(s.deals, normalize(d.Clone(), s.actor))
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		newID:  uuid.New,
		actor:  DefaultActor,
		logger: zap.NewNop(),
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entropy = ulid.Monotonic(rand.New(rand.NewSource(s.now().UnixNano())), 0)
	return s
}

// Load replaces the in-memory deals with the repository contents.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	deals, err := s.repo.LoadDeals(ctx)
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}

	s.mu.Lock()
	next := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		next = append(next, normalize(d, s.actor))
	}
	s.commit(next, Event{Kind: EventLoaded})
	s.logger.Info("pipeline loaded", zap.Int("deals", len(next)))
	return nil
}

// Import inserts fully formed deals, keeping ids and timestamps. Deals whose id
// already exists are skipped. It returns the number inserted.
func (s *Store) Import(deals ...models.Deal) int {
	s.mu.Lock()

	next := s.copyDeals()
	inserted := 0
	for _, d := range deals {
		if indexOf(next, d.ID) >= 0 {
			continue
		}
		d = normalize(d.Clone(), s.actor)
		next = append(next, d)
		s.save(d)
		inserted++
	}
	if inserted == 0 {
		s.mu.Unlock()
		return 0
	}
	s.commit(next, Event{Kind: EventLoaded})
	return inserted
}

// AddDeal creates a deal from input. It never fails and performs no validation.
func (s *Store) AddDeal(input models.DealInput) models.Deal {
	s.mu.Lock()

	now := s.now()
	deal := models.Deal{
		ID:           s.newID(),
		Property:     input.Property.Clone(),
		Contact:      input.Contact,
		Stage:        input.Stage,
		Value:        input.Value,
		Priority:     input.Priority,
		Strategy:     input.Strategy,
		CreatedAt:    now,
		UpdatedAt:    now,
		StageHistory: []models.StageChange{{
			Stage:     input.Stage,
			Timestamp: now,
			Actor:     s.actor,
		}},
		Messages:     []models.Message{},
		Documents:    []models.Document{},
		Activities:   []models.Activity{},
		Notes:        input.Notes,
		Tags:         uniqueTags(nil, input.Tags...),
		DaysInStage:  0,
		LastActivity: models.LastActivityJustNow,
	}
	deal.Activities = append(deal.Activities, s.activity(now, models.ActivityCreated,
		fmt.Sprintf("Deal created in %s", deal.Stage.Label()), s.actor))

	next := append(s.copyDeals(), deal)
	s.save(deal)
	s.logger.Debug("deal added", zap.String("id", deal.ID.String()), zap.String("stage", string(deal.Stage)))
	s.commit(next, Event{Kind: EventAdded, DealID: deal.ID, To: deal.Stage})

	return deal.Clone()
}

// UpdateDeal merges patch into the deal with id. Unknown ids are a no-op and
// return false. Stage is not patchable; use MoveDeal.
func (s *Store) UpdateDeal(id uuid.UUID, patch models.DealPatch) bool {
	return s.mutate(id, Event{Kind: EventUpdated, DealID: id}, func(d *models.Deal, now time.Time) {
		var changed []string
		if patch.Property != nil {
			d.Property = patch.Property.Clone()
			changed = append(changed, "property")
		}
		if patch.Contact != nil {
			d.Contact = *patch.Contact
			changed = append(changed, "contact")
		}
		if patch.Value != nil {
			d.Value = *patch.Value
			changed = append(changed, "value")
		}
		if patch.Priority != nil {
			d.Priority = *patch.Priority
			changed = append(changed, "priority")
		}
		if patch.Strategy != nil {
			d.Strategy = *patch.Strategy
			changed = append(changed, "strategy")
		}
		if patch.Notes != nil {
			d.Notes = *patch.Notes
			changed = append(changed, "notes")
		}
		if patch.Tags != nil {
			d.Tags = uniqueTags(nil, patch.Tags...)
			changed = append(changed, "tags")
		}
		if len(changed) > 0 {
			d.Activities = append(d.Activities, s.activity(now, models.ActivityUpdated,
				"Updated "+strings.Join(changed, ", "), s.actor))
		}
		d.UpdatedAt = now
	})
}

// MoveDeal moves a deal to stage using the store's actor. Any stage may follow
// any other, including the current one.
func (s *Store) MoveDeal(id uuid.UUID, stage models.Stage, notes string) (models.Deal, bool) {
	return s.MoveDealAs(id, stage, s.actor, notes)
}

// MoveDealAs moves a deal to stage, recording actor in the history entry.
func (s *Store) MoveDealAs(id uuid.UUID, stage models.Stage, actor, notes string) (models.Deal, bool) {
	if actor == "" {
		actor = s.actor
	}

	var moved models.Deal
	ev := Event{Kind: EventMoved, DealID: id, To: stage}
	ok := s.mutateEvent(id, &ev, func(d *models.Deal, now time.Time) {
		ev.From = d.Stage
		d.StageHistory = append(d.StageHistory, models.StageChange{
			Stage:     stage,
			Timestamp: now,
			Actor:     actor,
			Notes:     notes,
		})
		d.Activities = append(d.Activities, s.activity(now, models.ActivityStageChange,
			fmt.Sprintf("Moved to %s", stage.Label()), actor))
		d.Stage = stage
		d.UpdatedAt = now
		d.DaysInStage = 0
		d.LastActivity = models.LastActivityJustNow
		moved = d.Clone()
	})
	if ok {
		s.logger.Info("deal moved",
			zap.String("id", id.String()),
			zap.String("from", string(ev.From)),
			zap.String("to", string(stage)),
			zap.String("actor", actor))
	}
	return moved, ok
}

// DeleteDeal removes a deal. Unknown ids are a no-op and return false.
func (s *Store) DeleteDeal(id uuid.UUID) bool {
	s.mu.Lock()

	i := indexOf(s.deals, id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	stage := s.deals[i].Stage
	next := make([]models.Deal, 0, len(s.deals)-1)
	next = append(next, s.deals[:i]...)
	next = append(next, s.deals[i+1:]...)

	if s.repo != nil {
		if err := s.repo.DeleteDeal(context.Background(), id); err != nil {
			s.logger.Error("failed to delete deal from repository", zap.String("id", id.String()), zap.Error(err))
		}
	}
	s.logger.Debug("deal deleted", zap.String("id", id.String()))
	s.commit(next, Event{Kind: EventDeleted, DealID: id, From: stage})
	return true
}

// AddNote records a note in the deal's activity trail.
func (s *Store) AddNote(id uuid.UUID, actor, text string) bool {
	if actor == "" {
		actor = s.actor
	}
	return s.mutate(id, Event{Kind: EventUpdated, DealID: id}, func(d *models.Deal, now time.Time) {
		d.Activities = append(d.Activities, s.activity(now, models.ActivityNote, text, actor))
		d.UpdatedAt = now
	})
}

// AddMessage appends to the deal's communication log.
func (s *Store) AddMessage(id uuid.UUID, msg models.Message) bool {
	return s.mutate(id, Event{Kind: EventUpdated, DealID: id}, func(d *models.Deal, now time.Time) {
		if msg.ID == "" {
			msg.ID = s.nextULID(now)
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = now
		}
		d.Messages = append(d.Messages, msg)
		d.Activities = append(d.Activities, s.activity(now, models.ActivityMessage,
			fmt.Sprintf("%s message from %s", msg.Direction, msg.Author), msg.Author))
		d.UpdatedAt = now
	})
}

// AddDocument attaches a document record to the deal.
func (s *Store) AddDocument(id uuid.UUID, doc models.Document) bool {
	return s.mutate(id, Event{Kind: EventUpdated, DealID: id}, func(d *models.Deal, now time.Time) {
		if doc.ID == "" {
			doc.ID = s.nextULID(now)
		}
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = now
		}
		d.Documents = append(d.Documents, doc)
		d.Activities = append(d.Activities, s.activity(now, models.ActivityDocument,
			fmt.Sprintf("Document attached: %s", doc.Name), s.actor))
		d.UpdatedAt = now
	})
}

// AddTag adds tag unless the deal already has it.
func (s *Store) AddTag(id uuid.UUID, tag string) bool {
	return s.mutate(id, Event{Kind: EventUpdated, DealID: id}, func(d *models.Deal, now time.Time) {
		d.Tags = uniqueTags(d.Tags, tag)
		d.UpdatedAt = now
	})
}

// Subscribe registers fn for every published snapshot. Snapshots are delivered
// in version order, after the mutating call has released the store.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// Snapshot returns the current version and deal list.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Version: s.version, Deals: s.deals}
}

func (s *Store) mutate(id uuid.UUID, ev Event, fn func(d *models.Deal, now time.Time)) bool {
	return s.mutateEvent(id, &ev, fn)
}

// mutateEvent clones the target deal into a fresh slice, applies fn, persists
// and publishes. ev may be filled in by fn.
func (s *Store) mutateEvent(id uuid.UUID, ev *Event, fn func(d *models.Deal, now time.Time)) bool {
	s.mu.Lock()

	i := indexOf(s.deals, id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	next := s.copyDeals()
	deal := next[i].Clone()
	fn(&deal, s.now())
	next[i] = deal

	s.save(deal)
	s.commit(next, *ev)
	return true
}

// commit installs next, bumps the version and queues a snapshot. Must be
// called with mu held; it releases mu before delivering.
func (s *Store) commit(next []models.Deal, ev Event) {
	s.deals = next
	s.version++
	s.pending = append(s.pending, Snapshot{Version: s.version, Event: ev, Deals: next})
	s.mu.Unlock()

	s.deliver()
}

// deliver drains queued snapshots. Only one goroutine drains at a time; a
// mutation made from inside a subscriber is picked up by the outer loop.
func (s *Store) deliver() {
	for {
		if !s.notifyMu.TryLock() {
			return
		}
		for {
			snap, ok := s.popPending()
			if !ok {
				break
			}
			s.subsMu.RLock()
			subs := make([]func(Snapshot), 0, len(s.subs))
			for _, fn := range s.subs {
				subs = append(subs, fn)
			}
			s.subsMu.RUnlock()

			for _, fn := range subs {
				fn(snap)
			}
		}
		s.notifyMu.Unlock()

		s.mu.RLock()
		more := len(s.pending) > 0
		s.mu.RUnlock()
		if !more {
			return
		}
	}
}

func (s *Store) popPending() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return Snapshot{}, false
	}
	snap := s.pending[0]
	s.pending = s.pending[1:]
	return snap, true
}

func (s *Store) save(d models.Deal) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveDeal(context.Background(), d); err != nil {
		s.logger.Error("failed to save deal to repository", zap.String("id", d.ID.String()), zap.Error(err))
	}
}

func (s *Store) copyDeals() []models.Deal {
	next := make([]models.Deal, len(s.deals), len(s.deals)+1)
	copy(next, s.deals)
	return next
}

func (s *Store) activity(now time.Time, kind, description, actor string) models.Activity {
	return models.Activity{
		ID:          s.nextULID(now),
		Timestamp:   now,
		Kind:        kind,
		Description: description,
		Actor:       actor,
	}
}

func (s *Store) nextULID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

func indexOf(deals []models.Deal, id uuid.UUID) int {
	for i := range deals {
		if deals[i].ID == id {
			return i
		}
	}
	return -1
}

func uniqueTags(existing []string, tags ...string) []string {
	out := append(make([]string, 0, len(existing)+len(tags)), existing...)
	for _, t := range tags {
		if t == "" {
			continue
		}
		dup := false
		for _, e := range out {
			if e == t {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// normalize fills nil slices and restores the history invariant on deals that
// come from outside the store.
func normalize(d models.Deal, actor string) models.Deal {
	if d.Messages == nil {
		d.Messages = []models.Message{}
	}
	if d.Documents == nil {
		d.Documents = []models.Document{}
	}
	if d.Activities == nil {
		d.Activities = []models.Activity{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if n := len(d.StageHistory); n == 0 || d.StageHistory[n-1].Stage != d.Stage {
		ts := d.UpdatedAt
		if ts.IsZero() {
			ts = d.CreatedAt
		}
		d.StageHistory = append(d.StageHistory, models.StageChange{Stage: d.Stage, Timestamp: ts, Actor: actor})
	}
	return d
}

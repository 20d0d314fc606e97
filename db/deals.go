// ABOUTME: SQLite-backed deal repository for the pipeline store
// ABOUTME: Upserts whole deals with embedded records as JSON columns
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/dealdesk/models"
)

// ErrDealNotFound is returned by lookups for an id with no row.
var ErrDealNotFound = errors.New("deal not found")

const dealColumns = `id, stage, value, priority, strategy, property, contact, stage_history,
	messages, documents, activities, tags, notes, days_in_stage, last_activity, created_at, updated_at`

// DealRepository persists deals in the deals table.
type DealRepository struct {
	db *sql.DB
}

func NewDealRepository(db *sql.DB) *DealRepository {
	return &DealRepository{db: db}
}

// LoadDeals returns every stored deal in insertion order.
func (r *DealRepository) LoadDeals(ctx context.Context) ([]models.Deal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+dealColumns+` FROM deals ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// SaveDeal inserts or replaces the row for deal.ID. Existing rows keep their
// position in LoadDeals order.
func (r *DealRepository) SaveDeal(ctx context.Context, deal models.Deal) error {
	cols, err := encodeDeal(deal)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO deals (id, stage, value, priority, strategy, address, contact_id, property, contact,
			stage_history, messages, documents, activities, tags, notes, days_in_stage, last_activity,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stage = excluded.stage,
			value = excluded.value,
			priority = excluded.priority,
			strategy = excluded.strategy,
			address = excluded.address,
			contact_id = excluded.contact_id,
			property = excluded.property,
			contact = excluded.contact,
			stage_history = excluded.stage_history,
			messages = excluded.messages,
			documents = excluded.documents,
			activities = excluded.activities,
			tags = excluded.tags,
			notes = excluded.notes,
			days_in_stage = excluded.days_in_stage,
			last_activity = excluded.last_activity,
			updated_at = excluded.updated_at
	`,
		deal.ID.String(), string(deal.Stage), deal.Value.String(), string(deal.Priority), string(deal.Strategy),
		deal.Property.Address, deal.Contact.ID, cols.property, cols.contact, cols.history,
		cols.messages, cols.documents, cols.activities, cols.tags, deal.Notes, deal.DaysInStage,
		deal.LastActivity, deal.CreatedAt, deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save deal %s: %w", deal.ID, err)
	}
	return nil
}

// DeleteDeal removes the row for id. Missing rows are not an error.
func (r *DealRepository) DeleteDeal(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}
	return nil
}

func (r *DealRepository) GetDeal(ctx context.Context, id uuid.UUID) (models.Deal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = ?`, id.String())
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Deal{}, ErrDealNotFound
	}
	return d, err
}

func (r *DealRepository) CountDeals(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count deals: %w", err)
	}
	return n, nil
}

type encodedDeal struct {
	property, contact, history, messages, documents, activities, tags string
}

func encodeDeal(d models.Deal) (encodedDeal, error) {
	var out encodedDeal
	fields := []struct {
		dst *string
		src any
	}{
		{&out.property, d.Property},
		{&out.contact, d.Contact},
		{&out.history, nonNil(d.StageHistory)},
		{&out.messages, nonNil(d.Messages)},
		{&out.documents, nonNil(d.Documents)},
		{&out.activities, nonNil(d.Activities)},
		{&out.tags, nonNil(d.Tags)},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return out, fmt.Errorf("failed to encode deal %s: %w", d.ID, err)
		}
		*f.dst = string(b)
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (models.Deal, error) {
	var (
		d       models.Deal
		id      string
		encoded encodedDeal
	)
	err := row.Scan(&id, &d.Stage, &d.Value, &d.Priority, &d.Strategy,
		&encoded.property, &encoded.contact, &encoded.history, &encoded.messages,
		&encoded.documents, &encoded.activities, &encoded.tags,
		&d.Notes, &d.DaysInStage, &d.LastActivity, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return models.Deal{}, err
	}

	if d.ID, err = uuid.Parse(id); err != nil {
		return models.Deal{}, fmt.Errorf("invalid deal id %q: %w", id, err)
	}

	fields := []struct {
		src string
		dst any
	}{
		{encoded.property, &d.Property},
		{encoded.contact, &d.Contact},
		{encoded.history, &d.StageHistory},
		{encoded.messages, &d.Messages},
		{encoded.documents, &d.Documents},
		{encoded.activities, &d.Activities},
		{encoded.tags, &d.Tags},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return models.Deal{}, fmt.Errorf("failed to decode deal %s: %w", id, err)
		}
	}
	return d, nil
}

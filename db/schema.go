// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

// Embedded records (property, contact, history, sub-records, tags) are stored as
// JSON; the scalar columns exist for ordering and ad-hoc inspection.
const schema = `
CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	stage TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '0',
	priority TEXT NOT NULL DEFAULT '',
	strategy TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	contact_id TEXT NOT NULL DEFAULT '',
	property TEXT NOT NULL DEFAULT '{}',
	contact TEXT NOT NULL DEFAULT '{}',
	stage_history TEXT NOT NULL DEFAULT '[]',
	messages TEXT NOT NULL DEFAULT '[]',
	documents TEXT NOT NULL DEFAULT '[]',
	activities TEXT NOT NULL DEFAULT '[]',
	tags TEXT NOT NULL DEFAULT '[]',
	notes TEXT NOT NULL DEFAULT '',
	days_in_stage INTEGER NOT NULL DEFAULT 0,
	last_activity TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage);
CREATE INDEX IF NOT EXISTS idx_deals_contact_id ON deals(contact_id);
CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals(created_at);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

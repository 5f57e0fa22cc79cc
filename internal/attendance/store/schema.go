package store

import "database/sql"

// Migrate creates the attendance tables. The composite unique index on
// (activity_id, user_id) is what guarantees at most one ledger per member per
// activity even under concurrent first check-ins.
func Migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS attendance_ledgers (
		id          UUID PRIMARY KEY,
		activity_id UUID NOT NULL,
		user_id     UUID NOT NULL,
		doc         JSONB NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		UNIQUE (activity_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS attendance_entries (
		record_id UUID PRIMARY KEY,
		ledger_id UUID NOT NULL REFERENCES attendance_ledgers(id) ON DELETE CASCADE,
		status    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_ledger
		ON attendance_entries(ledger_id);
	`
	_, err := db.Exec(schema)
	return err
}

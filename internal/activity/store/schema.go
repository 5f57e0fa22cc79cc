package store

import "database/sql"

// Migrate creates the activity tables. The partial unique index over live
// registrations is the database-side guard against a user racing two
// registrations onto the same activity.
func Migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS activities (
		id         UUID PRIMARY KEY,
		status     TEXT NOT NULL,
		doc        JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity_participants (
		registration_id UUID PRIMARY KEY,
		activity_id     UUID NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		user_id         UUID NOT NULL,
		status          TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_live
		ON activity_participants(activity_id, user_id)
		WHERE status IN ('pending', 'approved');

	CREATE INDEX IF NOT EXISTS idx_participants_user
		ON activity_participants(user_id);
	`
	_, err := db.Exec(schema)
	return err
}

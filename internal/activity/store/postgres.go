package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rollcall/internal/activity/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index over live registrations.
const uniqueViolation = "23505"

// Postgres stores each activity as one JSONB document plus a participant
// index table. The document is the unit of consistency; Execute serializes
// writers per document with SELECT ... FOR UPDATE, and the partial unique
// index on (activity_id, user_id) WHERE status IN ('pending','approved')
// closes the concurrent-registration race even across documents reloaded by
// different handlers.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed activity store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create stores a new activity document and its participant index rows.
func (s *Postgres) Create(ctx context.Context, a *models.Activity) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activities (id, status, doc, updated_at)
		VALUES ($1, $2, $3, $4)
	`, a.ID.String(), a.Status.String(), doc, a.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	return err
}

// FindByID loads one activity document.
func (s *Postgres) FindByID(ctx context.Context, activityID id.ActivityID) (*models.Activity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doc FROM activities WHERE id = $1`, activityID.String())
	return scanActivity(row)
}

// FindByParticipant loads every activity where the user holds a registration
// in any status, via the participant index.
func (s *Postgres) FindByParticipant(ctx context.Context, userID id.UserID) ([]*models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.doc
		FROM activities a
		JOIN activity_participants p ON p.activity_id = a.id
		WHERE p.user_id = $1
		GROUP BY a.id
		ORDER BY a.id
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Execute runs an atomic validate-then-mutate cycle against one activity
// document. The row lock is held during both callbacks.
func (s *Postgres) Execute(ctx context.Context, activityID id.ActivityID, validate func(*models.Activity) error, mutate func(*models.Activity)) (*models.Activity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT doc FROM activities WHERE id = $1 FOR UPDATE`, activityID.String())
	a, err := scanActivity(row)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(a); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(a)
	}

	doc, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal activity: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE activities SET status = $2, doc = $3, updated_at = $4 WHERE id = $1
	`, a.ID.String(), a.Status.String(), doc, a.UpdatedAt); err != nil {
		return nil, err
	}
	if err := syncParticipants(ctx, tx, a); err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

// syncParticipants rewrites the participant index rows for one document. The
// partial unique index over live rows is what rejects a racing duplicate
// registration by the same user.
func syncParticipants(ctx context.Context, tx *sql.Tx, a *models.Activity) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM activity_participants WHERE activity_id = $1`, a.ID.String()); err != nil {
		return err
	}
	for i := range a.Participants {
		p := &a.Participants[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO activity_participants (registration_id, activity_id, user_id, status)
			VALUES ($1, $2, $3, $4)
		`, p.ID.String(), a.ID.String(), p.UserID.String(), p.Status.String()); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	var a models.Activity
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("unmarshal activity: %w", err)
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

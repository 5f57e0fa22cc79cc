package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rollcall/internal/attendance/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres stores each ledger as one JSONB document keyed by a composite
// unique index on (activity_id, user_id), plus an entry index table so
// Verify can locate the ledger owning a record without scanning documents.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed attendance store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create stores a new ledger. The unique index rejects a second ledger for
// the same (activity, user) pair; the race loser gets sentinel.ErrConflict
// and reloads the winner.
func (s *Postgres) Create(ctx context.Context, l *models.Ledger) error {
	doc, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attendance_ledgers (id, activity_id, user_id, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, l.ID.String(), l.ActivityID.String(), l.UserID.String(), doc, l.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	return err
}

// FindByID loads one ledger.
func (s *Postgres) FindByID(ctx context.Context, ledgerID id.LedgerID) (*models.Ledger, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doc FROM attendance_ledgers WHERE id = $1`, ledgerID.String())
	return scanLedger(row)
}

// FindByActivityAndUser loads the unique ledger for a pair.
func (s *Postgres) FindByActivityAndUser(ctx context.Context, activityID id.ActivityID, userID id.UserID) (*models.Ledger, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT doc FROM attendance_ledgers WHERE activity_id = $1 AND user_id = $2
	`, activityID.String(), userID.String())
	return scanLedger(row)
}

// FindByRecord locates the ledger containing a record via the entry index.
func (s *Postgres) FindByRecord(ctx context.Context, recordID id.RecordID) (*models.Ledger, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT l.doc
		FROM attendance_ledgers l
		JOIN attendance_entries e ON e.ledger_id = l.id
		WHERE e.record_id = $1
	`, recordID.String())
	return scanLedger(row)
}

// FindByActivity returns every ledger of one activity.
func (s *Postgres) FindByActivity(ctx context.Context, activityID id.ActivityID) ([]*models.Ledger, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM attendance_ledgers WHERE activity_id = $1 ORDER BY id
	`, activityID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Execute runs an atomic validate-then-mutate cycle against one ledger. The
// row lock serializes concurrent writers; last writer wins on verification
// decisions, and each write carries its own verifier stamp.
func (s *Postgres) Execute(ctx context.Context, ledgerID id.LedgerID, validate func(*models.Ledger) error, mutate func(*models.Ledger)) (*models.Ledger, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT doc FROM attendance_ledgers WHERE id = $1 FOR UPDATE`, ledgerID.String())
	l, err := scanLedger(row)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(l); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(l)
	}

	doc, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal ledger: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE attendance_ledgers SET doc = $2, updated_at = $3 WHERE id = $1
	`, l.ID.String(), doc, l.UpdatedAt); err != nil {
		return nil, err
	}
	if err := syncEntries(ctx, tx, l); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return l, nil
}

func syncEntries(ctx context.Context, tx *sql.Tx, l *models.Ledger) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attendance_entries WHERE ledger_id = $1`, l.ID.String()); err != nil {
		return err
	}
	for i := range l.Entries {
		e := &l.Entries[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_entries (record_id, ledger_id, status)
			VALUES ($1, $2, $3)
		`, e.ID.String(), l.ID.String(), e.Status.String()); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedger(row rowScanner) (*models.Ledger, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	var l models.Ledger
	if err := json.Unmarshal(doc, &l); err != nil {
		return nil, fmt.Errorf("unmarshal ledger: %w", err)
	}
	return &l, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

package visitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists visitors and visits in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const visitorColumns = `id, name, occ_student_id, role, first_seen, last_seen, quiz_completed, quiz_best_score, quiz_best_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row rowScanner) (Visitor, error) {
	var v Visitor
	err := row.Scan(&v.ID, &v.Name, &v.OCCStudentID, &v.Role, &v.FirstSeen, &v.LastSeen,
		&v.QuizCompleted, &v.QuizBestScore, &v.QuizBestAt)
	return v, err
}

// mapUniqueViolation converts a duplicate-key error on the student id into
// ErrConflict so callers can treat the race as retryable.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// RegisterStudentVisit looks up the visitor by student id inside a
// transaction, creates or updates it, and appends the visit. When two
// first-time registrations race, the unique constraint fails the loser
// cleanly instead of duplicating the identity.
func (p *PostgresStore) RegisterStudentVisit(ctx context.Context, name, occID string, now time.Time) (Visitor, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Visitor{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+visitorColumns+` FROM visitors WHERE occ_student_id = $1 FOR UPDATE
	`, occID)
	v, err := scanVisitor(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		row = tx.QueryRowContext(ctx, `
			INSERT INTO visitors (name, occ_student_id, role, first_seen, last_seen)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING `+visitorColumns+`
		`, name, occID, RoleStudent, now)
		if v, err = scanVisitor(row); err != nil {
			return Visitor{}, mapUniqueViolation(err)
		}
	case err != nil:
		return Visitor{}, err
	default:
		row = tx.QueryRowContext(ctx, `
			UPDATE visitors SET name = $2, role = $3, last_seen = $4
			WHERE id = $1
			RETURNING `+visitorColumns+`
		`, v.ID, name, RoleStudent, now)
		if v, err = scanVisitor(row); err != nil {
			return Visitor{}, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO visits (visitor_id, created_at) VALUES ($1, $2)
	`, v.ID, now); err != nil {
		return Visitor{}, err
	}
	return v, tx.Commit()
}

// RegisterGuestVisit inserts a fresh visitor row and its visit in one
// transaction. There is no stable key to deduplicate guests on.
func (p *PostgresStore) RegisterGuestVisit(ctx context.Context, name string, now time.Time) (Visitor, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Visitor{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO visitors (name, occ_student_id, role, first_seen, last_seen)
		VALUES ($1, NULL, $2, $3, $3)
		RETURNING `+visitorColumns+`
	`, name, RoleGuest, now)
	v, err := scanVisitor(row)
	if err != nil {
		return Visitor{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO visits (visitor_id, created_at) VALUES ($1, $2)
	`, v.ID, now); err != nil {
		return Visitor{}, err
	}
	return v, tx.Commit()
}

// RecordQuizScore updates the quiz fields under a row lock so concurrent
// submissions cannot lose an improvement.
func (p *PostgresStore) RecordQuizScore(ctx context.Context, visitorID int64, score int, now time.Time) (int, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	var best int
	err = tx.QueryRowContext(ctx, `
		SELECT quiz_best_score FROM visitors WHERE id = $1 FOR UPDATE
	`, visitorID).Scan(&best)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrVisitorNotFound
	}
	if err != nil {
		return 0, false, err
	}

	improved := score > best
	if improved {
		_, err = tx.ExecContext(ctx, `
			UPDATE visitors
			SET quiz_completed = TRUE, quiz_best_score = $2, quiz_best_at = $3
			WHERE id = $1
		`, visitorID, score, now)
		best = score
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE visitors SET quiz_completed = TRUE WHERE id = $1
		`, visitorID)
	}
	if err != nil {
		return 0, false, err
	}
	return best, improved, tx.Commit()
}

// GetVisitor returns a single visitor by id, nil when absent.
func (p *PostgresStore) GetVisitor(ctx context.Context, id int64) (*Visitor, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+visitorColumns+` FROM visitors WHERE id = $1
	`, id)
	v, err := scanVisitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FindByStudentID returns the visitor carrying occID, nil when absent.
func (p *PostgresStore) FindByStudentID(ctx context.Context, occID string) (*Visitor, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+visitorColumns+` FROM visitors WHERE occ_student_id = $1
	`, occID)
	v, err := scanVisitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (p *PostgresStore) CountVisits(ctx context.Context) (int64, error) {
	return p.countRow(ctx, `SELECT COUNT(*) FROM visits`)
}

func (p *PostgresStore) CountVisitors(ctx context.Context) (int64, error) {
	return p.countRow(ctx, `SELECT COUNT(*) FROM visitors`)
}

func (p *PostgresStore) CountVisitorsByRole(ctx context.Context, role Role) (int64, error) {
	return p.countRow(ctx, `SELECT COUNT(*) FROM visitors WHERE role = $1`, string(role))
}

func (p *PostgresStore) CountVisitorsWithBestScore(ctx context.Context, score int) (int64, error) {
	return p.countRow(ctx, `SELECT COUNT(*) FROM visitors WHERE quiz_best_score = $1`, score)
}

func (p *PostgresStore) CountVisitsBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return p.countRow(ctx, `
		SELECT COUNT(*) FROM visits WHERE created_at >= $1 AND created_at < $2
	`, start, end)
}

func (p *PostgresStore) CountActiveVisitorsBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return p.countRow(ctx, `
		SELECT COUNT(DISTINCT visitor_id) FROM visits
		WHERE created_at >= $1 AND created_at < $2
	`, start, end)
}

func (p *PostgresStore) CountActiveVisitorsByRoleBetween(ctx context.Context, role Role, start, end time.Time) (int64, error) {
	return p.countRow(ctx, `
		SELECT COUNT(DISTINCT vi.visitor_id)
		FROM visits vi
		JOIN visitors v ON v.id = vi.visitor_id
		WHERE vi.created_at >= $1 AND vi.created_at < $2 AND v.role = $3
	`, start, end, string(role))
}

func (p *PostgresStore) countRow(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

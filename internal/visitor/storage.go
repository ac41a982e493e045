package visitor

import (
	"context"
	"time"
)

// Store is the persistence boundary for visitors and visits. The Postgres
// implementation backs production; the in-memory one backs dev and tests.
//
// Register* and RecordQuizScore are single transactional units: either all
// of their writes land or none do.
type Store interface {
	// RegisterStudentVisit reuses the visitor row keyed by occID or creates
	// it, updates name, role and last_seen, and appends one visit. A losing
	// race on the unique key returns ErrConflict.
	RegisterStudentVisit(ctx context.Context, name, occID string, now time.Time) (Visitor, error)

	// RegisterGuestVisit creates a brand-new visitor row and appends one
	// visit. Guests are intentionally never deduplicated.
	RegisterGuestVisit(ctx context.Context, name string, now time.Time) (Visitor, error)

	// RecordQuizScore marks the visitor's quiz as completed and raises the
	// best score when the new score strictly exceeds it, all under one row
	// lock so the lookup and the update cannot interleave. Returns the
	// resulting best score and whether this call improved it, or
	// ErrVisitorNotFound when the session-bound id no longer has a row.
	RecordQuizScore(ctx context.Context, visitorID int64, score int, now time.Time) (best int, improved bool, err error)

	CountVisits(ctx context.Context) (int64, error)
	CountVisitors(ctx context.Context) (int64, error)
	CountVisitorsByRole(ctx context.Context, role Role) (int64, error)
	CountVisitorsWithBestScore(ctx context.Context, score int) (int64, error)

	// The between-counts use a half-open [start, end) window.
	CountVisitsBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountActiveVisitorsBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountActiveVisitorsByRoleBetween(ctx context.Context, role Role, start, end time.Time) (int64, error)
}

// Both stores also expose GetVisitor and FindByStudentID lookups outside the
// interface for inspection in tests and tooling.
var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

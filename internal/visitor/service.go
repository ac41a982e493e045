package visitor

import (
	"context"
	"errors"
	"time"
)

// Service coordinates registration, dashboard aggregation and quiz scoring.
type Service struct {
	store        Store
	zone         *time.Location
	perfectScore int
	maxTotal     int
	now          func() time.Time
}

// NewService creates a service backed by a store. zone fixes the calendar-day
// boundary for "today" counts; perfectScore is the best score counted as a
// perfect quiz on the dashboard; maxTotal caps accepted quiz totals.
func NewService(store Store, zone *time.Location, perfectScore, maxTotal int) *Service {
	if zone == nil {
		zone, _ = time.LoadLocation(DefaultZone)
	}
	if perfectScore <= 0 {
		perfectScore = 10
	}
	if maxTotal <= 0 {
		maxTotal = 50
	}
	return &Service{
		store:        store,
		zone:         zone,
		perfectScore: perfectScore,
		maxTotal:     maxTotal,
		now:          time.Now,
	}
}

// Register normalizes and validates the input, then reconciles the visitor
// identity: students are upserted by their OCC id so one durable row exists
// per student, guests always get a fresh row. Exactly one visit is appended.
func (s *Service) Register(ctx context.Context, rawName, rawStudentID string) (Visitor, error) {
	name := NormalizeName(rawName)
	occID := NormalizeStudentID(rawStudentID)
	now := s.now()

	if occID == "" {
		return s.store.RegisterGuestVisit(ctx, name, now)
	}
	if !ValidStudentID(occID) {
		return Visitor{}, ErrBadRequest("Invalid OCC student id format")
	}
	return s.store.RegisterStudentVisit(ctx, name, occID, now)
}

// Snapshot returns the reduced dashboard variant handed back by
// registration.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.snapshot(ctx, false)
}

// Dashboard returns the full dashboard variant, including the perfect-quiz
// visitor count.
func (s *Service) Dashboard(ctx context.Context) (Snapshot, error) {
	return s.snapshot(ctx, true)
}

func (s *Service) snapshot(ctx context.Context, includePerfect bool) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	start, end := DayBounds(s.now(), s.zone)

	if snap.TotalVisits, err = s.store.CountVisits(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.TotalVisitors, err = s.store.CountVisitors(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.TotalGuests, err = s.store.CountVisitorsByRole(ctx, RoleGuest); err != nil {
		return Snapshot{}, err
	}
	if snap.TotalOccStudents, err = s.store.CountVisitorsByRole(ctx, RoleStudent); err != nil {
		return Snapshot{}, err
	}
	if includePerfect {
		perfect, err := s.store.CountVisitorsWithBestScore(ctx, s.perfectScore)
		if err != nil {
			return Snapshot{}, err
		}
		snap.TotalPerfectQuizUsers = &perfect
	}
	if snap.TodayVisits, err = s.store.CountVisitsBetween(ctx, start, end); err != nil {
		return Snapshot{}, err
	}
	if snap.TodayVisitors, err = s.store.CountActiveVisitorsBetween(ctx, start, end); err != nil {
		return Snapshot{}, err
	}
	if snap.TodayGuests, err = s.store.CountActiveVisitorsByRoleBetween(ctx, RoleGuest, start, end); err != nil {
		return Snapshot{}, err
	}
	if snap.TodayOccStudents, err = s.store.CountActiveVisitorsByRoleBetween(ctx, RoleStudent, start, end); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SubmitQuiz validates the attempt and records it for the visitor bound to
// the caller's session. Completion is marked unconditionally; the best score
// only moves up.
func (s *Service) SubmitQuiz(ctx context.Context, visitorID int64, score, total int) (QuizResult, error) {
	if total <= 0 || total > s.maxTotal {
		return QuizResult{}, ErrBadRequest("Invalid total")
	}
	if score < 0 || score > total {
		return QuizResult{}, ErrBadRequest("Invalid score")
	}

	best, improved, err := s.store.RecordQuizScore(ctx, visitorID, score, s.now())
	if err != nil {
		if errors.Is(err, ErrVisitorNotFound) {
			return QuizResult{}, ErrNotFound("Visitor not found")
		}
		return QuizResult{}, err
	}

	return QuizResult{
		Score:     score,
		Total:     total,
		BestScore: best,
		Improved:  improved,
		Perfect:   score == total,
	}, nil
}

package visitor

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for dev mode and tests. All methods
// serialize on one mutex, which stands in for the transactional isolation the
// Postgres store gets from the database.
type MemoryStore struct {
	mu            sync.Mutex
	nextVisitorID int64
	nextVisitID   int64
	visitors      map[int64]*Visitor
	byStudentID   map[string]int64
	visits        []Visit
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		visitors:    make(map[int64]*Visitor),
		byStudentID: make(map[string]int64),
	}
}

func (m *MemoryStore) RegisterStudentVisit(_ context.Context, name, occID string, now time.Time) (Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var v *Visitor
	if id, ok := m.byStudentID[occID]; ok {
		v = m.visitors[id]
		v.Name = name
		v.Role = RoleStudent
		v.LastSeen = now
	} else {
		occ := occID
		m.nextVisitorID++
		v = &Visitor{
			ID:           m.nextVisitorID,
			Name:         name,
			OCCStudentID: &occ,
			Role:         RoleStudent,
			FirstSeen:    now,
			LastSeen:     now,
		}
		m.visitors[v.ID] = v
		m.byStudentID[occID] = v.ID
	}
	m.appendVisit(v.ID, now)
	return *v, nil
}

func (m *MemoryStore) RegisterGuestVisit(_ context.Context, name string, now time.Time) (Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextVisitorID++
	v := &Visitor{
		ID:        m.nextVisitorID,
		Name:      name,
		Role:      RoleGuest,
		FirstSeen: now,
		LastSeen:  now,
	}
	m.visitors[v.ID] = v
	m.appendVisit(v.ID, now)
	return *v, nil
}

func (m *MemoryStore) appendVisit(visitorID int64, now time.Time) {
	m.nextVisitID++
	m.visits = append(m.visits, Visit{ID: m.nextVisitID, VisitorID: visitorID, CreatedAt: now})
}

func (m *MemoryStore) RecordQuizScore(_ context.Context, visitorID int64, score int, now time.Time) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.visitors[visitorID]
	if !ok {
		return 0, false, ErrVisitorNotFound
	}
	v.QuizCompleted = true
	if score > v.QuizBestScore {
		v.QuizBestScore = score
		at := now
		v.QuizBestAt = &at
		return v.QuizBestScore, true, nil
	}
	return v.QuizBestScore, false, nil
}

func (m *MemoryStore) GetVisitor(_ context.Context, id int64) (*Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visitors[id]
	if !ok {
		return nil, nil
	}
	out := *v
	return &out, nil
}

func (m *MemoryStore) FindByStudentID(_ context.Context, occID string) (*Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byStudentID[occID]
	if !ok {
		return nil, nil
	}
	out := *m.visitors[id]
	return &out, nil
}

func (m *MemoryStore) CountVisits(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.visits)), nil
}

func (m *MemoryStore) CountVisitors(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.visitors)), nil
}

func (m *MemoryStore) CountVisitorsByRole(_ context.Context, role Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, v := range m.visitors {
		if v.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountVisitorsWithBestScore(_ context.Context, score int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, v := range m.visitors {
		if v.QuizBestScore == score {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountVisitsBetween(_ context.Context, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, vi := range m.visits {
		if inWindow(vi.CreatedAt, start, end) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountActiveVisitorsBetween(_ context.Context, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.activeVisitors(start, end, ""))), nil
}

func (m *MemoryStore) CountActiveVisitorsByRoleBetween(_ context.Context, role Role, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.activeVisitors(start, end, role))), nil
}

// activeVisitors collects distinct visitor ids among visits in [start, end),
// optionally restricted to one role. Callers hold the mutex.
func (m *MemoryStore) activeVisitors(start, end time.Time, role Role) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, vi := range m.visits {
		if !inWindow(vi.CreatedAt, start, end) {
			continue
		}
		if role != "" && m.visitors[vi.VisitorID].Role != role {
			continue
		}
		ids[vi.VisitorID] = struct{}{}
	}
	return ids
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

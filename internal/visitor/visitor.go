package visitor

import (
	"regexp"
	"strings"
	"time"
)

// Role tags a visitor as a returning OCC student or a one-off guest. It is
// derived from whether a student id is present, never set independently.
type Role string

const (
	RoleStudent Role = "OCC_STUDENT"
	RoleGuest   Role = "GUEST"
)

// PlaceholderName substitutes for a blank display name.
const PlaceholderName = "Unknown"

// DefaultZone is the fixed reference zone for "today" counts. The day
// boundary is always computed against this zone, not the host's local zone,
// so the dashboard means the same wall-clock day everywhere.
const DefaultZone = "America/Los_Angeles"

// Visitor represents one physical person. Students keep a single durable row
// keyed by their OCC id; guests get a fresh row on every registration.
type Visitor struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	OCCStudentID  *string    `json:"occStudentId,omitempty"`
	Role          Role       `json:"role"`
	FirstSeen     time.Time  `json:"firstSeen"`
	LastSeen      time.Time  `json:"lastSeen"`
	QuizCompleted bool       `json:"quizCompleted"`
	QuizBestScore int        `json:"quizBestScore"`
	QuizBestAt    *time.Time `json:"quizBestAt,omitempty"`
}

// Visit is one append-only check-in event.
type Visit struct {
	ID        int64     `json:"id"`
	VisitorID int64     `json:"visitorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is the dashboard counter set. TotalPerfectQuizUsers is only
// populated in the full variant served by GET /api/dashboard; the reduced
// variant returned by registration omits it.
type Snapshot struct {
	TotalVisits           int64  `json:"totalVisits"`
	TotalVisitors         int64  `json:"totalVisitors"`
	TotalGuests           int64  `json:"totalGuests"`
	TotalOccStudents      int64  `json:"totalOccStudents"`
	TotalPerfectQuizUsers *int64 `json:"totalPerfectQuizUsers,omitempty"`
	TodayVisits           int64  `json:"todayVisits"`
	TodayVisitors         int64  `json:"todayVisitors"`
	TodayGuests           int64  `json:"todayGuests"`
	TodayOccStudents      int64  `json:"todayOccStudents"`
}

// QuizResult reports the outcome of one quiz submission. Perfect refers to
// this attempt only, independent of the all-time best.
type QuizResult struct {
	Score     int  `json:"score"`
	Total     int  `json:"total"`
	BestScore int  `json:"bestScore"`
	Improved  bool `json:"improved"`
	Perfect   bool `json:"perfect"`
}

var studentIDPattern = regexp.MustCompile(`^C\d{8}$`)

// NormalizeName trims whitespace and falls back to the placeholder.
func NormalizeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return PlaceholderName
	}
	return name
}

// NormalizeStudentID trims and uppercases a raw student id. An empty result
// marks the visitor as a guest.
func NormalizeStudentID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidStudentID reports whether a normalized id matches the OCC format:
// a single letter C followed by exactly 8 digits.
func ValidStudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

// DayBounds returns the [midnight, next midnight) window of now's calendar
// day in zone. AddDate keeps the boundary correct across DST transitions.
func DayBounds(now time.Time, zone *time.Location) (start, end time.Time) {
	local := now.In(zone)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
	return start, start.AddDate(0, 0, 1)
}

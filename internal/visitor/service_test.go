package visitor

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testZone(t *testing.T) *time.Location {
	t.Helper()
	zone, err := time.LoadLocation(DefaultZone)
	require.NoError(t, err)
	return zone
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	st := NewMemoryStore()
	return NewService(st, testZone(t), 10, 50), st
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, status, svcErr.Status)
}

func TestRegister_StudentUpsert(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	first := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	v1, err := svc.Register(ctx, "Ada", "C12345678")
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, v1.Role)
	require.NotNil(t, v1.OCCStudentID)
	assert.Equal(t, "C12345678", *v1.OCCStudentID)

	second := first.Add(2 * time.Hour)
	svc.now = func() time.Time { return second }

	v2, err := svc.Register(ctx, "Ada Lovelace", "C12345678")
	require.NoError(t, err)

	assert.Equal(t, v1.ID, v2.ID, "same student id must reuse the visitor row")
	assert.Equal(t, "Ada Lovelace", v2.Name)
	assert.True(t, v2.FirstSeen.Equal(first), "firstSeen must not move on re-registration")
	assert.True(t, v2.LastSeen.Equal(second), "lastSeen must advance")

	visitors, err := st.CountVisitors(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, visitors)

	visits, err := st.CountVisits(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, visits, "every registration appends a visit")
}

func TestRegister_StudentIDNormalization(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, "Ada", "  c12345678 ")
	require.NoError(t, err)
	require.NotNil(t, v.OCCStudentID)
	assert.Equal(t, "C12345678", *v.OCCStudentID)
	assert.Equal(t, RoleStudent, v.Role)

	found, err := st.FindByStudentID(ctx, "C12345678")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, v.ID, found.ID)

	missing, err := st.FindByStudentID(ctx, "C99999999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRegister_GuestsNeverDeduplicated(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	g1, err := svc.Register(ctx, "Sam", "")
	require.NoError(t, err)
	g2, err := svc.Register(ctx, "Sam", "   ")
	require.NoError(t, err)

	assert.NotEqual(t, g1.ID, g2.ID, "each guest registration is a distinct visitor")
	assert.Equal(t, RoleGuest, g1.Role)
	assert.Nil(t, g1.OCCStudentID)

	visitors, err := st.CountVisitors(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, visitors)
}

func TestRegister_BlankNamePlaceholder(t *testing.T) {
	svc, _ := newTestService(t)

	v, err := svc.Register(context.Background(), "   ", "")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderName, v.Name)
}

func TestRegister_InvalidStudentID(t *testing.T) {
	cases := []struct {
		name string
		id   string
	}{
		{name: "seven digits", id: "C1234567"},
		{name: "nine digits", id: "C123456789"},
		{name: "wrong prefix", id: "X12345678"},
		{name: "letters in digits", id: "C1234567A"},
		{name: "embedded space", id: "C12 45678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, st := newTestService(t)
			ctx := context.Background()

			_, err := svc.Register(ctx, "Ada", tc.id)
			requireStatus(t, err, http.StatusBadRequest)

			visitors, err := st.CountVisitors(ctx)
			require.NoError(t, err)
			assert.Zero(t, visitors, "rejected registration must not write a visitor")

			visits, err := st.CountVisits(ctx)
			require.NoError(t, err)
			assert.Zero(t, visits, "rejected registration must not write a visit")
		})
	}
}

func TestRegister_ConcurrentSameStudentID(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, "Ada", "C12345678")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	visitors, err := st.CountVisitors(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, visitors, "concurrent registrations must not duplicate the identity")

	visits, err := st.CountVisits(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, callers, visits)
}

func TestSubmitQuiz_Validation(t *testing.T) {
	cases := []struct {
		name  string
		score int
		total int
	}{
		{name: "zero total", score: 0, total: 0},
		{name: "total above cap", score: 10, total: 51},
		{name: "negative score", score: -1, total: 10},
		{name: "score above total", score: 11, total: 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, st := newTestService(t)
			ctx := context.Background()

			v, err := svc.Register(ctx, "Ada", "C12345678")
			require.NoError(t, err)

			_, err = svc.SubmitQuiz(ctx, v.ID, tc.score, tc.total)
			requireStatus(t, err, http.StatusBadRequest)

			got, err := st.GetVisitor(ctx, v.ID)
			require.NoError(t, err)
			assert.False(t, got.QuizCompleted, "rejected submission must not mutate the visitor")
			assert.Zero(t, got.QuizBestScore)
		})
	}
}

func TestSubmitQuiz_BestScoreProgression(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, "Ada", "C12345678")
	require.NoError(t, err)

	res, err := svc.SubmitQuiz(ctx, v.ID, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, res.BestScore)
	assert.True(t, res.Improved)
	assert.False(t, res.Perfect)

	res, err = svc.SubmitQuiz(ctx, v.ID, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, res.BestScore)
	assert.True(t, res.Improved)
	assert.False(t, res.Perfect)

	// Equal score: completion stays, best does not move.
	res, err = svc.SubmitQuiz(ctx, v.ID, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, res.BestScore)
	assert.False(t, res.Improved)

	// Lower score keeps the best.
	res, err = svc.SubmitQuiz(ctx, v.ID, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, res.BestScore)
	assert.False(t, res.Improved)

	got, err := st.GetVisitor(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, got.QuizCompleted)
	assert.Equal(t, 7, got.QuizBestScore)
	require.NotNil(t, got.QuizBestAt)
}

func TestSubmitQuiz_PerfectReflectsThisAttempt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, "Ada", "C12345678")
	require.NoError(t, err)

	// Smaller total: perfect even though it does not beat a later best.
	res, err := svc.SubmitQuiz(ctx, v.ID, 5, 5)
	require.NoError(t, err)
	assert.True(t, res.Perfect)
	assert.True(t, res.Improved)

	res, err = svc.SubmitQuiz(ctx, v.ID, 10, 10)
	require.NoError(t, err)
	assert.True(t, res.Perfect)
	assert.True(t, res.Improved)

	// Perfect again without improving the all-time best.
	res, err = svc.SubmitQuiz(ctx, v.ID, 5, 5)
	require.NoError(t, err)
	assert.True(t, res.Perfect)
	assert.False(t, res.Improved)
}

func TestSubmitQuiz_UnknownVisitor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SubmitQuiz(context.Background(), 999, 5, 10)
	requireStatus(t, err, http.StatusNotFound)
}

func TestDashboard_PerfectQuizUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, "Ada", "C12345678")
	require.NoError(t, err)

	snap, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.TotalPerfectQuizUsers)
	assert.EqualValues(t, 0, *snap.TotalPerfectQuizUsers)

	_, err = svc.SubmitQuiz(ctx, v.ID, 10, 10)
	require.NoError(t, err)

	snap, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.TotalPerfectQuizUsers)
	assert.EqualValues(t, 1, *snap.TotalPerfectQuizUsers)

	// Repeat attainment must not double count.
	_, err = svc.SubmitQuiz(ctx, v.ID, 10, 10)
	require.NoError(t, err)

	snap, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, *snap.TotalPerfectQuizUsers)
}

func TestSnapshot_ReducedOmitsPerfectCount(t *testing.T) {
	svc, _ := newTestService(t)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap.TotalPerfectQuizUsers)
}

func TestSnapshot_TodayCountsAroundMidnight(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	zone := testZone(t)

	midnight := time.Date(2024, 3, 15, 0, 0, 0, 0, zone)

	// One visit a second before local midnight, one exactly at midnight.
	svc.now = func() time.Time { return midnight.Add(-time.Second) }
	_, err := svc.Register(ctx, "Yesterday", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return midnight }
	_, err = svc.Register(ctx, "Today", "C12345678")
	require.NoError(t, err)

	// Evaluate "today" from midmorning of the 15th.
	svc.now = func() time.Time { return midnight.Add(10 * time.Hour) }
	snap, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, snap.TotalVisits)
	assert.EqualValues(t, 1, snap.TodayVisits, "the pre-midnight visit belongs to yesterday")
	assert.EqualValues(t, 1, snap.TodayVisitors)
	assert.EqualValues(t, 1, snap.TodayOccStudents)
	assert.EqualValues(t, 0, snap.TodayGuests)
}

func TestSnapshot_DistinctTodayVisitors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Same student registers twice today: two visits, one distinct visitor.
	_, err := svc.Register(ctx, "Ada", "C12345678")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Ada", "C12345678")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Guest", "")
	require.NoError(t, err)

	snap, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 3, snap.TodayVisits)
	assert.EqualValues(t, 2, snap.TodayVisitors)
	assert.EqualValues(t, 1, snap.TodayOccStudents)
	assert.EqualValues(t, 1, snap.TodayGuests)
	assert.EqualValues(t, 2, snap.TotalVisitors)
	assert.EqualValues(t, 1, snap.TotalOccStudents)
	assert.EqualValues(t, 1, snap.TotalGuests)
}

func TestDayBounds(t *testing.T) {
	zone := testZone(t)

	t.Run("regular day", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 13, 37, 0, 0, zone)
		start, end := DayBounds(now, zone)
		assert.True(t, start.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, zone)))
		assert.True(t, end.Equal(time.Date(2024, 3, 16, 0, 0, 0, 0, zone)))
	})

	t.Run("fixed zone independent of input zone", func(t *testing.T) {
		// 2024-03-15 03:00 UTC is still 2024-03-14 in Los Angeles.
		now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
		start, _ := DayBounds(now, zone)
		assert.True(t, start.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, zone)))
	})

	t.Run("spring forward day is 23 hours", func(t *testing.T) {
		now := time.Date(2024, 3, 10, 12, 0, 0, 0, zone)
		start, end := DayBounds(now, zone)
		assert.Equal(t, 23*time.Hour, end.Sub(start))
	})
}

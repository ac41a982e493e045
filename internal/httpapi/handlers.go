package httpapi

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ocenv/internal/metrics"
	"ocenv/internal/session"
	"ocenv/internal/visitor"
)

// Handlers binds the visitor service and session manager to gin routes.
type Handlers struct {
	svc      *visitor.Service
	sessions *session.Manager
}

// NewHandlers creates the handler set.
func NewHandlers(svc *visitor.Service, sessions *session.Manager) *Handlers {
	return &Handlers{svc: svc, sessions: sessions}
}

type registerRequest struct {
	Name         string `json:"name"`
	OCCStudentID string `json:"occStudentId"`
}

type quizSubmitRequest struct {
	Score *int `json:"score"`
	Total *int `json:"total"`
}

// Register handles POST /visitor/register: upsert-or-create the visitor, log
// the visit, bind the session, and answer with the reduced dashboard
// snapshot so the UI updates immediately.
func (h *Handlers) Register(c *gin.Context) {
	// An absent body registers a guest under the placeholder name; only
	// malformed JSON is rejected.
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		metrics.RegistrationRejects.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	v, err := h.svc.Register(c.Request.Context(), req.Name, req.OCCStudentID)
	if err != nil {
		if isBadRequest(err) {
			metrics.RegistrationRejects.Inc()
		}
		h.writeError(c, err)
		return
	}

	if err := h.sessions.Establish(c, v.ID); err != nil {
		log.Printf("session establish failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	metrics.Registrations.WithLabelValues(string(v.Role)).Inc()

	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Dashboard handles GET /api/dashboard with the full snapshot variant.
func (h *Handlers) Dashboard(c *gin.Context) {
	snap, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// SubmitQuiz handles POST /api/quiz/submit for the session-bound visitor.
func (h *Handlers) SubmitQuiz(c *gin.Context) {
	var req quizSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid total"})
		return
	}
	// Absent fields fail range validation the same way out-of-range ones do.
	total, score := -1, -1
	if req.Total != nil {
		total = *req.Total
	}
	if req.Score != nil {
		score = *req.Score
	}

	visitorID := c.GetInt64(session.ContextKey)
	result, err := h.svc.SubmitQuiz(c.Request.Context(), visitorID, score, total)
	if err != nil {
		h.writeError(c, err)
		return
	}

	metrics.QuizSubmissions.Inc()
	if result.Perfect {
		metrics.QuizPerfectRuns.Inc()
	}
	c.JSON(http.StatusOK, result)
}

// Root handles GET /: bounced to the main page when a session is established,
// to the login page otherwise.
func (h *Handlers) Root(c *gin.Context) {
	if _, ok := h.sessions.VisitorID(c); ok {
		c.Redirect(http.StatusFound, "/main.html")
		return
	}
	c.Redirect(http.StatusFound, "/login.html")
}

// Logout handles POST /logout: destroy the session and expire the cookie.
func (h *Handlers) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	var svcErr visitor.ServiceError
	if errors.As(err, &svcErr) {
		c.JSON(svcErr.Status, gin.H{"error": svcErr.Message})
		return
	}
	if errors.Is(err, visitor.ErrConflict) {
		// Retryable duplicate-key race; the client may simply resubmit.
		log.Printf("registration conflict: %v", err)
	} else {
		log.Printf("request failed: %v", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
}

func isBadRequest(err error) bool {
	var svcErr visitor.ServiceError
	return errors.As(err, &svcErr) && svcErr.Status == http.StatusBadRequest
}

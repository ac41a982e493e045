package httpapi

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ocenv/internal/httpmiddleware"
	"ocenv/internal/session"
	"ocenv/internal/store"
	"ocenv/internal/visitor"
)

// Deps carries everything the router needs. DB and Redis may be nil in tests;
// /healthz then reports them unhealthy.
type Deps struct {
	Service         *visitor.Service
	Sessions        *session.Manager
	DB              *store.DB
	Redis           *store.Redis
	RateLimitPerMin int
	StaticDir       string
	Production      bool
}

// NewRouter assembles the gin engine: ambient middleware, health and metrics
// endpoints, the visitor API, and the gated static pages.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders(d.Production))
	if d.RateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewRateLimiter(d.RateLimitPerMin).Middleware())
	}

	h := NewHandlers(d.Service, d.Sessions)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := d.DB != nil && d.DB.Client != nil && d.DB.Client.PingContext(c.Request.Context()) == nil
		redisHealthy := d.Redis.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	r.GET("/", h.Root)
	r.POST("/visitor/register", h.Register)
	r.POST("/logout", h.Logout)
	r.GET("/api/dashboard", h.Dashboard)

	quiz := r.Group("/api/quiz", d.Sessions.RequireVisitor())
	quiz.POST("/submit", h.SubmitQuiz)

	if d.StaticDir != "" {
		// main.html is the only gated page; login and assets stay open.
		r.GET("/main.html", d.Sessions.RedirectToLogin(), func(c *gin.Context) {
			c.File(filepath.Join(d.StaticDir, "main.html"))
		})
		r.StaticFile("/login.html", filepath.Join(d.StaticDir, "login.html"))
		r.Static("/static", filepath.Join(d.StaticDir, "static"))
	}

	return r
}

// corsMiddleware allows the front end to call with credentials from any
// origin it is served on.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func securityHeaders(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if production {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

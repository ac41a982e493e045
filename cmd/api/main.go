package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ocenv/internal/config"
	"ocenv/internal/httpapi"
	"ocenv/internal/session"
	"ocenv/internal/store"
	"ocenv/internal/visitor"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnLifetime)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db.Client); err != nil {
		return err
	}

	zone, err := time.LoadLocation(cfg.DayZone)
	if err != nil {
		return err
	}

	var redisClient *store.Redis
	var sessionStore session.Store
	if cfg.SessionBackend == "memory" {
		sessionStore = session.NewMemory()
		log.Println("using in-memory sessions; bindings do not survive restarts")
	} else {
		redisClient = store.NewRedis(cfg.RedisAddr, cfg.RedisTimeout)
		sessionStore = session.NewRedisStore(redisClient.Client)
	}
	sessions := session.NewManager(sessionStore, cfg.SessionCookie, cfg.SessionTTL, cfg.Production())

	svc := visitor.NewService(visitor.NewPostgresStore(db.Client), zone, cfg.QuizPerfect, cfg.QuizMaxTotal)

	r := httpapi.NewRouter(httpapi.Deps{
		Service:         svc,
		Sessions:        sessions,
		DB:              db,
		Redis:           redisClient,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       cfg.StaticDir,
		Production:      cfg.Production(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

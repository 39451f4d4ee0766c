// jobmate-salary-service
//
// Job market salary page for a selected country and job category.
// Serves:
//   - the salary page (country/category selection, SUBMIT, three charts)
//   - chart images rendered server-side with go-chart
//   - a JSON API over the same view state
//   - the cached Adzuna responses used in dev mode
//
// Optional backends: Redis keeps sessions and receives
// EVENT_COUNTRY_SELECTED / EVENT_SEARCH_COMPLETED; PostgreSQL stores a
// snapshot of every completed search.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"jobmate/salary-service/internal/adzuna"
	"jobmate/salary-service/internal/config"
	"jobmate/salary-service/internal/db"
	"jobmate/salary-service/internal/events"
	"jobmate/salary-service/internal/grpcserver"
	"jobmate/salary-service/internal/scheduler"
	"jobmate/salary-service/internal/session"
	"jobmate/salary-service/internal/snapshot"
	"jobmate/salary-service/internal/view"
	"jobmate/salary-service/internal/web"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[salary-service] Config error: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis (optional) ─────────────────────────────────────────────────────
	var (
		store     session.Store    = session.NewMemoryStore()
		publisher events.Publisher = events.Nop{}
	)
	if cfg.RedisURL != "" {
		log.Println("[salary-service] Connecting to Redis…")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[salary-service] Redis: %v", err)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
		publisher = events.NewRedisPublisher(rdb)
		log.Println("[salary-service] Redis connected ✓")
	} else {
		log.Println("[salary-service] REDIS_URL not set, sessions kept in memory")
	}

	// ── PostgreSQL (optional) ────────────────────────────────────────────────
	var (
		recorder snapshot.Recorder = snapshot.Nop{}
		pruner   scheduler.Pruner
	)
	if cfg.DatabaseURL != "" {
		log.Println("[salary-service] Connecting to PostgreSQL…")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[salary-service] PostgreSQL: %v", err)
		}
		defer pool.Close()
		snapshots := snapshot.NewStore(pool)
		recorder, pruner = snapshots, snapshots
		log.Println("[salary-service] PostgreSQL connected ✓")
	} else {
		log.Println("[salary-service] DATABASE_URL not set, search snapshots disabled")
	}

	// ── View sessions ────────────────────────────────────────────────────────
	resolver := adzuna.NewResolver(cfg.Mode, cfg.AdzunaBaseURL, cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.FixtureBaseURL)
	registry := session.NewRegistry(view.Config{
		Endpoints: resolver,
		Fetcher:   adzuna.NewClient(cfg.HTTPTimeout),
		Countries: cfg.Countries,
	}, store, cfg.SessionTTL)
	tokens := session.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler, err := web.NewHandler(web.Deps{
		Sessions:      registry,
		Tokens:        tokens,
		Events:        publisher,
		Snapshots:     recorder,
		Countries:     cfg.Countries,
		Mode:          cfg.Mode,
		SearchTimeout: cfg.SearchTimeout,
		Version:       version,
	})
	if err != nil {
		log.Fatalf("[salary-service] Web handler: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.SearchTimeout + 10*time.Second, // /api/search blocks on both fetches
	}

	go func() {
		log.Printf("[salary-service] v%s listening on :%s (mode: %s, %d countries)",
			version, cfg.Port, cfg.Mode, len(cfg.Countries))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[salary-service] HTTP server error: %v", err)
		}
	}()

	// ── gRPC health ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("[salary-service] gRPC listen: %v", err)
	}
	grpcSrv := grpcserver.New()
	go func() {
		log.Printf("[salary-service] gRPC health listening on :%s", cfg.GRPCPort)
		if err := grpcSrv.Serve(lis); err != nil {
			log.Printf("[salary-service] gRPC server error: %v", err)
		}
	}()
	grpcSrv.SetServing(true)

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(registry, pruner, cfg.SweepInterval, cfg.SnapshotRetentionDays)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[salary-service] Scheduler: %v", err)
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[salary-service] Shutting down…")
	grpcSrv.SetServing(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[salary-service] Shutdown error: %v", err)
	}
	handler.Wait()
	sched.Stop()
	cancel()
	grpcSrv.Stop()
	log.Println("[salary-service] Stopped.")
}

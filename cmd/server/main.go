package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/activity"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/config"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/database"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/handlers"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/middleware"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/pagelock"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/repository"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/router"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/services"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/websocket"
	"github.com/Mihakgma/flaskProjectGigVospit-sub000/internal/worker"
)

func main() {
	log.Println("🚀 Starting GigVospit Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	applicantRepo := repository.NewApplicantRepo(pool)
	organizationRepo := repository.NewOrganizationRepo(pool)
	contractRepo := repository.NewContractRepo(pool)
	visitRepo := repository.NewVisitRepo(pool)
	settingRepo := repository.NewSettingRepo(pool)
	exportRepo := repository.NewExportRepo(pool)

	// ──── Initialize Core Access-Control State ────
	registry := pagelock.NewRegistry(time.Duration(cfg.PageLockSeconds) * time.Second)
	notifier := services.NewNotifier(redisClients.PubSub)
	tracker := activity.NewTracker(
		userRepo,
		nil, // terminator bound below, after the session service exists
		notifier,
		time.Duration(cfg.ActivityTimeoutSeconds)*time.Second,
		int64(cfg.ActivityPeriodCounter),
		int64(cfg.ActivityCounterMaxThreshold),
	)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	sessionService := services.NewSessionService(userRepo, redisClients.Queue, jwtAuth, tracker, notifier)
	tracker.BindTerminator(sessionService)
	policyService := services.NewPolicyService(settingRepo, cfg, registry, tracker)
	userService := services.NewUserService(userRepo, policyService)
	lockService := services.NewLockService(registry, userRepo, notifier)

	// ──── Step 5: Reset Stale Login State ────
	// Anyone marked logged-in before the restart is logged out now, so the
	// workstation policy and the activity tracker start from a clean slate.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sessionService.ResetAllSessions(startupCtx); err != nil {
		cancelStartup()
		log.Fatalf("✗ Session reset failed: %v", err)
	}
	log.Println("✓ Stale sessions reset")

	// ──── Step 6: Apply the Active Access Policy ────
	policyService.Apply(startupCtx)
	cancelStartup()
	log.Println("✓ Access policy applied")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(sessionService)
	applicantHandler := handlers.NewApplicantHandler(applicantRepo, lockService)
	organizationHandler := handlers.NewOrganizationHandler(organizationRepo, lockService)
	contractHandler := handlers.NewContractHandler(contractRepo, lockService)
	visitHandler := handlers.NewVisitHandler(visitRepo, lockService)
	userHandler := handlers.NewUserHandler(userService, userRepo, lockService)
	settingHandler := handlers.NewSettingHandler(settingRepo, policyService)
	lockHandler := handlers.NewLockHandler(lockService)
	exportHandler := handlers.NewExportHandler(exportRepo, redisClients.Queue)

	// ──── Step 7: Start Export Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		exportRepo,
		applicantRepo,
		organizationRepo,
		contractRepo,
		notifier,
		cfg.StoragePath,
		3,
	)
	workerPool.Start()
	log.Println("✓ Worker pool started (3 goroutines)")

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		middleware.NewAccessGuard(userRepo, sessionService, tracker, notifier),
		authHandler,
		applicantHandler,
		organizationHandler,
		contractHandler,
		visitHandler,
		userHandler,
		settingHandler,
		lockHandler,
		exportHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ GigVospit Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

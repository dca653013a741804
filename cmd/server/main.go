package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/telewarm/warmup-engine-go/internal/config"
	"github.com/telewarm/warmup-engine-go/internal/database"
	"github.com/telewarm/warmup-engine-go/internal/handler"
	"github.com/telewarm/warmup-engine-go/internal/jobs"
	"github.com/telewarm/warmup-engine-go/internal/messaging"
	"github.com/telewarm/warmup-engine-go/internal/middleware"
	"github.com/telewarm/warmup-engine-go/internal/planner"
	"github.com/telewarm/warmup-engine-go/internal/redis"
	"github.com/telewarm/warmup-engine-go/internal/repository"
	"github.com/telewarm/warmup-engine-go/internal/service"
	"github.com/telewarm/warmup-engine-go/internal/sor"
	"github.com/telewarm/warmup-engine-go/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	accountRepo := repository.NewAccountRepository(db)
	warmupSessionRepo := repository.NewWarmupSessionRepository(db)
	actionHistoryRepo := repository.NewActionHistoryRepository(db)
	syncStateRepo := repository.NewSyncStateRepository(db)

	plannerClient := planner.NewHTTPClient(cfg.PlannerURL, cfg.PlannerToken)
	backendClient := messaging.NewHTTPClient(cfg.BackendURL, cfg.BackendToken, cfg.BackendRPS, cfg.BackendBurst)
	registryClient := sor.NewHTTPClient(cfg.RegistryURL, cfg.RegistryToken)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	schedulePolicy := service.NewSchedulePolicy(cfg.MaxWarmupStage)
	planService := service.NewPlanService(plannerClient)
	executor := service.NewExecutor(backendClient, actionHistoryRepo, cfg.MinBetweenActions(), cfg.MaxBetweenActions())
	leaseManager := service.NewRedisLeaseManager(redisClient, cfg.LeaseTTL())
	warmupService := service.NewWarmupService(
		accountRepo, warmupSessionRepo, planService, executor, leaseManager, schedulePolicy, broker,
	)
	reconciler := service.NewReconciler(registryClient, accountRepo, syncStateRepo, cfg.ReconcileInterval(), broker)
	accountService := service.NewAccountService(accountRepo, warmupSessionRepo, actionHistoryRepo, cfg.MaxStartDelay())

	scheduler := jobs.NewWarmupScheduler(
		accountRepo, actionHistoryRepo, warmupService, reconciler, schedulePolicy,
		cfg.Tick(), cfg.ReconcileEnabled, cfg.ActionHistoryRetention(),
	)

	authMiddleware := middleware.NewAuthMiddleware(cfg.APIToken)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	accountHandler := handler.NewAccountHandler(accountService, warmupService)
	reconcileHandler := handler.NewReconcileHandler(reconciler)
	eventsHandler := handler.NewEventsHandler(broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)

		r.Mount("/accounts", accountHandler.Routes())
		r.Post("/reconcile", reconcileHandler.Run)
		r.Get("/events", eventsHandler.ServeHTTP)

		r.Get("/scheduler", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"running": scheduler.Running(),
			})
		})
	})

	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

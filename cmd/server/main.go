package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"touchline/backend/internal/cache"
	"touchline/backend/internal/config"
	"touchline/backend/internal/db"
	"touchline/backend/internal/handler"
	transport "touchline/backend/internal/http"
	"touchline/backend/internal/logger"
	"touchline/backend/internal/network"
	"touchline/backend/internal/repository"
	"touchline/backend/internal/scheduler"
	"touchline/backend/internal/service"
	"touchline/backend/internal/service/ai"
	"touchline/backend/internal/snowflake"
)

// sessionSweepInterval is how often idle session caches are dropped.
const sessionSweepInterval = 5 * time.Minute

// @title Touchline API
// @version 1.0
// @description Sports articles with on-demand and background translation.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(cfg.NodeID); err != nil {
		fatal("init snowflake", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fatal("create data dir", err)
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		fatal("open database", err)
	}
	defer dbConn.Close()

	clientFactory := network.NewClientFactory(cfg.AI.Proxy)
	rateLimiter := ai.NewRateLimiter(cfg.AIRateLimit)

	articleRepo := repository.NewArticleRepository(dbConn)
	translationRepo := repository.NewTranslationRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)

	settingsService := service.NewSettingsService(settingsRepo, cfg.AI, clientFactory, rateLimiter)
	translator := service.NewTranslator(settingsService, ai.NewProvider, rateLimiter)
	orchestrator := service.NewOrchestrator(translator, translationRepo, cfg.TranslationDelay)
	translationService := service.NewTranslationService(translator, orchestrator, articleRepo, translationRepo)
	jobService := service.NewTranslationJobService(translationService, cfg.JobQueueSize)
	articleService := service.NewArticleService(articleRepo, jobService)
	authService := service.NewAuthService(cfg.JWTSecret)
	shareService := service.NewShareService(articleService, service.SiteInfo{Name: cfg.SiteName, URL: cfg.SiteURL})
	resolver := service.NewResolver(translationRepo)
	sessions := cache.NewSessions(cfg.SessionTTL, cfg.SessionMax)

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not set, editor and admin routes are disabled", "module", "server", "action", "start", "resource", "auth", "result", "failed")
	}

	languageHandler := handler.NewLanguageHandler()
	articleHandler := handler.NewArticleHandler(articleService, translationService, resolver, sessions, jobService)
	translationHandler := handler.NewTranslationHandler(translationService, jobService)
	settingsHandler := handler.NewSettingsHandler(settingsService, clientFactory)

	router := transport.NewRouter(
		languageHandler,
		articleHandler,
		translationHandler,
		settingsHandler,
		authService,
		shareService,
		cfg.StaticDir,
	)

	jobService.Start()

	sched := scheduler.New(articleRepo, jobService, sessions, cfg.BackfillInterval, sessionSweepInterval)
	sched.Start()

	go func() {
		logger.Info("server starting", "module", "server", "action", "start", "resource", "http", "result", "ok", "addr", cfg.Addr)
		if err := router.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("start server", err)
		}
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down", "module", "server", "action", "stop", "resource", "http", "result", "ok")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := router.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", "module", "server", "action", "stop", "resource", "http", "result", "failed", "error", err)
	}
	sched.Stop()
	jobService.Stop()
}

func fatal(msg string, err error) {
	logger.Error(msg, "module", "server", "action", "start", "resource", "server", "result", "failed", "error", err)
	os.Exit(1)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-migrator/internal/config"
	"marketplace-migrator/internal/domain/ports/adapter"
	"marketplace-migrator/internal/infra/browser"
	pg "marketplace-migrator/internal/infra/db/postgres"
	"marketplace-migrator/internal/infra/logging"
	"marketplace-migrator/internal/infra/metrics"
	"marketplace-migrator/internal/infra/notify"
	red "marketplace-migrator/internal/infra/redis"
	"marketplace-migrator/internal/infra/sched"
	"marketplace-migrator/internal/infra/source"
	"marketplace-migrator/internal/infra/web"
	"marketplace-migrator/internal/infra/webhook"
	"marketplace-migrator/internal/infra/worker"
	"marketplace-migrator/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, headful browser)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)
	batchRepo := pg.NewBatchRepo(pool, tm)
	unitRepo := pg.NewMigrationUnitRepo(pool, tm)
	progressRepo := pg.NewProgressLogRepo(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	sessionStore := red.NewSessionStore(redisClient, cfg.Redis.TTL)
	accountLocker := red.NewAccountLocker(redisClient)
	sessionSweep := red.NewSessionSweeper(redisClient)

	// ---- Browser engine ----
	browserCfg := cfg.Browser
	if cfg.Runtime.Dev {
		browserCfg.Headless = false
	}
	engine, err := browser.NewEngine(browserCfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("browser engine")
	}
	defer engine.Close()
	profile := browser.DefaultProfile(cfg.Destination)

	// ---- Runners and orchestrators ----
	browserRunner := browser.NewAttemptRunner(
		engine, sessionStore, accountLocker, profile,
		cfg.Browser.StepTimeout, cfg.Browser.SettleDelay, logger)
	webhookRunner := usecase.NewWebhookRunner(
		webhook.NewHTTPDeliverer(cfg.Webhook.URL, cfg.Webhook.Timeout), sessionStore, logger)

	retry := usecase.NewRetryCoordinator(logger)
	browserOrch := usecase.NewMigrationOrchestrator(browserRunner, retry, usecase.OrchestratorOptions{
		Concurrency:  cfg.Migration.Concurrency,
		BatchDelay:   cfg.Migration.BatchDelay,
		UnitDeadline: cfg.Migration.UnitDeadline,
		Policy: usecase.RetryPolicy{
			MaxAttempts: cfg.Migration.MaxAttempts,
			Delay:       cfg.Migration.RetryDelay,
		},
	}, logger)
	webhookOrch := usecase.NewMigrationOrchestrator(webhookRunner, retry, usecase.OrchestratorOptions{
		Concurrency:  cfg.Migration.Concurrency,
		BatchDelay:   cfg.Migration.BatchDelay,
		UnitDeadline: cfg.Migration.UnitDeadline,
		Policy: usecase.RetryPolicy{
			MaxAttempts: cfg.Migration.MaxAttempts,
			Delay:       cfg.Migration.RetryDelay,
			ScaleDelay:  true,
		},
	}, logger)

	// ---- Optional adapters ----
	var catalog adapter.SourceCatalog
	if cfg.Source.BaseURL != "" {
		catalog = source.NewClient(cfg.Source)
	}
	var notifier adapter.Notifier
	if cfg.Notify.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.Notify, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier")
		}
	}

	// ---- Background workers ----
	pool2 := worker.NewPool(cfg.Migration.Workers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()
	processor := worker.NewBatchProcessor(
		batchRepo, unitRepo, progressRepo,
		browserOrch, webhookOrch,
		worker.ConfigCredentials(cfg.Destination.Accounts),
		notifier, logger)
	go processor.Start(ctx, pool2)

	// ---- Schedulers ----
	reconciler := sched.NewUnitReconciler(
		cfg.Scheduler.ReconcileInterval, cfg.Scheduler.StuckUnitAfter, unitRepo, batchRepo, logger)
	go func() { _ = reconciler.Run(ctx) }()
	sweeper := sched.NewSessionSweeper(
		cfg.Scheduler.ReconcileInterval, cfg.Scheduler.SessionMaxAge, sessionSweep, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Control API ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, 30*time.Minute)
	srv := web.NewServer(batchRepo, unitRepo, progressRepo, catalog, auth, cfg.Admin.APIKey, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: srv.Routes()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("control API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/carrierdesk/carrierdesk/internal/app"
	"github.com/carrierdesk/carrierdesk/internal/bilty"
	"github.com/carrierdesk/carrierdesk/internal/challan"
	"github.com/carrierdesk/carrierdesk/internal/documents"
	"github.com/carrierdesk/carrierdesk/internal/numbering"
	"github.com/carrierdesk/carrierdesk/internal/observability"
	"github.com/carrierdesk/carrierdesk/internal/party"
	"github.com/carrierdesk/carrierdesk/internal/platform/cache"
	"github.com/carrierdesk/carrierdesk/internal/platform/db"
	"github.com/carrierdesk/carrierdesk/internal/reminder"
	"github.com/carrierdesk/carrierdesk/internal/shared"
	"github.com/carrierdesk/carrierdesk/internal/stats"
	"github.com/carrierdesk/carrierdesk/jobs"
	"github.com/carrierdesk/carrierdesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if err := db.Migrate(ctx, dbpool); err != nil {
		logger.Error("migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		if cfg.CounterBackend == "redis" {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Warn("redis unavailable, stats cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	var counterRedis redis.UniversalClient
	if redisClient != nil {
		counterRedis = redisClient
	}
	store, err := app.NewCounterStore(ctx, cfg, dbpool, counterRedis)
	if err != nil {
		logger.Error("init counter store", slog.Any("error", err))
		os.Exit(1)
	}
	policy, err := numbering.ParseScopePolicy(cfg.NumberingScope)
	if err != nil {
		logger.Error("numbering scope", slog.Any("error", err))
		os.Exit(1)
	}
	allocator := numbering.NewAllocator(store,
		numbering.WithMaxAttempts(cfg.NumberingMaxAttempts),
		numbering.WithMetrics(numbering.NewMetrics(metrics.Registerer())),
		numbering.WithLogger(logger),
	)
	writer := documents.NewWriter(allocator, policy, logger)

	auditLogger := shared.NewAuditLogger(dbpool)

	partyService := party.NewService(party.NewRepository(dbpool), auditLogger, cfg.ReminderCountry, logger)
	biltyService := bilty.NewService(bilty.NewRepository(dbpool), writer, partyService, auditLogger, logger)
	challanService := challan.NewService(challan.NewRepository(dbpool), writer, auditLogger, cfg.ReminderCountry, logger)
	reminderService := reminder.NewService(reminder.NewRepository(dbpool), partyService, cfg.CompanyName, cfg.ReminderCountry, logger)
	statsService := stats.NewService(stats.NewRepository(dbpool), stats.NewCache(redisClient, cfg.StatsCacheTTL), logger)
	partyService.SetChangeNotifier(statsService)
	biltyService.SetChangeNotifier(statsService)
	challanService.SetChangeNotifier(statsService)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	printer, err := report.NewDocumentRenderer(pdfClient, cfg.CompanyName)
	if err != nil {
		logger.Error("init print templates", slog.Any("error", err))
		os.Exit(1)
	}

	readiness := map[string]app.Pinger{
		"postgres":  dbpool,
		"gotenberg": pdfClient,
	}
	var jobHandler *jobs.Handler
	if redisClient != nil {
		readiness["redis"] = app.RedisPinger{Client: redisClient}
		redisOpts := cfg.AsynqRedisOpt()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, jobClient, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		PartyHandler:    party.NewHandler(logger, partyService),
		BiltyHandler:    bilty.NewHandler(logger, biltyService, printer),
		ChallanHandler:  challan.NewHandler(logger, challanService, printer),
		ReminderHandler: reminder.NewHandler(logger, reminderService),
		StatsHandler:    stats.NewHandler(logger, statsService),
		JobHandler:      jobHandler,
		Readiness:       readiness,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("counter_backend", cfg.CounterBackend),
			slog.String("numbering_scope", cfg.NumberingScope),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

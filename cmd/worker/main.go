package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	"github.com/carrierdesk/carrierdesk/internal/app"
	jobmetrics "github.com/carrierdesk/carrierdesk/internal/jobs"
	"github.com/carrierdesk/carrierdesk/internal/party"
	"github.com/carrierdesk/carrierdesk/internal/platform/cache"
	"github.com/carrierdesk/carrierdesk/internal/platform/db"
	"github.com/carrierdesk/carrierdesk/internal/reminder"
	"github.com/carrierdesk/carrierdesk/internal/shared"
	"github.com/carrierdesk/carrierdesk/internal/stats"
	"github.com/carrierdesk/carrierdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	partyService := party.NewService(party.NewRepository(pool), shared.NewAuditLogger(pool), cfg.ReminderCountry, logger)
	reminderService := reminder.NewService(reminder.NewRepository(pool), partyService, cfg.CompanyName, cfg.ReminderCountry, logger)
	digestRunner := reminder.NewDigestRunner(reminderService, redislock.New(redisClient), logger)
	statsService := stats.NewService(stats.NewRepository(pool), stats.NewCache(redisClient, cfg.StatsCacheTTL), logger)

	digestJob := jobs.NewReminderDigestJob(digestRunner, logger, metrics)
	warmupJob := jobs.NewStatsWarmupJob(statsService, logger, metrics)

	digestTask, err := jobs.NewReminderDigestTask(jobs.SourceSchedule)
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewStatsWarmupTask(jobs.SourceSchedule)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.AsynqRedisOpt(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReminderDigest, Handler: digestJob.Handle},
			{Type: jobs.TaskStatsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 3 * * *", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/15 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/carrierdesk/carrierdesk/internal/jobs"
	"github.com/carrierdesk/carrierdesk/internal/stats"
)

// StatsWarmer recomputes the cached summary.
type StatsWarmer interface {
	Warm(ctx context.Context) (stats.Summary, error)
}

// StatsWarmupJob handles TaskStatsWarmup.
type StatsWarmupJob struct {
	Stats   StatsWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStatsWarmupJob wires dependencies for the warm-up handler.
func NewStatsWarmupJob(warmer StatsWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatsWarmupJob {
	return &StatsWarmupJob{Stats: warmer, Logger: logger, Metrics: metrics}
}

// Handle processes stats warm-up tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Stats == nil {
		return errors.New("stats warmup: handler not configured")
	}
	var payload StatsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskStatsWarmup)

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	logger := jobLogger(j.Logger, TaskStatsWarmup).With(slog.String("source", payload.Source), slog.String("task_id", taskID(ctx)))
	sum, err := j.Stats.Warm(ctx)
	if err != nil {
		logger.Error("stats warmup failed", slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("completed stats warmup",
		slog.String("month", sum.Month),
		slog.Int64("bilties", sum.Bilties),
		slog.Int64("challans", sum.Challans),
	)
	return tracker.End(nil)
}

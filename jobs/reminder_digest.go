package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/carrierdesk/carrierdesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DigestRunner builds the reminder digest and reports how many links it produced.
type DigestRunner interface {
	Run(ctx context.Context) (int, error)
}

// ReminderDigestJob handles TaskReminderDigest.
type ReminderDigestJob struct {
	Runner  DigestRunner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReminderDigestJob wires dependencies for the digest handler.
func NewReminderDigestJob(runner DigestRunner, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReminderDigestJob {
	return &ReminderDigestJob{Runner: runner, Logger: logger, Metrics: metrics}
}

// Handle processes reminder digest tasks.
func (j *ReminderDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("reminder digest: handler not configured")
	}
	var payload ReminderDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskReminderDigest)

	logger := jobLogger(j.Logger, TaskReminderDigest).With(slog.String("source", payload.Source), slog.String("task_id", taskID(ctx)))
	sent, err := j.Runner.Run(ctx)
	metrics.AddReminders(sent)
	if err != nil {
		logger.Error("reminder digest failed", slog.Int("reminders", sent), slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("completed reminder digest", slog.Int("reminders", sent))
	return tracker.End(nil)
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}

func taskID(ctx context.Context) string {
	if id, ok := asynq.GetTaskID(ctx); ok {
		return id
	}
	return ""
}

package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task sources.
const (
	SourceSchedule = "schedule"
	SourceManual   = "manual"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReminderDigest builds payment reminder links for every party with to-pay dues.
	TaskReminderDigest = "reminder:digest"
	// TaskStatsWarmup recomputes the cached dashboard summary.
	TaskStatsWarmup = "stats:warmup"
)

// ReminderDigestPayload describes one digest request. Scheduled runs share the
// payload registered with the scheduler, so RequestedAt is the registration time.
type ReminderDigestPayload struct {
	RequestedAt time.Time `json:"requested_at"`
	Source      string    `json:"source"`
}

// StatsWarmupPayload describes one warm-up request.
type StatsWarmupPayload struct {
	Source string `json:"source"`
}

// NewReminderDigestTask constructs an Asynq task.
func NewReminderDigestTask(source string) (*asynq.Task, error) {
	data, err := json.Marshal(ReminderDigestPayload{RequestedAt: time.Now().UTC(), Source: source})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReminderDigest, data), nil
}

// NewStatsWarmupTask constructs an Asynq task.
func NewStatsWarmupTask(source string) (*asynq.Task, error) {
	data, err := json.Marshal(StatsWarmupPayload{Source: source})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, data), nil
}

package reminder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"

	"github.com/carrierdesk/carrierdesk/internal/shared"
)

// DigestLockTTL bounds how long one worker may hold the digest lock.
const DigestLockTTL = 5 * time.Minute

// DigestRunner runs Service.Digest on at most one worker at a time.
type DigestRunner struct {
	service *Service
	locker  *redislock.Client
	logger  *slog.Logger
}

// NewDigestRunner constructs a DigestRunner.
func NewDigestRunner(service *Service, locker *redislock.Client, logger *slog.Logger) *DigestRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DigestRunner{service: service, locker: locker, logger: logger}
}

// Run builds the digest. It returns (0, nil) without doing anything when another
// worker holds the lock.
func (r *DigestRunner) Run(ctx context.Context) (int, error) {
	lock, err := r.locker.Obtain(ctx, shared.JobLockKey("reminder-digest"), DigestLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		r.logger.Info("reminder digest already running elsewhere")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.Warn("release digest lock", slog.Any("error", err))
		}
	}()

	sent, err := r.service.Digest(ctx)
	if err != nil {
		return len(sent), err
	}
	r.logger.Info("reminder digest built", slog.Int("reminders", len(sent)))
	return len(sent), nil
}

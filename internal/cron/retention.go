package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

const (
	day = 24 * time.Hour

	notificationRetentionDays = 30
	outboxRetentionDays       = 7
	outboxMinAttempts         = 10
)

type pruneFunc func(ctx context.Context, cutoff time.Time) (int64, error)

// retentionJob deletes rows older than a rolling window of whole days.
type retentionJob struct {
	name   string
	logg   *logger.Logger
	days   int
	prune  pruneFunc
	fields map[string]any
	now    func() time.Time
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) cutoff() time.Time {
	return j.now().UTC().Add(-time.Duration(j.days) * day)
}

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	deleted, err := j.prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	fields := map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	}
	for k, v := range j.fields {
		fields[k] = v
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), "cron.retention.complete")
	return nil
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

type readNotificationPruner interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository readNotificationPruner
	Retention  int
}

// NewNotificationCleanupJob prunes read customer notifications. Unread rows
// stay regardless of age.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Repository == nil:
		return nil, errors.New("notifications repository required")
	}
	return &retentionJob{
		name:  "notification-cleanup",
		logg:  params.Logger,
		days:  orDefault(params.Retention, notificationRetentionDays),
		prune: params.Repository.DeleteReadBefore,
		now:   time.Now,
	}, nil
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttempts int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxPruner
	Retention   int
	MinAttempts int
}

// NewOutboxRetentionJob prunes published outbox rows. MinAttempts should
// equal the relay's terminal attempt count so dead-lettered rows go too.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	minAttempts := orDefault(params.MinAttempts, outboxMinAttempts)
	prune := func(ctx context.Context, cutoff time.Time) (int64, error) {
		var deleted int64
		err := params.DB.WithTx(ctx, func(tx *gorm.DB) error {
			n, err := params.Repository.DeletePublishedBefore(ctx, tx, cutoff, minAttempts)
			deleted = n
			return err
		})
		return deleted, err
	}
	return &retentionJob{
		name:   "outbox-retention",
		logg:   params.Logger,
		days:   orDefault(params.Retention, outboxRetentionDays),
		prune:  prune,
		fields: map[string]any{"min_attempts": minAttempts},
		now:    time.Now,
	}, nil
}

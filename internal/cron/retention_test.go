package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/pkg/db"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/dbtest"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox"
)

type stubNotificationPruner struct {
	cutoff  time.Time
	deleted int64
	err     error
	calls   int
}

func (s *stubNotificationPruner) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.calls++
	s.cutoff = cutoff
	return s.deleted, s.err
}

func frozen(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestNotificationCleanupUsesThirtyDayCutoff(t *testing.T) {
	pruner := &stubNotificationPruner{deleted: 42}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: quietLogger(), Repository: pruner})
	require.NoError(t, err)
	job.(*retentionJob).now = frozen(time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC))

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "notification-cleanup", job.Name())
	assert.Equal(t, 1, pruner.calls)
	assert.Equal(t, time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), pruner.cutoff)
}

func TestNotificationCleanupWrapsErrors(t *testing.T) {
	pruner := &stubNotificationPruner{err: errors.New("boom")}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: quietLogger(), Repository: pruner, Retention: 3})
	require.NoError(t, err)

	err = job.Run(context.Background())
	assert.EqualError(t, err, "notification-cleanup: boom")
	assert.Equal(t, 3, job.(*retentionJob).days)
}

func TestRetentionJobsValidate(t *testing.T) {
	_, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: quietLogger()})
	assert.Error(t, err)
	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: quietLogger()})
	assert.Error(t, err)
}

func TestOutboxRetentionDeletesPublishedAndExhaustedRows(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	old := now.Add(-8 * day)
	recent := now.Add(-2 * day)

	seed := func(createdAt time.Time, publishedAt *time.Time, attempts int) uuid.UUID {
		id := uuid.New()
		require.NoError(t, conn.Create(&models.OutboxEvent{
			ID:            id,
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   "2026OC1abcd",
			Payload:       []byte(`{}`),
			AttemptCount:  attempts,
			PublishedAt:   publishedAt,
			CreatedAt:     createdAt,
		}).Error)
		return id
	}
	seed(old, &old, 1)
	oldPending := seed(old, nil, 2)
	seed(old, nil, outboxMinAttempts)
	recentPublished := seed(recent, &recent, 1)

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     quietLogger(),
		DB:         db.NewFromConn(conn),
		Repository: outbox.NewRepository(conn),
	})
	require.NoError(t, err)
	job.(*retentionJob).now = frozen(now)
	assert.Equal(t, outboxRetentionDays, job.(*retentionJob).days)

	require.NoError(t, job.Run(context.Background()))

	var remaining []models.OutboxEvent
	require.NoError(t, conn.Find(&remaining).Error)
	ids := make([]uuid.UUID, 0, len(remaining))
	for _, row := range remaining {
		ids = append(ids, row.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{oldPending, recentPublished}, ids)
}

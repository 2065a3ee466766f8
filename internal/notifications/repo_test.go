package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/dbtest"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

func seedNotification(t *testing.T, repo Repository, customerID uint64, createdAt time.Time, readAt *time.Time) models.CustomerNotification {
	t.Helper()
	n := models.CustomerNotification{
		CustomerID: customerID,
		Type:       enums.NotificationTypeOrderPlaced,
		Title:      "Order Placed",
		Message:    "received",
		CreatedAt:  createdAt,
		ReadAt:     readAt,
	}
	require.NoError(t, repo.Create(context.Background(), &n))
	return n
}

func TestRepositoryListPaginates(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	base := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedNotification(t, repo, 1, base.Add(time.Duration(i)*time.Minute), nil)
	}
	seedNotification(t, repo, 2, base, nil)

	first, cursor, err := repo.List(context.Background(), listNotificationsParams{CustomerID: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, cursor)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	second, next, err := repo.List(context.Background(), listNotificationsParams{CustomerID: 1, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, next)
	assert.Equal(t, base.Unix(), second[0].CreatedAt.Unix())
}

func TestRepositoryMarkReadScopesToCustomer(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	n := seedNotification(t, repo, 1, time.Now().UTC(), nil)
	now := time.Now().UTC()

	res, err := repo.MarkRead(context.Background(), 2, n.ID, now)
	require.NoError(t, err)
	assert.False(t, res.Found)

	res, err = repo.MarkRead(context.Background(), 1, n.ID, now)
	require.NoError(t, err)
	assert.True(t, res.Updated)

	res, err = repo.MarkRead(context.Background(), 1, n.ID, now)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.Updated)

	unread, err := repo.CountUnread(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestRepositoryMarkAllAndDeleteReadBefore(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	seedNotification(t, repo, 1, old, &old)
	seedNotification(t, repo, 1, old, nil)
	seedNotification(t, repo, 1, time.Now().UTC(), nil)

	updated, err := repo.MarkAllRead(context.Background(), 1, time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	deleted, err := repo.DeleteReadBefore(context.Background(), time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestForOrderSkipsGuests(t *testing.T) {
	order := &models.Order{ID: 3, OrderCode: "2025OC12abcd"}
	assert.Nil(t, ForOrder(enums.NotificationTypeOrderPlaced, order))

	customerID := uint64(8)
	order.CustomerID = &customerID
	n := ForOrder(enums.NotificationTypePaymentSuccessful, order)
	require.NotNil(t, n)
	assert.Equal(t, "Payment Successful", n.Title)
	assert.Equal(t, customerID, n.CustomerID)
	assert.Contains(t, n.Message, "2025OC12abcd")
}

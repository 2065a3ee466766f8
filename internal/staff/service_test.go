package staff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/dbtest"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
)

func TestExtractTrackingLink(t *testing.T) {
	cases := map[string]string{
		"I'm on my way https://maps.app.goo.gl/abc123 see you": "https://maps.app.goo.gl/abc123",
		"https://one.example https://two.example":               "https://one.example",
		"http://insecure.example":                               "",
		"no link here":                                          "",
	}
	for input, want := range cases {
		assert.Equal(t, want, ExtractTrackingLink(input), input)
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	return svc, db
}

func TestUpdateTrackingLinkUpserts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateTrackingLink(ctx, UpdateInput{StaffID: 5, Name: "Otieno", Message: "live: https://maps.example/first"})
	require.NoError(t, err)
	_, err = svc.UpdateTrackingLink(ctx, UpdateInput{StaffID: 5, Name: "Otieno", Message: "https://maps.example/second"})
	require.NoError(t, err)

	var rows []models.Staff
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].TrackingLink)
	assert.Equal(t, "https://maps.example/second", *rows[0].TrackingLink)
	assert.Equal(t, "Otieno", rows[0].Name)
}

func TestUpdateTrackingLinkRequiresLink(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateTrackingLink(context.Background(), UpdateInput{StaffID: 5, Message: "running late"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdateTrackingLink(context.Background(), UpdateInput{Message: "https://x.example"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestTrackingForOrder(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	_, err := svc.UpdateTrackingLink(ctx, UpdateInput{StaffID: 5, Message: "https://maps.example/live"})
	require.NoError(t, err)

	staffID := uint64(5)
	order := &models.Order{Status: enums.OrderStatusOutForDelivery, StaffID: &staffID}
	view, err := svc.TrackingForOrder(ctx, order)
	require.NoError(t, err)
	assert.True(t, view.TrackingAvailable)
	require.NotNil(t, view.TrackingLink)
	assert.Equal(t, "https://maps.example/live", *view.TrackingLink)

	view, err = svc.TrackingForOrder(ctx, &models.Order{Status: enums.OrderStatusPending})
	require.NoError(t, err)
	assert.False(t, view.TrackingAvailable)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.ClearTrackingLink(ctx, tx, staffID)
	}))
	view, err = svc.TrackingForOrder(ctx, order)
	require.NoError(t, err)
	assert.False(t, view.TrackingAvailable)
	assert.Nil(t, view.TrackingLink)

	other := uint64(99)
	view, err = svc.TrackingForOrder(ctx, &models.Order{Status: enums.OrderStatusOutForDelivery, StaffID: &other})
	require.NoError(t, err)
	assert.False(t, view.TrackingAvailable)
}

package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/dbtest"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/pagination"
)

func seedOrder(t *testing.T, db *gorm.DB, code string, mutate func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderCode:       code,
		CustomerName:    "Wanjiku",
		CustomerPhone:   "254712345678",
		Items:           []models.OrderItem{{ProductID: 1, Name: "Chips Masala", Quantity: 2, UnitPrice: decimal.NewFromInt(250)}},
		ProductTotal:    decimal.NewFromInt(500),
		DeliveryFee:     decimal.NewFromInt(100),
		ConvenienceFee:  decimal.Zero,
		TransactionFee:  decimal.Zero,
		TotalAmount:     decimal.NewFromInt(600),
		DeliveryAddress: "Moi Avenue",
		PaymentMethod:   enums.PaymentMethodCash,
		PaymentStatus:   enums.PaymentStatusPending,
		Status:          enums.OrderStatusPending,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, NewRepository(db).Create(context.Background(), order))
	return order
}

func TestRepositoryClaimIsCompareAndSet(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, "2025OC1aaaa", nil)

	ok, err := repo.Claim(ctx, order.ID, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(ctx, order.ID, 8)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.StaffID)
	assert.Equal(t, uint64(7), *stored.StaffID)
	assert.Equal(t, enums.OrderStatusOutForDelivery, stored.Status)
}

func TestRepositoryUnclaimRequiresOwner(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	staffID := uint64(7)
	order := seedOrder(t, db, "2025OC1bbbb", func(o *models.Order) {
		o.StaffID = &staffID
		o.Status = enums.OrderStatusOutForDelivery
	})

	ok, err := repo.Unclaim(ctx, order.ID, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Unclaim(ctx, order.ID, staffID)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.StaffID)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
}

func TestRepositoryApplyPaymentOutcomeOnlyFromPending(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := seedOrder(t, db, "2025OC1cccc", nil)
	now := time.Now().UTC()

	ok, err := repo.ApplyPaymentOutcome(ctx, order.ID, enums.PaymentStatusComplete, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ApplyPaymentOutcome(ctx, order.ID, enums.PaymentStatusFailed, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SetGatewayReference(ctx, order.ID, "ref-2", nil)
	require.NoError(t, err)
	assert.False(t, ok, "settled orders keep their status")

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusComplete, stored.PaymentStatus)
	assert.NotNil(t, stored.PaidAt)
}

func TestRepositoryFindByExternalReferenceFallsBackToGatewayReference(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	ref := "PH-88812"
	order := seedOrder(t, db, "2025OC1dddd", func(o *models.Order) { o.GatewayReference = &ref })

	byCode, err := repo.FindByExternalReference(ctx, "2025OC1dddd")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byCode.ID)

	byRef, err := repo.FindByExternalReference(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byRef.ID)

	_, err = repo.FindByExternalReference(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListActiveExcludesArchivedAndPaginates(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, code := range []string{"2025OC1e001", "2025OC1e002", "2025OC1e003"} {
		at := base.Add(time.Duration(i) * time.Minute)
		seedOrder(t, db, code, func(o *models.Order) { o.CreatedAt = at })
	}
	seedOrder(t, db, "2025OC1e004", func(o *models.Order) {
		o.IsArchived = true
		o.Status = enums.OrderStatusDelivered
	})

	first, cursor, err := repo.ListActive(ctx, 2, nil, ActiveFilters{})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, cursor)
	assert.Equal(t, "2025OC1e003", first[0].OrderCode)
	assert.Equal(t, "2025OC1e002", first[1].OrderCode)

	decoded, err := pagination.ParseCursor(pagination.EncodeCursor(*cursor))
	require.NoError(t, err)
	second, next, err := repo.ListActive(ctx, 2, decoded, ActiveFilters{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, next)
	assert.Equal(t, "2025OC1e001", second[0].OrderCode)
}

func TestRepositoryListByCustomer(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	customer := uint64(42)
	seedOrder(t, db, "2025OC1f001", func(o *models.Order) { o.CustomerID = &customer })
	seedOrder(t, db, "2025OC1f002", nil)

	rows, next, err := repo.ListByCustomer(context.Background(), customer, 10, nil)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025OC1f001", rows[0].OrderCode)
	require.Len(t, rows[0].Items, 1)
	assert.True(t, rows[0].TotalAmount.Equal(decimal.NewFromInt(600)))
}

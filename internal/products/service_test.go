package products

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/audit"
	"github.com/VINCENT-bot354/safaribytes/pkg/db"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/dbtest"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

const adminID = uint64(1)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), audit.NewWriter(), logg)
	require.NoError(t, err)
	return svc, conn
}

func dish(name string, price int64) ProductInput {
	return ProductInput{
		ImageURL:    "https://cdn.example/" + name + ".jpg",
		Name:        name,
		Category:    "Mains",
		PriceNow:    decimal.NewFromInt(price),
		CostOfGoods: decimal.NewFromInt(price / 2),
	}
}

func combo(name string, price int64, components ...models.ComboComponent) ProductInput {
	input := dish(name, price)
	input.Category = "Combos"
	input.IsCombo = true
	input.ComboItems = components
	return input
}

func create(t *testing.T, svc Service, input ProductInput) *AdminProductView {
	t.Helper()
	view, err := svc.Create(context.Background(), adminID, input)
	require.NoError(t, err)
	return view
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	return typed.Code()
}

func TestCreateProductRecordsAudit(t *testing.T) {
	svc, conn := newTestService(t)
	old := decimal.NewFromInt(350)
	input := dish("Pilau", 300)
	input.PriceOld = &old

	view := create(t, svc, input)
	assert.NotZero(t, view.ID)
	assert.True(t, view.IsAvailable)
	assert.True(t, view.IsActive)
	require.NotNil(t, view.PriceOld)
	assert.True(t, view.PriceOld.Equal(old))
	assert.True(t, view.Margin.Equal(decimal.NewFromInt(150)))

	var audits int64
	require.NoError(t, conn.Table("audit_logs").Where("entity_type = ? AND action = ?", "product", "product.created").Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]func(*ProductInput){
		"missing name":        func(in *ProductInput) { in.Name = "  " },
		"zero price":          func(in *ProductInput) { in.PriceNow = decimal.Zero },
		"negative cost":       func(in *ProductInput) { in.CostOfGoods = decimal.NewFromInt(-1) },
		"items without combo": func(in *ProductInput) { in.ComboItems = []models.ComboComponent{{ProductID: 1, Quantity: 1}} },
		"empty combo":         func(in *ProductInput) { in.IsCombo = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := dish("Chapati", 50)
			mutate(&input)
			_, err := svc.Create(ctx, adminID, input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))
		})
	}
}

func TestComboComponentsMustBePlainActiveProducts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	chips := create(t, svc, dish("Chips", 200))
	soda := create(t, svc, dish("Soda", 80))
	meal := create(t, svc, combo("Chips and Soda", 260,
		models.ComboComponent{ProductID: chips.ID, Quantity: 1},
		models.ComboComponent{ProductID: soda.ID, Quantity: 1},
	))
	require.Len(t, meal.ComboItems, 2)
	assert.Equal(t, "Chips", meal.ComboItems[0].Name)

	_, err := svc.Create(ctx, adminID, combo("Nested", 400, models.ComboComponent{ProductID: meal.ID, Quantity: 1}))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	_, err = svc.Create(ctx, adminID, combo("Ghost", 400, models.ComboComponent{ProductID: 999, Quantity: 1}))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))

	_, err = svc.Create(ctx, adminID, combo("Twice", 400,
		models.ComboComponent{ProductID: chips.ID, Quantity: 1},
		models.ComboComponent{ProductID: chips.ID, Quantity: 2},
	))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))
}

func TestMenuMarksComboUnavailableWhenComponentSoldOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	chips := create(t, svc, dish("Chips", 200))
	soda := create(t, svc, dish("Soda", 80))
	meal := create(t, svc, combo("Chips and Soda", 260,
		models.ComboComponent{ProductID: chips.ID, Quantity: 1},
		models.ComboComponent{ProductID: soda.ID, Quantity: 2},
	))

	_, err := svc.SetAvailability(ctx, adminID, soda.ID, false)
	require.NoError(t, err)

	menu, err := svc.Menu(ctx, MenuFilter{})
	require.NoError(t, err)
	availability := map[uint64]bool{}
	for _, item := range menu {
		availability[item.ID] = item.IsAvailable
	}
	assert.Equal(t, map[uint64]bool{chips.ID: true, soda.ID: false, meal.ID: false}, availability)

	available, err := svc.Menu(ctx, MenuFilter{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, chips.ID, available[0].ID)

	combos, err := svc.Menu(ctx, MenuFilter{Category: "combos"})
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Equal(t, meal.ID, combos[0].ID)
}

func TestMenuHidesCostOfGoods(t *testing.T) {
	svc, _ := newTestService(t)
	create(t, svc, dish("Pilau", 300))

	menu, err := svc.Menu(context.Background(), MenuFilter{})
	require.NoError(t, err)
	require.Len(t, menu, 1)
	body, err := json.Marshal(menu[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"name":"Pilau"`)
	assert.NotContains(t, string(body), "cost_of_goods")
	assert.NotContains(t, string(body), "margin")
}

func TestCreateUnavailableProductStaysUnavailable(t *testing.T) {
	svc, _ := newTestService(t)
	off := false
	input := dish("Mandazi", 30)
	input.IsAvailable = &off

	view := create(t, svc, input)
	assert.False(t, view.Listed)
	assert.False(t, view.IsAvailable)
}

func TestUpdateReplacesFieldsAndKeepsAvailability(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pilau := create(t, svc, dish("Pilau", 300))
	_, err := svc.SetAvailability(ctx, adminID, pilau.ID, false)
	require.NoError(t, err)

	input := dish("Pilau Special", 320)
	updated, err := svc.Update(ctx, adminID, pilau.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Pilau Special", updated.Name)
	assert.True(t, updated.PriceNow.Equal(decimal.NewFromInt(320)))
	assert.False(t, updated.Listed, "nil IsAvailable keeps the stored switch")
	assert.Nil(t, updated.PriceOld)

	_, err = svc.Update(ctx, adminID, 404, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(t, err))
}

func TestUpdateRejectsSelfReferencingCombo(t *testing.T) {
	svc, _ := newTestService(t)
	chips := create(t, svc, dish("Chips", 200))
	meal := create(t, svc, combo("Meal", 260, models.ComboComponent{ProductID: chips.ID, Quantity: 1}))

	_, err := svc.Update(context.Background(), adminID, meal.ID, combo("Meal", 260,
		models.ComboComponent{ProductID: chips.ID, Quantity: 1},
		models.ComboComponent{ProductID: meal.ID, Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))
}

func TestRemoveIsSoftAndBlockedWhileBundled(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	chips := create(t, svc, dish("Chips", 200))
	meal := create(t, svc, combo("Meal", 260, models.ComboComponent{ProductID: chips.ID, Quantity: 1}))

	err := svc.Remove(ctx, adminID, chips.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, codeOf(t, err))

	require.NoError(t, svc.Remove(ctx, adminID, meal.ID))
	require.NoError(t, svc.Remove(ctx, adminID, chips.ID))
	require.NoError(t, svc.Remove(ctx, adminID, chips.ID), "removing twice is a no-op")

	var rows int64
	require.NoError(t, conn.Table("products").Count(&rows).Error)
	assert.Equal(t, int64(2), rows)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.SetAvailability(ctx, adminID, chips.ID, true)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, codeOf(t, err))

	var removals int64
	require.NoError(t, conn.Table("audit_logs").Where("action = ?", "product.removed").Count(&removals).Error)
	assert.Equal(t, int64(2), removals)
}

func TestCheckOrderable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	chips := create(t, svc, dish("Chips", 200))
	soda := create(t, svc, dish("Soda", 80))
	meal := create(t, svc, combo("Meal", 260,
		models.ComboComponent{ProductID: chips.ID, Quantity: 1},
		models.ComboComponent{ProductID: soda.ID, Quantity: 1},
	))

	require.NoError(t, svc.CheckOrderable(ctx, []uint64{chips.ID, meal.ID, chips.ID}))
	require.NoError(t, svc.CheckOrderable(ctx, nil))

	err := svc.CheckOrderable(ctx, []uint64{chips.ID, 999})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(t, err))
	assert.Equal(t, "product not found", pkgerrors.As(err).Message())

	_, err = svc.SetAvailability(ctx, adminID, soda.ID, false)
	require.NoError(t, err)
	err = svc.CheckOrderable(ctx, []uint64{meal.ID})
	require.Error(t, err)
	assert.Equal(t, "Meal is not available right now", pkgerrors.As(err).Message())
}

package ledger

import (
	"context"
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

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), audit.NewWriter(), logg)
	require.NoError(t, err)
	return svc, conn
}

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestRecordAndSummarize(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	first, err := svc.Record(ctx, 1, EntryInput{Amount: amount("15000"), Purpose: "  Gas cylinder refill "})
	require.NoError(t, err)
	assert.Equal(t, "Gas cylinder refill", first.Purpose)
	assert.False(t, first.IsEdited)
	_, err = svc.Record(ctx, 1, EntryInput{Amount: amount("2500.50"), Purpose: "Packaging"})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Entries, 2)
	assert.Equal(t, "17500.50", summary.Total.StringFixed(2))

	total, err := svc.Total(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(summary.Total))

	var row models.CapitalEntry
	require.NoError(t, conn.Where("id = ?", first.ID).First(&row).Error)
	require.NotNil(t, row.CreatedBy)
	assert.Equal(t, uint64(1), *row.CreatedBy)
}

func TestSummaryOfEmptyLedger(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Entries)
	assert.True(t, summary.Total.IsZero())
}

func TestRecordValidation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := map[string]EntryInput{
		"zero amount":     {Amount: decimal.Zero, Purpose: "Rent"},
		"negative amount": {Amount: amount("-10"), Purpose: "Rent"},
		"huge amount":     {Amount: amount("100000001"), Purpose: "Rent"},
		"blank purpose":   {Amount: amount("10"), Purpose: "   "},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), 1, input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestEditFlagsEntryAndAuditsPreviousValues(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	entry, err := svc.Record(ctx, 1, EntryInput{Amount: amount("1000"), Purpose: "Flour"})
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, 2, entry.ID, EntryInput{Amount: amount("1200"), Purpose: "Flour and oil"})
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, "1200.00", edited.Amount.StringFixed(2))

	var audits []models.AuditLog
	require.NoError(t, conn.Where("entity_type = ? AND action = ?", "capital_entry", "capital.edited").Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Contains(t, string(audits[0].Details), `"amount_before":"1000.00"`)

	total, err := svc.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", total.StringFixed(2))
}

func TestEditWithSameValuesIsNoop(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	entry, err := svc.Record(ctx, 1, EntryInput{Amount: amount("500"), Purpose: "Charcoal"})
	require.NoError(t, err)

	same, err := svc.Edit(ctx, 1, entry.ID, EntryInput{Amount: amount("500.00"), Purpose: "Charcoal "})
	require.NoError(t, err)
	assert.False(t, same.IsEdited)

	var edits int64
	require.NoError(t, conn.Table("audit_logs").Where("action = ?", "capital.edited").Count(&edits).Error)
	assert.Zero(t, edits)
}

func TestEditUnknownEntry(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Edit(context.Background(), 1, 77, EntryInput{Amount: amount("1"), Purpose: "x"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

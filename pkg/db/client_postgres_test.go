package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewFromConn(conn), mock
}

func TestWithTxCommitsOnPostgres(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs("delivered", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("UPDATE orders SET status = ? WHERE id = ?", "delivered", 7).Error
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPostgresError(t *testing.T) {
	client, mock := newMockClient(t)
	violation := &pgconn.PgError{Code: "23505", ConstraintName: "ux_orders_order_code"}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO orders`).WillReturnError(violation)
	mock.ExpectRollback()

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO orders (order_code) VALUES (?)", "2025OC1aaaa").Error
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err, "ux_orders_order_code"))
	assert.False(t, IsUniqueViolation(err, "ux_staff_email"))
	assert.False(t, IsUniqueViolation(errors.New("deadlock detected"), ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Package repo holds the pieces every gorm-backed repository embeds.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the connection a repository was built with, which is either
// the pool or an open transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB scopes the connection to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// CompareAndSet applies updates to the single row of model matching the
// guard condition and reports whether it did. A false result with a nil
// error means another writer moved the row first, or it does not exist.
func (b Base) CompareAndSet(ctx context.Context, model any, updates map[string]any, guard string, args ...any) (bool, error) {
	res := b.DB(ctx).Model(model).Where(guard, args...).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapitalEntry is one money-in line of the admin capital ledger. Amounts are
// positive; IsEdited flags entries changed after they were first recorded.
type CapitalEntry struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Purpose   string          `gorm:"column:purpose;type:text;not null"`
	IsEdited  bool            `gorm:"column:is_edited;not null;default:false"`
	CreatedBy *uint64         `gorm:"column:created_by"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CapitalEntry) TableName() string {
	return "capital_ledger"
}

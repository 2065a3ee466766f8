package models

import (
	"time"

	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

// CustomerNotification is an entry in a registered customer's in-app feed.
type CustomerNotification struct {
	ID         uint64                 `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID uint64                 `gorm:"column:customer_id;not null"`
	OrderID    *uint64                `gorm:"column:order_id"`
	OrderCode  *string                `gorm:"column:order_code;type:varchar(16)"`
	Type       enums.NotificationType `gorm:"column:type;type:varchar(32);not null"`
	Title      string                 `gorm:"column:title;type:varchar(255);not null"`
	Message    string                 `gorm:"column:message;type:text;not null"`
	ReadAt     *time.Time             `gorm:"column:read_at"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (CustomerNotification) TableName() string {
	return "customer_notifications"
}

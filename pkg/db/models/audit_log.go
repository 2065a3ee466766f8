package models

import (
	"encoding/json"
	"time"

	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

// AuditLog is an append-only record of who changed an order and how.
type AuditLog struct {
	ID         uint64            `gorm:"column:id;primaryKey;autoIncrement"`
	ActorID    *uint64           `gorm:"column:actor_id"`
	ActorRole  enums.ActorRole   `gorm:"column:actor_role;type:varchar(16);not null"`
	Action     enums.AuditAction `gorm:"column:action;type:varchar(64);not null"`
	EntityType string            `gorm:"column:entity_type;type:varchar(32);not null"`
	EntityID   string            `gorm:"column:entity_id;type:varchar(64);not null"`
	Details    json.RawMessage   `gorm:"column:details;type:jsonb"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

// OutboxEvent is one order event waiting for the relay. AggregateID carries
// the order code, which is also the Pub/Sub ordering key.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:varchar(32);not null;index:idx_outbox_events_aggregate"`
	AggregateID   string                    `gorm:"column:aggregate_id;type:varchar(64);not null;index:idx_outbox_events_aggregate"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:varchar(64);not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// MessageAttributes are attached to the published message so subscribers
// can filter without decoding the payload.
func (e OutboxEvent) MessageAttributes() map[string]string {
	return map[string]string{
		"event_id":       e.ID.String(),
		"event_type":     string(e.EventType),
		"aggregate_type": string(e.AggregateType),
		"aggregate_id":   e.AggregateID,
		"created_at":     e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

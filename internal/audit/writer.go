package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

const entityOrder = "order"

// Entry describes one audited mutation.
type Entry struct {
	ActorID   *uint64
	ActorRole enums.ActorRole
	Action    enums.AuditAction
	Entity    string
	EntityID  string
	Details   map[string]any
}

// OrderEntry is shorthand for entries about an order.
func OrderEntry(action enums.AuditAction, orderCode string, actorID *uint64, role enums.ActorRole, details map[string]any) Entry {
	return Entry{
		ActorID:   actorID,
		ActorRole: role,
		Action:    action,
		Entity:    entityOrder,
		EntityID:  orderCode,
		Details:   details,
	}
}

// Writer appends audit rows inside the caller's transaction.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Record writes entry using tx so the row commits with the mutation it describes.
func (w *Writer) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if strings.TrimSpace(string(entry.Action)) == "" {
		return errors.New("audit action required")
	}
	if strings.TrimSpace(entry.EntityID) == "" {
		return errors.New("audit entity id required")
	}
	role := entry.ActorRole
	if role == "" {
		role = enums.ActorRoleSystem
	}
	entity := entry.Entity
	if entity == "" {
		entity = entityOrder
	}

	row := models.AuditLog{
		ActorID:    entry.ActorID,
		ActorRole:  role,
		Action:     entry.Action,
		EntityType: entity,
		EntityID:   entry.EntityID,
	}
	if len(entry.Details) > 0 {
		details, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		row.Details = details
	}
	return tx.WithContext(ctx).Create(&row).Error
}

// ListForEntity returns the audit trail for one entity, oldest first.
func (w *Writer) ListForEntity(ctx context.Context, db *gorm.DB, entity, entityID string) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entity, entityID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

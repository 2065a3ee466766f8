package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/redis"
)

// Update types carried on the live channel.
const (
	UpdateOrderCreated   = "order_created"
	UpdateOrderClaimed   = "order_claimed"
	UpdateOrderUnclaimed = "order_unclaimed"
	UpdateOrderDelivered = "order_delivered"
	UpdatePayment        = "payment_update"
)

const broadcastTimeout = 2 * time.Second

// OrderUpdate is the message mirrored to connected dashboards.
type OrderUpdate struct {
	Type          string              `json:"type"`
	OrderCode     string              `json:"order_code"`
	OrderID       uint64              `json:"order_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	StaffID       *uint64             `json:"staff_id,omitempty"`
	At            time.Time           `json:"at"`
}

// UpdateFromOrder snapshots order into an OrderUpdate of the given type.
func UpdateFromOrder(updateType string, order *models.Order) OrderUpdate {
	return OrderUpdate{
		Type:          updateType,
		OrderCode:     order.OrderCode,
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		StaffID:       order.StaffID,
		At:            time.Now().UTC(),
	}
}

// Broadcaster publishes order updates over Redis PUBLISH. Delivery is best
// effort: failures are logged and never returned to the caller.
type Broadcaster struct {
	publisher redis.Publisher
	channel   string
	logg      *logger.Logger
}

func NewBroadcaster(publisher redis.Publisher, channel string, logg *logger.Logger) *Broadcaster {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "orders:live"
	}
	if publisher != nil {
		channel = publisher.ChannelKey(channel)
	}
	return &Broadcaster{publisher: publisher, channel: channel, logg: logg}
}

// Channel returns the fully qualified channel name.
func (b *Broadcaster) Channel() string {
	return b.channel
}

func (b *Broadcaster) Broadcast(ctx context.Context, update OrderUpdate) {
	if b == nil || b.publisher == nil {
		return
	}
	payload, err := json.Marshal(update)
	if err != nil {
		b.logError(ctx, update, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
	defer cancel()
	if err := b.publisher.Publish(pubCtx, b.channel, payload); err != nil {
		b.logError(ctx, update, err)
	}
}

func (b *Broadcaster) logError(ctx context.Context, update OrderUpdate, err error) {
	if b.logg == nil {
		return
	}
	logCtx := b.logg.WithFields(ctx, map[string]any{
		"channel":     b.channel,
		"update_type": update.Type,
		"order_code":  update.OrderCode,
	})
	b.logg.Error(logCtx, "notifications.broadcast.failed", err)
}

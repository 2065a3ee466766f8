package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/payloads"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/registry"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by the router.
type Writer interface {
	InsertOrderEvent(ctx context.Context, row types.OrderEventRow) error
}

// Router turns decoded order events into order_events rows.
type Router struct {
	writer Writer
	logg   *logger.Logger
}

func NewRouter(writer Writer, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Router{writer: writer, logg: logg}, nil
}

// Handle builds the row for event and writes it.
func (r *Router) Handle(ctx context.Context, event *registry.ResolvedEvent) error {
	row, err := BuildRow(event)
	if err != nil {
		return err
	}
	if err := r.writer.InsertOrderEvent(ctx, *row); err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	r.logg.Debug(r.logg.WithField(ctx, "order_code", row.OrderCode), "analytics.row.written")
	return nil
}

// BuildRow maps a decoded event onto the order_events schema.
func BuildRow(event *registry.ResolvedEvent) (*types.OrderEventRow, error) {
	if event == nil {
		return nil, errors.New("event required")
	}
	row := &types.OrderEventRow{
		EventID:    event.Envelope.EventID,
		EventType:  string(event.Descriptor.EventType),
		OccurredAt: event.Envelope.OccurredAt.UTC(),
	}
	if len(event.Envelope.Data) > 0 {
		row.Payload = cbigquery.NullJSON{Valid: true, JSONVal: string(event.Envelope.Data)}
	}
	if actor := event.Envelope.Actor; actor != nil && actor.Role != "" {
		row.ActorRole = nullString(string(actor.Role))
	}

	switch p := event.Payload.(type) {
	case *payloads.OrderCreatedEvent:
		row.OrderID, row.OrderCode = int64(p.OrderID), p.OrderCode
		row.Status = nullString(string(enums.OrderStatusPending))
		row.PaymentMethod = nullString(string(p.PaymentMethod))
		row.PaymentStatus = nullString(string(p.PaymentStatus))
		row.ItemCount = cbigquery.NullInt64{Int64: int64(p.ItemCount), Valid: true}
		row.DeliveryFee = rat(p.DeliveryFee)
		row.TotalAmount = rat(p.TotalAmount)
		row.OccurredAt = prefer(p.CreatedAt, row.OccurredAt)
	case *payloads.OrderClaimedEvent:
		row.OrderID, row.OrderCode = int64(p.OrderID), p.OrderCode
		row.Status = nullString(string(enums.OrderStatusOutForDelivery))
		row.StaffID = nullInt(&p.StaffID)
		row.OccurredAt = prefer(p.ClaimedAt, row.OccurredAt)
	case *payloads.OrderUnclaimedEvent:
		row.OrderID, row.OrderCode = int64(p.OrderID), p.OrderCode
		row.Status = nullString(string(enums.OrderStatusPending))
		row.StaffID = nullInt(&p.StaffID)
		row.OccurredAt = prefer(p.UnclaimedAt, row.OccurredAt)
	case *payloads.PaymentRequestedEvent:
		row.OrderID, row.OrderCode = int64(p.OrderID), p.OrderCode
		row.PaymentStatus = nullString(string(enums.PaymentStatusPending))
		row.TotalAmount = rat(p.Amount)
	case *payloads.PaymentUpdatedEvent:
		row.OrderID, row.OrderCode = int64(p.OrderID), p.OrderCode
		row.PaymentStatus = nullString(string(p.PaymentStatus))
		row.TotalAmount = rat(p.TotalAmount)
	case *payloads.OrderPaidEvent:
		row.OrderID, row.OrderCode = int64(p.OrderID), p.OrderCode
		row.PaymentMethod = nullString(string(p.PaymentMethod))
		row.PaymentStatus = nullString(string(enums.PaymentStatusComplete))
		row.TotalAmount = rat(p.TotalAmount)
		row.OccurredAt = prefer(p.PaidAt, row.OccurredAt)
	case *payloads.OrderDeliveredEvent:
		row.OrderID, row.OrderCode = int64(p.OrderID), p.OrderCode
		row.Status = nullString(string(enums.OrderStatusDelivered))
		row.StaffID = nullInt(p.StaffID)
		row.OccurredAt = prefer(p.DeliveredAt, row.OccurredAt)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEventType, event.Descriptor.EventType)
	}
	return row, nil
}

func nullString(value string) cbigquery.NullString {
	return cbigquery.NullString{StringVal: value, Valid: value != ""}
}

func nullInt(value *uint64) cbigquery.NullInt64 {
	if value == nil {
		return cbigquery.NullInt64{}
	}
	return cbigquery.NullInt64{Int64: int64(*value), Valid: true}
}

func rat(amount decimal.Decimal) *big.Rat {
	return amount.Rat()
}

func prefer(value, fallback time.Time) time.Time {
	if value.IsZero() {
		return fallback
	}
	return value.UTC()
}

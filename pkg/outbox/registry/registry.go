// Package registry maps order event types to their topic and payload type so
// the relay and the consumers decode envelopes the same way.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	newPayload    func() any
}

// ResolvedEvent is an outbox row or consumed message with its typed payload.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// NonRetryableError marks input that will never decode, however often it is
// retried.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

func order[T any](eventType enums.OutboxEventType) EventDescriptor {
	return EventDescriptor{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		newPayload:    func() any { return new(T) },
	}
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NewEventRegistry routes every order event to the configured orders topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := strings.TrimSpace(cfg.OrdersTopic)
	if topic == "" {
		return nil, errors.New("orders topic is required")
	}

	descriptors := []EventDescriptor{
		order[payloads.OrderCreatedEvent](enums.EventOrderCreated),
		order[payloads.OrderClaimedEvent](enums.EventOrderClaimed),
		order[payloads.OrderUnclaimedEvent](enums.EventOrderUnclaimed),
		order[payloads.PaymentRequestedEvent](enums.EventOrderPaymentRequested),
		order[payloads.PaymentUpdatedEvent](enums.EventOrderPaymentUpdated),
		order[payloads.OrderPaidEvent](enums.EventOrderPaid),
		order[payloads.OrderDeliveredEvent](enums.EventOrderDelivered),
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, desc := range descriptors {
		desc.Topic = topic
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Resolve validates an outbox row and decodes its payload.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[row.EventType]
	if !ok {
		return nil, permanent("unsupported event type %s", row.EventType)
	}
	if desc.AggregateType != row.AggregateType {
		return nil, permanent("aggregate mismatch: expected %s got %s", desc.AggregateType, row.AggregateType)
	}
	if strings.TrimSpace(row.AggregateID) == "" {
		return nil, permanent("missing aggregate_id")
	}
	envelope, err := unmarshalEnvelope(row.Payload)
	if err != nil {
		return nil, err
	}
	return desc.resolve(envelope)
}

// DecodeMessage resolves a published message body. eventType comes from the
// message attributes; when empty the envelope's own type is used.
func (r *EventRegistry) DecodeMessage(eventType string, data []byte) (*ResolvedEvent, error) {
	envelope, err := unmarshalEnvelope(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(eventType) == "" {
		eventType = envelope.EventType
	}
	desc, ok := r.entries[enums.OutboxEventType(eventType)]
	if !ok {
		return nil, permanent("unsupported event type %q", eventType)
	}
	return desc.resolve(envelope)
}

func unmarshalEnvelope(raw []byte) (outbox.PayloadEnvelope, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return envelope, permanent("decode envelope: %w", err)
	}
	return envelope, nil
}

func (d EventDescriptor) resolve(envelope outbox.PayloadEnvelope) (*ResolvedEvent, error) {
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, permanent("payload missing for %s", d.EventType)
	}
	payload := d.newPayload()
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, permanent("decode %s payload: %w", d.EventType, err)
	}
	return &ResolvedEvent{Descriptor: d, Envelope: envelope, Payload: payload}, nil
}

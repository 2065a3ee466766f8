package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
)

const envelopeVersion = 1

// ActorRef identifies who produced the event. ActorID is nil for guest
// checkouts and gateway callbacks.
type ActorRef struct {
	ActorID *uint64         `json:"actorId,omitempty"`
	Role    enums.ActorRole `json:"role,omitempty"`
}

// PayloadEnvelope is stored in outbox_events.payload and published verbatim
// as the Pub/Sub message body. Consumers depend on the field names.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DomainEvent is what services hand to Emit. AggregateID is the order code.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	Actor         *ActorRef
	Data          any
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	var errs []error
	if !e.EventType.IsValid() {
		errs = append(errs, fmt.Errorf("unknown event type %q", e.EventType))
	}
	if !e.AggregateType.IsValid() {
		errs = append(errs, fmt.Errorf("unknown aggregate type %q", e.AggregateType))
	}
	if strings.TrimSpace(e.AggregateID) == "" {
		errs = append(errs, errors.New("aggregate id required"))
	}
	return errors.Join(errs...)
}

// seal assigns the event id and encodes the envelope.
func (e DomainEvent) seal(now time.Time) (uuid.UUID, []byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("encode %s data: %w", e.EventType, err)
	}
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	id := uuid.New()
	body, err := json.Marshal(PayloadEnvelope{
		Version:    envelopeVersion,
		EventID:    id.String(),
		EventType:  string(e.EventType),
		OccurredAt: occurred.UTC(),
		Actor:      e.Actor,
		Data:       data,
	})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("encode %s envelope: %w", e.EventType, err)
	}
	return id, body, nil
}

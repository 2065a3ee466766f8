package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/router"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/registry"
)

const consumerName = "analytics"

// Handler processes one decoded order event.
type Handler interface {
	Handle(ctx context.Context, event *registry.ResolvedEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event *registry.ResolvedEvent) error

func (fn HandlerFunc) Handle(ctx context.Context, event *registry.ResolvedEvent) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

type decoder interface {
	DecodeMessage(eventType string, data []byte) (*registry.ResolvedEvent, error)
}

type deduper interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer, key string) error
}

// disposition is what happens to a message once processing ends.
type disposition int

const (
	ack disposition = iota
	redeliver
)

func (d disposition) String() string {
	if d == redeliver {
		return "nack"
	}
	return "ack"
}

// Service consumes order events and feeds them to the analytics handler.
// Each event ID is handled at most once per consumer; a failed handler
// releases the mark so redelivery can try again.
type Service struct {
	subscription *gcppubsub.Subscriber
	decoder      decoder
	handler      Handler
	dedupe       deduper
	logg         *logger.Logger
}

func NewService(subscription *gcppubsub.Subscriber, events *registry.EventRegistry, handler Handler, dedupe deduper, logg *logger.Logger) (*Service, error) {
	switch {
	case subscription == nil:
		return nil, errors.New("analytics subscription required")
	case events == nil:
		return nil, errors.New("event registry required")
	case handler == nil:
		return nil, errors.New("analytics handler required")
	case dedupe == nil:
		return nil, errors.New("idempotency manager required")
	case logg == nil:
		return nil, errors.New("logger required")
	}
	return &Service{
		subscription: subscription,
		decoder:      events,
		handler:      handler,
		dedupe:       dedupe,
		logg:         logg,
	}, nil
}

// Run blocks until ctx is canceled or the subscription fails.
func (s *Service) Run(ctx context.Context) error {
	return s.subscription.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		if s.process(msgCtx, msg) == redeliver {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) disposition {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)

	event, eventID, err := s.decode(msg)
	if err != nil {
		// poison messages are dropped; redelivery would fail the same way
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics.message.dropped")
		return ack
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   eventID.String(),
		"event_type": string(event.Descriptor.EventType),
	})

	seen, err := s.dedupe.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		s.logg.Error(ctx, "analytics.dedupe.failed", err)
		return redeliver
	}
	if seen {
		s.logg.Info(ctx, "analytics.event.duplicate")
		return ack
	}

	err = s.handler.Handle(ctx, event)
	switch {
	case err == nil:
		s.logg.Info(ctx, "analytics.event.handled")
		return ack
	case errors.Is(err, router.ErrUnsupportedEventType):
		s.logg.Warn(ctx, "analytics.event.skipped")
		return ack
	}

	s.logg.Error(ctx, "analytics.event.failed", err)
	if relErr := s.dedupe.Delete(ctx, consumerName, eventID.String()); relErr != nil {
		s.logg.Error(ctx, "analytics.dedupe.release_failed", relErr)
	}
	return redeliver
}

func (s *Service) decode(msg *gcppubsub.Message) (*registry.ResolvedEvent, uuid.UUID, error) {
	event, err := s.decoder.DecodeMessage(strings.TrimSpace(msg.Attributes["event_type"]), msg.Data)
	if err != nil {
		return nil, uuid.Nil, err
	}
	eventID, err := uuid.Parse(strings.TrimSpace(event.Envelope.EventID))
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("event id %q: %w", event.Envelope.EventID, err)
	}
	return event, eventID, nil
}

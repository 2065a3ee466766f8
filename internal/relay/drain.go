package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/registry"
)

type outcome string

const (
	outcomePublished    outcome = "published"
	outcomeRetry        outcome = "retry"
	outcomeDeadLettered outcome = "dead_lettered"
)

// drain claims one batch and settles every row in it inside the same
// transaction. It reports whether any rows were claimed.
func (r *Relay) drain(ctx context.Context) (bool, error) {
	var found bool
	err := r.store.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.outbox.FetchUnpublishedForPublish(tx, r.batch, r.maxAttempts)
		if err != nil {
			return err
		}
		found = len(rows) > 0

		held := make(map[string]struct{})
		for _, row := range rows {
			if _, skip := held[row.AggregateID]; skip {
				continue
			}
			result, err := r.settle(ctx, tx, row)
			if err != nil {
				return err
			}
			if result == outcomeRetry {
				held[row.AggregateID] = struct{}{}
			}
		}
		return nil
	})
	return found, err
}

// settle publishes one row and records what happened to it.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) (outcome, error) {
	resolved, err := r.resolver.Resolve(row)
	if err != nil {
		return outcomeDeadLettered, r.deadLetter(ctx, tx, row, "", enums.OutboxDLQReasonNonRetryable, err)
	}
	topic := resolved.Descriptor.Topic
	logCtx := r.logg.WithFields(ctx, rowFields(row, resolved))

	pubErr := r.publish(ctx, row, topic)
	if pubErr == nil {
		if err := r.outbox.MarkPublishedTx(tx, row.ID); err != nil {
			return "", fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.recorder.ObservePublish(topic, string(outcomePublished))
		r.logg.Info(logCtx, "relay.event.published")
		return outcomePublished, nil
	}

	var permanent registry.NonRetryableError
	if errors.As(pubErr, &permanent) {
		return outcomeDeadLettered, r.deadLetter(ctx, tx, row, topic, enums.OutboxDLQReasonNonRetryable, pubErr)
	}
	if row.AttemptCount+1 >= r.maxAttempts {
		exhausted := fmt.Errorf("max publish attempts reached: %w", pubErr)
		return outcomeDeadLettered, r.deadLetter(ctx, tx, row, topic, enums.OutboxDLQReasonMaxAttempts, exhausted)
	}

	if err := r.outbox.MarkFailedTx(tx, row.ID, pubErr); err != nil {
		return "", fmt.Errorf("mark failure %s: %w", row.ID, err)
	}
	r.recorder.ObservePublish(topic, string(outcomeRetry))
	r.logg.Warn(r.logg.WithFields(logCtx, map[string]any{
		"attempt_count": row.AttemptCount + 1,
		"error":         pubErr.Error(),
	}), "relay.event.retry")
	return outcomeRetry, nil
}

func (r *Relay) deadLetter(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, topic string, reason enums.OutboxDLQErrorReason, cause error) error {
	r.recorder.ObservePublish(topic, string(outcomeDeadLettered))
	fields := rowFields(row, nil)
	fields["error_reason"] = reason
	fields["error"] = cause.Error()
	if topic != "" {
		fields["topic"] = topic
	}
	r.logg.Warn(r.logg.WithFields(ctx, fields), "relay.event.dead_lettered")

	entry := models.DeadLetterFor(row, reason, cause, time.Now())
	if err := r.deadLetters.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", row.ID, err)
	}
	if err := r.outbox.MarkTerminalTx(tx, row.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	return nil
}

// publish sends the stored envelope as-is, keyed by order code. A failed
// ordered publish pauses the key inside the client, so it is resumed before
// the row is retried.
func (r *Relay) publish(ctx context.Context, row models.OutboxEvent, topicName string) error {
	topic := r.topic(topicName)
	if topic == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topicName))
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	pending := topic.Publish(ctx, &gcppubsub.Message{
		Data:        row.Payload,
		OrderingKey: row.AggregateID,
		Attributes:  row.MessageAttributes(),
	})
	if pending == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher for topic %s returned no result", topicName))
	}
	if _, err := pending.Get(ctx); err != nil {
		topic.ResumePublish(row.AggregateID)
		return err
	}
	return nil
}

func (r *Relay) topic(name string) Topic {
	if t, ok := r.topics[name]; ok {
		return t
	}
	t := r.broker.Topic(name)
	if t != nil {
		r.topics[name] = t
	}
	return t
}

func rowFields(row models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"order_code":    row.AggregateID,
		"attempt_count": row.AttemptCount,
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		if resolved.Envelope.EventID != "" {
			fields["event_id"] = resolved.Envelope.EventID
		}
	}
	if row.LastError != nil {
		fields["last_error"] = *row.LastError
	}
	return fields
}

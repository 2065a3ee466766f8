// Package relay moves committed order events from the outbox table onto
// Pub/Sub. Events for one order keep their commit order: the order code is
// the ordering key, and an order whose event failed is skipped for the rest
// of the batch.
package relay

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/metrics"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/registry"
)

const (
	fallbackBatch       = 50
	fallbackPoll        = 500 * time.Millisecond
	fallbackMaxAttempts = 10
	publishTimeout      = 15 * time.Second
	idleCeiling         = 10 * time.Second
	jitterSpread        = 250 * time.Millisecond
)

// Store is the transactional boundary each batch runs inside.
type Store interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

// Outbox claims and settles rows.
type Outbox interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

// DeadLetters records rows that will never be retried.
type DeadLetters interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

// Resolver maps a stored row to its topic and decoded envelope.
type Resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// Recorder counts publish outcomes per topic.
type Recorder interface {
	ObservePublish(topic, outcome string)
}

type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Store       Store
	Broker      Broker
	Outbox      Outbox
	DeadLetters DeadLetters
	Resolver    Resolver
	Recorder    Recorder
}

// Relay drains the outbox until its context ends.
type Relay struct {
	logg        *logger.Logger
	store       Store
	broker      Broker
	outbox      Outbox
	deadLetters DeadLetters
	resolver    Resolver
	recorder    Recorder
	topics      map[string]Topic

	batch       int
	maxAttempts int
	poll        time.Duration
}

func New(p Params) (*Relay, error) {
	switch {
	case p.Config == nil:
		return nil, errors.New("relay: config is required")
	case p.Logger == nil:
		return nil, errors.New("relay: logger is required")
	case p.Store == nil:
		return nil, errors.New("relay: store is required")
	case p.Broker == nil:
		return nil, errors.New("relay: broker is required")
	case p.Outbox == nil:
		return nil, errors.New("relay: outbox repository is required")
	case p.DeadLetters == nil:
		return nil, errors.New("relay: dead letter repository is required")
	case p.Resolver == nil:
		return nil, errors.New("relay: event resolver is required")
	}

	recorder := p.Recorder
	if recorder == nil {
		recorder = metrics.NopOutbox{}
	}
	cfg := p.Config.Outbox
	r := &Relay{
		logg:        p.Logger,
		store:       p.Store,
		broker:      p.Broker,
		outbox:      p.Outbox,
		deadLetters: p.DeadLetters,
		resolver:    p.Resolver,
		recorder:    recorder,
		topics:      map[string]Topic{},
		batch:       positiveOr(cfg.BatchSize, fallbackBatch),
		maxAttempts: positiveOr(cfg.MaxAttempts, fallbackMaxAttempts),
		poll:        fallbackPoll,
	}
	if cfg.PollIntervalMS > 0 {
		r.poll = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	return r, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run checks both dependencies once and then polls. A batch that found work
// is followed immediately by another; an empty batch waits one poll interval
// and a failed one waits on a doubling delay capped at idleCeiling.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		r.logg.Error(ctx, "relay.database.unreachable", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.broker.Ping(ctx); err != nil {
		r.logg.Error(ctx, "relay.pubsub.unreachable", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	delay := newBackoff(r.poll, idleCeiling)
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "relay.stopped")
			return err
		}

		found, err := r.drain(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			r.logg.Error(ctx, "relay.batch.failed", err)
			wait = delay.grow()
		case found:
			delay.reset()
			continue
		default:
			delay.reset()
			wait = r.poll
		}
		if err := pause(ctx, wait+jitter()); err != nil {
			return err
		}
	}
}

type backoff struct {
	base, ceiling, current time.Duration
}

func newBackoff(base, ceiling time.Duration) *backoff {
	return &backoff{base: base, ceiling: ceiling, current: base}
}

func (b *backoff) grow() time.Duration {
	b.current = min(b.current*2, b.ceiling)
	return b.current
}

func (b *backoff) reset() { b.current = b.base }

func jitter() time.Duration {
	return time.Duration(rand.Int64N(int64(jitterSpread)))
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

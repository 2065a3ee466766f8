package relay

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// Broker hands out one publisher per topic.
type Broker interface {
	Ping(context.Context) error
	Topic(name string) Topic
}

// Topic is the slice of *pubsub.Publisher the relay drives.
type Topic interface {
	Publish(context.Context, *gcppubsub.Message) PendingPublish
	ResumePublish(orderingKey string)
}

type PendingPublish interface {
	Get(context.Context) (string, error)
}

// PubSubClient is satisfied by pkg/pubsub.Client.
type PubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

// NewPubSubBroker adapts the shared Pub/Sub client. Every publisher it hands
// out has message ordering enabled.
func NewPubSubBroker(client PubSubClient) Broker {
	return pubSubBroker{client: client}
}

type pubSubBroker struct {
	client PubSubClient
}

func (b pubSubBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

func (b pubSubBroker) Topic(name string) Topic {
	p := b.client.Publisher(name)
	if p == nil {
		return nil
	}
	p.EnableMessageOrdering = true
	return orderedTopic{p: p}
}

type orderedTopic struct {
	p *gcppubsub.Publisher
}

func (t orderedTopic) Publish(ctx context.Context, msg *gcppubsub.Message) PendingPublish {
	return pendingResult{r: t.p.Publish(ctx, msg)}
}

func (t orderedTopic) ResumePublish(key string) {
	if key != "" {
		t.p.ResumePublish(key)
	}
}

type pendingResult struct {
	r *gcppubsub.PublishResult
}

func (p pendingResult) Get(ctx context.Context) (string, error) {
	if p.r == nil {
		return "", errors.New("publish result is nil")
	}
	return p.r.Get(ctx)
}

package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/mailer"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/idempotency"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/payloads"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/registry"
)

type memoryStore struct {
	keys map[string]bool
}

func (m *memoryStore) Get(context.Context, string) (string, error) { return "", nil }

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

type fakeOrders struct {
	orders map[string]*models.Order
}

func (f *fakeOrders) FindByCode(_ context.Context, code string) (*models.Order, error) {
	order, ok := f.orders[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

type fakeMailer struct {
	configured bool
	sent       []mailer.Message
	err        error
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestConsumer(t *testing.T, orders *fakeOrders, mail *fakeMailer) *EmailConsumer {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"})
	require.NoError(t, err)
	manager, err := idempotency.NewManager(&memoryStore{keys: map[string]bool{}}, time.Hour)
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	consumer, err := NewEmailConsumer(orders, mail, reg, nil, manager, logg)
	require.NoError(t, err)
	return consumer
}

func orderMessage(t *testing.T, eventID string, eventType enums.OutboxEventType, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		EventType:  string(eventType),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       body,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func sampleOrder() *models.Order {
	email := "jane@example.com"
	return &models.Order{
		ID:            1,
		OrderCode:     "2025OC12abcd",
		CustomerName:  "Jane",
		CustomerEmail: &email,
		TotalAmount:   decimal.NewFromInt(650),
	}
}

func TestEmailConsumerSendsOnceForCreatedOrder(t *testing.T) {
	mail := &fakeMailer{configured: true}
	consumer := newTestConsumer(t, &fakeOrders{orders: map[string]*models.Order{"2025OC12abcd": sampleOrder()}}, mail)
	eventID := uuid.NewString()
	msg := orderMessage(t, eventID, enums.EventOrderCreated, payloads.OrderCreatedEvent{OrderID: 1, OrderCode: "2025OC12abcd"})

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Order Received - SAFARI BYTES", mail.sent[0].Subject)
	assert.Equal(t, "jane@example.com", mail.sent[0].ToEmail)
	assert.Contains(t, mail.sent[0].HTML, "2025OC12abcd")
	assert.Contains(t, mail.sent[0].HTML, "650.00")

	result = consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Len(t, mail.sent, 1)
}

func TestEmailConsumerPaymentOutcomeSubjects(t *testing.T) {
	mail := &fakeMailer{configured: true}
	consumer := newTestConsumer(t, &fakeOrders{orders: map[string]*models.Order{"2025OC12abcd": sampleOrder()}}, mail)

	consumer.process(context.Background(), orderMessage(t, uuid.NewString(), enums.EventOrderPaymentUpdated,
		payloads.PaymentUpdatedEvent{OrderCode: "2025OC12abcd", PaymentStatus: enums.PaymentStatusFailed}))
	consumer.process(context.Background(), orderMessage(t, uuid.NewString(), enums.EventOrderPaymentUpdated,
		payloads.PaymentUpdatedEvent{OrderCode: "2025OC12abcd", PaymentStatus: enums.PaymentStatusComplete}))

	require.Len(t, mail.sent, 2)
	assert.Equal(t, "Payment Failed - SAFARI BYTES", mail.sent[0].Subject)
	assert.Equal(t, "Payment Received - SAFARI BYTES", mail.sent[1].Subject)
}

func TestEmailConsumerSkipsWithoutRecipient(t *testing.T) {
	order := sampleOrder()
	order.CustomerEmail = nil
	mail := &fakeMailer{configured: true}
	consumer := newTestConsumer(t, &fakeOrders{orders: map[string]*models.Order{"2025OC12abcd": order}}, mail)

	result := consumer.process(context.Background(), orderMessage(t, uuid.NewString(), enums.EventOrderDelivered,
		payloads.OrderDeliveredEvent{OrderCode: "2025OC12abcd"}))
	assert.True(t, result.ack)
	assert.Empty(t, mail.sent)
}

func TestEmailConsumerIgnoresOtherEvents(t *testing.T) {
	mail := &fakeMailer{configured: true}
	consumer := newTestConsumer(t, &fakeOrders{}, mail)

	result := consumer.process(context.Background(), orderMessage(t, uuid.NewString(), enums.EventOrderUnclaimed,
		payloads.OrderUnclaimedEvent{OrderCode: "2025OC12abcd"}))
	assert.True(t, result.ack)

	result = consumer.process(context.Background(), &pubsub.Message{Data: []byte("garbage")})
	assert.True(t, result.ack)
	assert.Empty(t, mail.sent)
}

func TestEmailConsumerNacksAndReleasesOnSendFailure(t *testing.T) {
	mail := &fakeMailer{configured: true, err: errors.New("sendgrid 503")}
	consumer := newTestConsumer(t, &fakeOrders{orders: map[string]*models.Order{"2025OC12abcd": sampleOrder()}}, mail)
	msg := orderMessage(t, uuid.NewString(), enums.EventOrderClaimed, payloads.OrderClaimedEvent{OrderCode: "2025OC12abcd"})

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.nack)

	mail.err = nil
	result = consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Order On The Way - SAFARI BYTES", mail.sent[0].Subject)
}

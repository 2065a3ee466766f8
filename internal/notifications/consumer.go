package notifications

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/mailer"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/idempotency"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/payloads"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/registry"
)

const emailConsumerName = "order-emails"

type orderLookup interface {
	FindByCode(ctx context.Context, code string) (*models.Order, error)
}

type emailSender interface {
	Configured() bool
	Send(ctx context.Context, msg mailer.Message) error
}

type emailTemplate struct {
	subject string
	body    string
}

var emailTemplates = map[string]emailTemplate{
	"received": {
		subject: "Order Received - SAFARI BYTES",
		body:    "Your order has been received and is pending delivery.",
	},
	"on_the_way": {
		subject: "Order On The Way - SAFARI BYTES",
		body:    "Your order is on the way! Our delivery staff is heading to you.",
	},
	"delivered": {
		subject: "Order Delivered - SAFARI BYTES",
		body:    "Your order has been successfully delivered. Thank you for choosing SAFARI BYTES!",
	},
	"payment_successful": {
		subject: "Payment Received - SAFARI BYTES",
		body:    "We have received your payment. Thank you!",
	},
	"payment_failed": {
		subject: "Payment Failed - SAFARI BYTES",
		body:    "Your payment did not go through. You can retry the payment or pay on delivery.",
	},
}

// EmailConsumer turns order events into customer emails.
type EmailConsumer struct {
	orders       orderLookup
	mail         emailSender
	registry     *registry.EventRegistry
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewEmailConsumer builds the order email consumer.
func NewEmailConsumer(
	orders orderLookup,
	mail emailSender,
	reg *registry.EventRegistry,
	subscription *pubsub.Subscriber,
	manager *idempotency.Manager,
	logg *logger.Logger,
) (*EmailConsumer, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if reg == nil {
		return nil, fmt.Errorf("event registry required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &EmailConsumer{
		orders:       orders,
		mail:         mail,
		registry:     reg,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *EmailConsumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("email subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *EmailConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	resolved, err := c.registry.DecodeMessage(eventType, msg.Data)
	if err != nil {
		c.logg.Warn(logCtx, "notifications.email.decode_failed")
		return processResult{ack: true}
	}

	code, kind := emailKind(resolved.Payload)
	if kind == "" {
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(resolved.Envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "notifications.email.invalid_event_id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, emailConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "notifications.email.idempotency_failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "notifications.email.duplicate")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithField(logCtx, "order_code", code)
	if err := c.send(ctx, logCtx, code, kind); err != nil {
		c.logg.Error(logCtx, "notifications.email.failed", err)
		_ = c.idempotency.Delete(ctx, emailConsumerName, eventID.String())
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *EmailConsumer) send(ctx, logCtx context.Context, code, kind string) error {
	order, err := c.orders.FindByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.logg.Warn(logCtx, "notifications.email.order_missing")
		return nil
	}
	if err != nil {
		return err
	}
	if order.CustomerEmail == nil || strings.TrimSpace(*order.CustomerEmail) == "" {
		c.logg.Debug(logCtx, "notifications.email.no_recipient")
		return nil
	}
	if !c.mail.Configured() {
		c.logg.Warn(logCtx, "notifications.email.not_configured")
		return nil
	}

	if err := c.mail.Send(ctx, buildOrderEmail(order, kind)); err != nil {
		return err
	}
	c.logg.Info(logCtx, "notifications.email.sent")
	return nil
}

func emailKind(payload any) (string, string) {
	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		return p.OrderCode, "received"
	case *payloads.OrderClaimedEvent:
		return p.OrderCode, "on_the_way"
	case *payloads.OrderDeliveredEvent:
		return p.OrderCode, "delivered"
	case *payloads.PaymentUpdatedEvent:
		if p.PaymentStatus == enums.PaymentStatusComplete {
			return p.OrderCode, "payment_successful"
		}
		return p.OrderCode, "payment_failed"
	default:
		return "", ""
	}
}

func buildOrderEmail(order *models.Order, kind string) mailer.Message {
	tpl := emailTemplates[kind]
	name := html.EscapeString(order.CustomerName)
	code := html.EscapeString(order.OrderCode)
	body := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
<h2>%s</h2>
<p>Hi %s,</p>
<p>Order ID: <strong>%s</strong></p>
<p>%s</p>
<p>Total: KES %s</p>
</body>
</html>`, tpl.subject, name, code, tpl.body, order.TotalAmount.StringFixed(2))

	return mailer.Message{
		ToEmail: *order.CustomerEmail,
		ToName:  order.CustomerName,
		Subject: tpl.subject,
		Text:    fmt.Sprintf("Hi %s,\n\nOrder ID: %s\n%s", order.CustomerName, order.OrderCode, tpl.body),
		HTML:    body,
	}
}

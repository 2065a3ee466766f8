package enums

// OutboxAggregateType names the aggregate an outbox row belongs to. Orders
// are the only aggregate today.
type OutboxAggregateType string

const AggregateOrder OutboxAggregateType = "order"

var aggregateTypes = []OutboxAggregateType{AggregateOrder}

func (a OutboxAggregateType) IsValid() bool { return member(aggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse(aggregateTypes, value, "aggregate type")
}

// OutboxEventType names a domain event. The value is also the Pub/Sub
// event_type attribute consumers filter on.
type OutboxEventType string

const (
	EventOrderCreated          OutboxEventType = "order_created"
	EventOrderClaimed          OutboxEventType = "order_claimed"
	EventOrderUnclaimed        OutboxEventType = "order_unclaimed"
	EventOrderPaymentRequested OutboxEventType = "order_payment_requested"
	EventOrderPaymentUpdated   OutboxEventType = "order_payment_updated"
	EventOrderPaid             OutboxEventType = "order_paid"
	EventOrderDelivered        OutboxEventType = "order_delivered"
)

var outboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderClaimed,
	EventOrderUnclaimed,
	EventOrderPaymentRequested,
	EventOrderPaymentUpdated,
	EventOrderPaid,
	EventOrderDelivered,
}

func (e OutboxEventType) IsValid() bool { return member(outboxEventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse(outboxEventTypes, value, "event type")
}

// OutboxDLQErrorReason records why the relay stopped retrying a row.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var dlqReasons = []OutboxDLQErrorReason{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}

func (r OutboxDLQErrorReason) IsValid() bool { return member(dlqReasons, r) }

package enums

// AuditAction names an audited mutation, namespaced by aggregate.
type AuditAction string

const (
	AuditActionOrderCreated     AuditAction = "order.created"
	AuditActionOrderClaimed     AuditAction = "order.claimed"
	AuditActionOrderUnclaimed   AuditAction = "order.unclaimed"
	AuditActionPaymentRequested AuditAction = "order.payment_requested"
	AuditActionPaymentCallback  AuditAction = "order.payment_callback"
	AuditActionMarkedPaid       AuditAction = "order.marked_paid"
	AuditActionOrderDelivered   AuditAction = "order.delivered"

	AuditActionProductCreated  AuditAction = "product.created"
	AuditActionProductUpdated  AuditAction = "product.updated"
	AuditActionProductRemoved  AuditAction = "product.removed"
	AuditActionCapitalRecorded AuditAction = "capital.recorded"
	AuditActionCapitalEdited   AuditAction = "capital.edited"
)

func (a AuditAction) String() string { return string(a) }

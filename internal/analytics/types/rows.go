package types

import (
	"math/big"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema. One row is written
// per outbox event; columns the event does not carry stay NULL.
type OrderEventRow struct {
	EventID       string               `bigquery:"event_id"`
	EventType     string               `bigquery:"event_type"`
	OccurredAt    time.Time            `bigquery:"occurred_at"`
	OrderID       int64                `bigquery:"order_id"`
	OrderCode     string               `bigquery:"order_code"`
	ActorRole     cbigquery.NullString `bigquery:"actor_role"`
	StaffID       cbigquery.NullInt64  `bigquery:"staff_id"`
	Status        cbigquery.NullString `bigquery:"status"`
	PaymentMethod cbigquery.NullString `bigquery:"payment_method"`
	PaymentStatus cbigquery.NullString `bigquery:"payment_status"`
	ItemCount     cbigquery.NullInt64  `bigquery:"item_count"`
	DeliveryFee   *big.Rat             `bigquery:"delivery_fee"`
	TotalAmount   *big.Rat             `bigquery:"total_amount"`
	Payload       cbigquery.NullJSON   `bigquery:"payload"`
}

// OrderEventSchema is used to create order_events when it is missing.
func OrderEventSchema() (cbigquery.Schema, error) {
	return cbigquery.InferSchema(OrderEventRow{})
}

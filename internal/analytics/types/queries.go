package types

import "time"

// SummaryRequest bounds the admin sales report.
type SummaryRequest struct {
	Start time.Time
	End   time.Time
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// LabelValue is a grouped count, for example orders per payment method.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// SummaryResponse wraps the order KPIs for the admin dashboard.
type SummaryResponse struct {
	OrdersSeries     []TimeSeriesPoint `json:"orders"`
	RevenueSeries    []TimeSeriesPoint `json:"revenue"`
	PaymentMethods   []LabelValue      `json:"payment_methods"`
	FailedPayments   int64             `json:"failed_payments"`
	AverageOrder     float64           `json:"average_order_value"`
	DeliveredOrders  int64             `json:"delivered_orders"`
	AverageDelivered float64           `json:"average_minutes_to_deliver"`
}

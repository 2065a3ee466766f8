package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
)

const (
	dailyOrdersSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at, @tz)) AS day,
  COUNT(DISTINCT order_id) AS value
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	dailyRevenueSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at, @tz)) AS day,
  CAST(SUM(COALESCE(total_amount, 0)) AS FLOAT64) AS value
FROM %s
WHERE %s
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	paymentMethodsSQL = `
SELECT payment_method AS label, COUNT(DISTINCT order_id) AS value
FROM %s
WHERE event_type = 'order_created'
  AND payment_method IS NOT NULL
  AND occurred_at BETWEEN @start AND @end
GROUP BY label
ORDER BY value DESC
`

	failedPaymentsSQL = `
SELECT COUNT(DISTINCT order_id) AS value
FROM %s
WHERE event_type = 'order_payment_updated'
  AND payment_status = 'Payment Failed'
  AND occurred_at BETWEEN @start AND @end
`

	aovSQL = `
SELECT SAFE_DIVIDE(CAST(SUM(COALESCE(total_amount, 0)) AS FLOAT64), NULLIF(COUNT(DISTINCT order_id), 0)) AS value
FROM %s
WHERE %s
  AND occurred_at BETWEEN @start AND @end
`

	deliveredSQL = `
WITH delivered AS (
  SELECT order_id, MIN(occurred_at) AS delivered_at
  FROM %s
  WHERE event_type = 'order_delivered'
    AND occurred_at BETWEEN @start AND @end
  GROUP BY order_id
),
created AS (
  SELECT order_id, MIN(occurred_at) AS created_at
  FROM %s
  WHERE event_type = 'order_created'
  GROUP BY order_id
)
SELECT
  COUNT(*) AS delivered_orders,
  AVG(TIMESTAMP_DIFF(d.delivered_at, c.created_at, SECOND)) / 60 AS avg_minutes
FROM delivered d
LEFT JOIN created c USING (order_id)
`

	// Settled revenue: callback completions plus manual mark-paid.
	settledClause = `(event_type = 'order_paid' OR (event_type = 'order_payment_updated' AND payment_status = 'Payment Complete'))`
)

// OrdersService answers the admin sales summary from order_events.
type OrdersService interface {
	Summary(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error)
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (*cloudbigquery.RowIterator, error)
}

type ordersService struct {
	client   rowQuerier
	tableRef string
	timezone string
}

// NewOrdersService builds a service backed by BigQuery. Days are bucketed in
// timezone.
func NewOrdersService(client rowQuerier, project, dataset, table, timezone string) (OrdersService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || table == "" {
		return nil, fmt.Errorf("project, dataset, and table are required")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	return &ordersService{
		client:   client,
		tableRef: TableRef(project, dataset, table),
		timezone: timezone,
	}, nil
}

// TableRef quotes a fully-qualified BigQuery table name.
func TableRef(project, dataset, table string) string {
	return fmt.Sprintf("`%s.%s.%s`", project, dataset, table)
}

func (s *ordersService) Summary(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
		{Name: "tz", Value: s.timezone},
	}

	orders, err := s.querySeries(ctx, fmt.Sprintf(dailyOrdersSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	revenue, err := s.querySeries(ctx, fmt.Sprintf(dailyRevenueSQL, s.tableRef, settledClause), params)
	if err != nil {
		return nil, err
	}
	methods, err := s.queryLabels(ctx, fmt.Sprintf(paymentMethodsSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	failed, err := s.queryCount(ctx, fmt.Sprintf(failedPaymentsSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	aov, err := s.queryFloat(ctx, fmt.Sprintf(aovSQL, s.tableRef, settledClause), params)
	if err != nil {
		return nil, err
	}
	delivered, avgMinutes, err := s.queryDelivered(ctx, fmt.Sprintf(deliveredSQL, s.tableRef, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	return &types.SummaryResponse{
		OrdersSeries:     orders,
		RevenueSeries:    revenue,
		PaymentMethods:   methods,
		FailedPayments:   failed,
		AverageOrder:     aov,
		DeliveredOrders:  delivered,
		AverageDelivered: avgMinutes,
	}, nil
}

// ValidateRequest checks the reporting window.
func ValidateRequest(req types.SummaryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func (s *ordersService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	points := []types.TimeSeriesPoint{}
	for {
		var row struct {
			Day   string  `bigquery:"day"`
			Value float64 `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *ordersService) queryLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}

	result := []types.LabelValue{}
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *ordersService) queryCount(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (int64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	var row struct {
		Value int64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading count row: %w", err)
	}
	return row.Value, nil
}

func (s *ordersService) queryFloat(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query aov: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading aov row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}

func (s *ordersService) queryDelivered(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (int64, float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, 0, fmt.Errorf("query delivered: %w", err)
	}
	var row struct {
		DeliveredOrders int64                     `bigquery:"delivered_orders"`
		AvgMinutes      cloudbigquery.NullFloat64 `bigquery:"avg_minutes"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading delivered row: %w", err)
	}
	if !row.AvgMinutes.Valid {
		return row.DeliveredOrders, 0, nil
	}
	return row.DeliveredOrders, row.AvgMinutes.Float64, nil
}

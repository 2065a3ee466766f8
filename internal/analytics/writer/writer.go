// Package writer streams analytics rows into BigQuery.
package writer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
)

// Inserter is satisfied by pkg/bigquery.Client.
type Inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Options tune the insert retry loop. Zero values fall back to three
// attempts starting at 250ms and capped at 2s.
type Options struct {
	Table      string
	Attempts   int
	FirstDelay time.Duration
	MaxDelay   time.Duration
}

// OrderEvents writes one row per call. The Pub/Sub message is acked only
// after the insert returns, so nothing is buffered in memory. The event id
// doubles as the BigQuery insert id, which collapses redelivered messages.
type OrderEvents struct {
	inserter   Inserter
	table      string
	attempts   int
	firstDelay time.Duration
	maxDelay   time.Duration
}

func New(inserter Inserter, opts Options) (*OrderEvents, error) {
	if inserter == nil {
		return nil, errors.New("bigquery inserter required")
	}
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		return nil, errors.New("order events table is required")
	}
	w := &OrderEvents{
		inserter:   inserter,
		table:      table,
		attempts:   opts.Attempts,
		firstDelay: opts.FirstDelay,
		maxDelay:   opts.MaxDelay,
	}
	if w.attempts <= 0 {
		w.attempts = 3
	}
	if w.firstDelay <= 0 {
		w.firstDelay = 250 * time.Millisecond
	}
	if w.maxDelay < w.firstDelay {
		w.maxDelay = max(2*time.Second, w.firstDelay)
	}
	return w, nil
}

func (w *OrderEvents) InsertOrderEvent(ctx context.Context, row types.OrderEventRow) error {
	saver := &cbigquery.StructSaver{Struct: &row, InsertID: row.EventID}
	rows := []any{saver}

	delay := w.firstDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.inserter.InsertRows(ctx, w.table, rows)
		if err == nil {
			return nil
		}
		if attempt >= w.attempts || !transient(err) {
			return fmt.Errorf("insert %s row %s: %w", w.table, row.EventID, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, w.maxDelay)
	}
}

// transient reports whether every underlying failure is worth retrying.
// Row level errors are flattened first; a single permanent cause makes the
// whole insert permanent.
func transient(err error) bool {
	causes := leafErrors(err)
	if len(causes) == 0 {
		return false
	}
	for _, cause := range causes {
		if !retryableCause(cause) {
			return false
		}
	}
	return true
}

func leafErrors(err error) []error {
	if err == nil {
		return nil
	}
	var put cbigquery.PutMultiError
	if errors.As(err, &put) {
		var out []error
		for _, rowErr := range put {
			out = append(out, leafErrors(rowErr.Errors)...)
		}
		return out
	}
	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		var out []error
		for _, inner := range multi {
			out = append(out, leafErrors(inner)...)
		}
		return out
	}
	return []error{err}
}

func retryableCause(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusRequestTimeout,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal,
			codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}

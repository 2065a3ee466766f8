package writer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
)

type recordingInserter struct {
	errs   []error
	tables []string
	rows   [][]any
}

func (r *recordingInserter) InsertRows(_ context.Context, table string, rows []any) error {
	r.tables = append(r.tables, table)
	r.rows = append(r.rows, rows)
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

func newOrderEvents(t *testing.T, ins *recordingInserter) *OrderEvents {
	t.Helper()
	w, err := New(ins, Options{Table: "order_events", FirstDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
	require.NoError(t, err)
	return w
}

func TestNewRequiresInserterAndTable(t *testing.T) {
	_, err := New(nil, Options{Table: "order_events"})
	assert.Error(t, err)
	_, err = New(&recordingInserter{}, Options{Table: "  "})
	assert.Error(t, err)

	w, err := New(&recordingInserter{}, Options{Table: "order_events"})
	require.NoError(t, err)
	assert.Equal(t, 3, w.attempts)
	assert.Equal(t, 2*time.Second, w.maxDelay)
}

func TestInsertUsesEventIDAsInsertID(t *testing.T) {
	ins := &recordingInserter{}
	w := newOrderEvents(t, ins)

	require.NoError(t, w.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "evt-42"}))
	require.Len(t, ins.rows, 1)
	require.Len(t, ins.rows[0], 1)
	saver, ok := ins.rows[0][0].(*cbigquery.StructSaver)
	require.True(t, ok)
	assert.Equal(t, "evt-42", saver.InsertID)
	assert.Equal(t, []string{"order_events"}, ins.tables)
}

func TestInsertRetriesTransientFailures(t *testing.T) {
	ins := &recordingInserter{errs: []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		status.Error(codes.Unavailable, "try later"),
	}}
	w := newOrderEvents(t, ins)

	require.NoError(t, w.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "evt-1"}))
	assert.Len(t, ins.tables, 3)
}

func TestInsertGivesUpAfterAttempts(t *testing.T) {
	unavailable := &googleapi.Error{Code: http.StatusServiceUnavailable}
	ins := &recordingInserter{errs: []error{unavailable, unavailable, unavailable, unavailable}}
	w := newOrderEvents(t, ins)

	err := w.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "evt-1"})
	require.Error(t, err)
	assert.Len(t, ins.tables, 3)
}

func TestInsertStopsOnPermanentFailure(t *testing.T) {
	ins := &recordingInserter{errs: []error{&googleapi.Error{Code: http.StatusBadRequest}}}
	w := newOrderEvents(t, ins)

	err := w.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "evt-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-1")
	assert.Len(t, ins.tables, 1)
}

func TestInsertHonorsCanceledContext(t *testing.T) {
	ins := &recordingInserter{errs: []error{&googleapi.Error{Code: http.StatusServiceUnavailable}}}
	w, err := New(ins, Options{Table: "order_events", FirstDelay: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	err = w.InsertOrderEvent(ctx, types.OrderEventRow{EventID: "evt-1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransientClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"grpc internal", status.Error(codes.Internal, "boom"), true},
		{"grpc invalid", status.Error(codes.InvalidArgument, "bad"), false},
		{"plain", errors.New("schema mismatch"), false},
		{"row errors all transient", cbigquery.PutMultiError{
			{InsertID: "a", Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusBadGateway}}},
		}, true},
		{"row errors mixed", cbigquery.PutMultiError{
			{InsertID: "a", Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusBadGateway}}},
			{InsertID: "b", Errors: cbigquery.MultiError{errors.New("no such field")}},
		}, false},
		{"empty row errors", cbigquery.PutMultiError{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, transient(tc.err))
		})
	}
}

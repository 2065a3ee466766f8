package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/types"
)

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestWriteSuccessWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"order_code": "2025OC1abcd"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode[types.Envelope[map[string]string]](t, rec)
	assert.Equal(t, "2025OC1abcd", body.Data["order_code"])
}

func TestWriteRawSkipsEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRaw(rec, http.StatusOK, map[string]bool{"success": true})

	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "data")
}

func TestWriteErrorClientFaults(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		message     string
		wantDetails bool
	}{
		{
			name:        "validation keeps message and details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "customer_phone"}),
			status:      http.StatusBadRequest,
			message:     "bad input",
			wantDetails: true,
		},
		{
			name:    "already claimed is a 400",
			err:     pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "order already claimed"),
			status:  http.StatusBadRequest,
			message: "order already claimed",
		},
		{
			name:    "state conflict is a 422",
			err:     pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered"),
			status:  http.StatusUnprocessableEntity,
			message: "order already delivered",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			body := decode[types.ErrorEnvelope](t, rec)
			assert.Equal(t, string(pkgerrors.As(tc.err).Code()), body.Error.Code)
			assert.Equal(t, tc.message, body.Error.Message)
			if tc.wantDetails {
				assert.NotNil(t, body.Error.Details)
			}
		})
	}
}

func TestWriteErrorHidesServerFaults(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("dial tcp 10.0.0.3:5432: refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[types.ErrorEnvelope](t, rec)
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Error.Code)
	assert.NotContains(t, body.Error.Message, "10.0.0.3")

	rec = httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "rate limiter unavailable"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decode[types.ErrorEnvelope](t, rec)
	assert.Equal(t, pkgerrors.MetadataFor(pkgerrors.CodeDependency).PublicMessage, body.Error.Message)
}

func TestWriteErrorCarriesRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-77")
	rec := httptest.NewRecorder()
	WriteError(ctx, nil, rec, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	body := decode[types.ErrorEnvelope](t, rec)
	assert.Equal(t, "req-77", body.Error.RequestID)
}

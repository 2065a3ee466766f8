package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
)

type phoneBody struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,ke_phone"`
}

func TestDecodeJSONBodyRejectsBadPhone(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Achieng","phone":"12345"}`))
	var body phoneBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "invalid phone number format", typed.Message())
	details := typed.Details().(map[string]string)
	assert.Equal(t, "must be a Kenyan mobile number", details["phone"])
}

func TestDecodeJSONBodyAcceptsLocalPhone(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Achieng","phone":"0712345678"}`))
	var body phoneBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "0712345678", body.Phone)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","phone":"0712345678","extra":1}`))
	var body phoneBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, "invalid request body", pkgerrors.As(err).Message())
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20", nil)
	v, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	req = httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	_, err = ParseQueryInt(req, "limit", 25, 1, 100)
	require.Error(t, err)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	v, err = ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, v)
}

func TestParseQueryDateUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/?start=2025-10-01", nil)
	got, err := ParseQueryDate(req, "start", loc)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, loc), *got)

	req = httptest.NewRequest(http.MethodGet, "/?start=01/10/2025", nil)
	_, err = ParseQueryDate(req, "start", loc)
	require.Error(t, err)
}

func TestParsePathID(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", "42")
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.WithValue(context.Background(), chi.RouteCtxKey, rctx))
	id, err := ParsePathID(req, "orderId")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	rctx.URLParams = chi.RouteParams{}
	rctx.URLParams.Add("orderId", "0")
	_, err = ParsePathID(req, "orderId")
	require.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "a b", SanitizeString(" a \n  b ", 0))
	assert.Equal(t, "Mtaa", SanitizeString("Mtaa wa Moi", 4))
}

func TestDecodeJSONBodyRejectsTrailingDocument(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","phone":"0712345678"}{"name":"b"}`))
	var body phoneBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, "invalid request body", pkgerrors.As(err).Message())
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	type limits struct {
		Quantity int    `json:"quantity" validate:"min=1,max=100"`
		Method   string `json:"payment_method" validate:"oneof=cash prepay"`
	}
	err := ValidateStruct(&limits{Quantity: 0, Method: "card"})
	require.Error(t, err)

	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, map[string]string{
		"quantity":       "must be at least 1",
		"payment_method": "must be one of cash prepay",
	}, details)
}

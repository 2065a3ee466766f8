package payhero

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.PayHeroConfig {
	return config.PayHeroConfig{
		Endpoint:     "https://payhero.test/api/v2/payments",
		AuthToken:    "dG9rZW4=",
		ChannelID:    "911",
		Provider:     "m-pesa",
		WebsiteURL:   "https://shop.example.com",
		CallbackPath: "/api/v1/callbacks/payment/stk",
		Timeout:      5 * time.Second,
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestInitiateChargeSendsNormalizedRequest(t *testing.T) {
	var captured *http.Request
	var payload map[string]any

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))
		return jsonResponse(http.StatusCreated, `{"success":true,"status":"QUEUED","reference":"E8UWT7CLUW","CheckoutRequestID":"ws_CO_123"}`), nil
	})

	client := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	result, err := client.InitiateCharge(context.Background(), "0712345678", decimal.RequireFromString("500.40"), "2025OC12dbfw")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "https://payhero.test/api/v2/payments", captured.URL.String())
	assert.Equal(t, "Basic dG9rZW4=", captured.Header.Get("Authorization"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))

	assert.Equal(t, "m-pesa", payload["provider"])
	assert.Equal(t, "254712345678", payload["phone_number"])
	assert.EqualValues(t, 500, payload["amount"])
	assert.Equal(t, "2025OC12dbfw", payload["external_reference"])
	assert.Equal(t, "911", payload["channel_id"])
	assert.Equal(t, "https://shop.example.com/api/v1/callbacks/payment/stk", payload["callback_url"])

	assert.Equal(t, "E8UWT7CLUW", result.Reference)
	assert.Equal(t, "ws_CO_123", result.CheckoutRequestID)
	assert.Equal(t, "254712345678", result.Phone)
	assert.EqualValues(t, 500, result.Amount)
}

func TestInitiateChargeFallsBackToCheckoutRequestID(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"CheckoutRequestID":"ws_CO_999"}`), nil
	})
	client := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))

	result, err := client.InitiateCharge(context.Background(), "+254712345678", decimal.NewFromInt(100), "2025OC12abcd")
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_999", result.Reference)
}

func TestInitiateChargeInvalidPhone(t *testing.T) {
	called := false
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	client := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.InitiateCharge(context.Background(), "12345", decimal.NewFromInt(100), "2025OC12abcd")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.False(t, called)
}

func TestInitiateChargeNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.AuthToken = ""
	client := NewClient(cfg)

	_, err := client.InitiateCharge(context.Background(), "0712345678", decimal.NewFromInt(100), "2025OC12abcd")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestInitiateChargeRejected(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"error_message":"insufficient balance"}`), nil
	})
	client := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.InitiateCharge(context.Background(), "0712345678", decimal.NewFromInt(100), "2025OC12abcd")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeGatewayRejected, typed.Code())
	assert.Contains(t, err.Error(), "payhero returned status 400")
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "insufficient balance", details["message"])
}

func TestInitiateChargeTransportError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	client := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.InitiateCharge(context.Background(), "0712345678", decimal.NewFromInt(100), "2025OC12abcd")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInitiateChargeRejectsNonPositiveAmount(t *testing.T) {
	client := NewClient(testConfig())
	_, err := client.InitiateCharge(context.Background(), "0712345678", decimal.RequireFromString("0.2"), "2025OC12abcd")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestInitiateChargeThrottled(t *testing.T) {
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusCreated, `{"reference":"R1"}`), nil
	})
	client := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}), WithRateLimit(0.001, 1))

	_, err := client.InitiateCharge(context.Background(), "0712345678", decimal.NewFromInt(100), "2025OC12abcd")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.InitiateCharge(ctx, "0712345678", decimal.NewFromInt(100), "2025OC12abce")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Equal(t, 1, calls)
}

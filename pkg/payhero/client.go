// Package payhero talks to the PayHero mobile-money gateway: it issues STK push
// charge requests and classifies the asynchronous callbacks that follow.
package payhero

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/phone"
)

const (
	defaultTimeout              = 30 * time.Second
	defaultProvider             = "m-pesa"
	responseBodyReadLimit int64 = 4096
)

var (
	// ErrInvalidPhone is returned when the payer phone cannot be normalized.
	ErrInvalidPhone = errors.New("invalid phone number format")
	// ErrNotConfigured is returned when the gateway credentials are absent.
	ErrNotConfigured = errors.New("payhero credentials not configured")
)

// ChargeResult describes an accepted STK push.
type ChargeResult struct {
	Reference         string
	CheckoutRequestID string
	Phone             string
	Amount            int64
	Raw               map[string]any
}

// Client issues STK push requests. It holds configuration only.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	authToken   string
	channelID   string
	provider    string
	callbackURL string
	limiter     *rate.Limiter
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEndpoint overrides the configured STK push endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(endpoint)
		if trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// WithRateLimit caps outbound STK pushes; a zero rate disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient builds a gateway client. Missing credentials are not an error here;
// InitiateCharge reports ErrNotConfigured so orders can still be placed.
func NewClient(cfg config.PayHeroConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = defaultProvider
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    strings.TrimSpace(cfg.Endpoint),
		authToken:   strings.TrimSpace(cfg.AuthToken),
		channelID:   strings.TrimSpace(cfg.ChannelID),
		provider:    provider,
		callbackURL: cfg.CallbackURL(),
	}
	if cfg.RequestsPerSecond > 0 {
		WithRateLimit(cfg.RequestsPerSecond, cfg.Burst)(client)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Configured reports whether the client has what it needs to issue charges.
func (c *Client) Configured() bool {
	return c != nil && c.endpoint != "" && c.authToken != ""
}

type chargeRequest struct {
	Provider          string `json:"provider"`
	PhoneNumber       string `json:"phone_number"`
	Amount            int64  `json:"amount"`
	ExternalReference string `json:"external_reference"`
	ChannelID         string `json:"channel_id"`
	CallbackURL       string `json:"callback_url"`
}

// InitiateCharge asks the gateway to prompt the payer's phone for the given
// amount, using orderCode as the external reference echoed back in callbacks.
// Amounts are sent in whole currency units.
func (c *Client) InitiateCharge(ctx context.Context, rawPhone string, amount decimal.Decimal, orderCode string) (*ChargeResult, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidPhone, ErrInvalidPhone.Error())
	}
	if !c.Configured() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrNotConfigured, ErrNotConfigured.Error())
	}
	if strings.TrimSpace(orderCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}
	units := amount.Round(0).IntPart()
	if units <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payload, err := json.Marshal(chargeRequest{
		Provider:          c.provider,
		PhoneNumber:       normalized,
		Amount:            units,
		ExternalReference: orderCode,
		ChannelID:         c.channelID,
		CallbackURL:       c.callbackURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal stk push request")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payhero request throttled")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build stk push request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("failed to contact payhero: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if readErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "read stk push response")
	}

	var decoded map[string]any
	if len(bytes.TrimSpace(body)) > 0 {
		_ = json.Unmarshal(body, &decoded)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		message := providerMessage(decoded, body)
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeGatewayRejected,
			fmt.Errorf("status %d: %s", resp.StatusCode, message),
			fmt.Sprintf("payhero returned status %d", resp.StatusCode),
		).WithDetails(map[string]any{
			"status":  resp.StatusCode,
			"message": message,
		})
	}

	return &ChargeResult{
		Reference:         firstString(decoded, "reference", "CheckoutRequestID", "checkout_request_id"),
		CheckoutRequestID: firstString(decoded, "CheckoutRequestID", "checkout_request_id"),
		Phone:             normalized,
		Amount:            units,
		Raw:               decoded,
	}, nil
}

func providerMessage(decoded map[string]any, body []byte) string {
	if msg := firstString(decoded, "error_message", "message", "error"); msg != "" {
		return msg
	}
	return strings.TrimSpace(string(body))
}

func firstString(values map[string]any, keys ...string) string {
	for _, key := range keys {
		raw, ok := values[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return decimal.NewFromFloat(v).String()
		case bool:
			return fmt.Sprintf("%t", v)
		}
	}
	return ""
}

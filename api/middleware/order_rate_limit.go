package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/VINCENT-bot354/safaribytes/api/responses"
	"github.com/VINCENT-bot354/safaribytes/pkg/config"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/phone"
)

type RateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type PhoneHasher interface {
	Sum(value string) string
}

// OrderRateLimitPolicy throttles order placement per client IP and per
// customer phone number.
type OrderRateLimitPolicy struct {
	window     time.Duration
	ipLimit    int
	phoneLimit int
	hasher     PhoneHasher
}

// NewOrderRateLimitPolicy builds a policy from config. Phone numbers only
// reach the limiter key as hasher digests.
func NewOrderRateLimitPolicy(cfg config.OrderRateLimitConfig, hasher PhoneHasher) OrderRateLimitPolicy {
	return OrderRateLimitPolicy{
		window:     cfg.Window,
		ipLimit:    cfg.IPLimit,
		phoneLimit: cfg.PhoneLimit,
		hasher:     hasher,
	}
}

func (p OrderRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.phoneLimit > 0)
}

// OrderRateLimit enforces the policy on order placement.
func OrderRateLimit(policy OrderRateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if policy.ipLimit > 0 && ip != "" {
				scope := fmt.Sprintf("orders:ip:%s", ip)
				allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.ipLimit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					respondRateLimited(ctx, logg, w, policy, "ip", ip, count, policy.ipLimit)
					return
				}
			}

			if policy.phoneLimit > 0 && policy.hasher != nil {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if number := extractPhone(body); number != "" {
					digest := policy.hasher.Sum(number)
					scope := fmt.Sprintf("orders:phone:%s", digest)
					allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.phoneLimit), policy.window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						respondRateLimited(ctx, logg, w, policy, "phone", digest, count, policy.phoneLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy OrderRateLimitPolicy, scope, subject string, count int64, limit int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(policy.window.Seconds())))
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"scope":          scope,
			"subject":        subject,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		})
		logg.Warn(logCtx, "orders.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many orders, please try again shortly"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// extractPhone returns the normalized customer phone, or "" when the body has
// none. Invalid numbers are left for the handler to reject.
func extractPhone(payload []byte) string {
	var body struct {
		CustomerPhone string `json:"customer_phone"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	normalized, err := phone.Normalize(body.CustomerPhone)
	if err != nil {
		return ""
	}
	return normalized
}

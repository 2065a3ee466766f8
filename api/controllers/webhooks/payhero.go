package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/VINCENT-bot354/safaribytes/api/responses"
	internalorders "github.com/VINCENT-bot354/safaribytes/internal/orders"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/payhero"
)

const maxCallbackBytes = 64 << 10

type callbackHandler interface {
	HandlePaymentCallback(ctx context.Context, verdict payhero.Verdict) (internalorders.CallbackOutcome, error)
}

type callbackAck struct {
	Success bool `json:"success"`
}

// PaymentCallback receives PayHero STK results. It answers 200 on every path,
// including parse and persistence failures, so the gateway stops retrying.
func PaymentCallback(svc callbackHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer responses.WriteRaw(w, http.StatusOK, callbackAck{Success: true})

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes))
		if err != nil {
			logCallbackError(ctx, logg, "payhero.callback.read_failed", err)
			return
		}

		verdict := payhero.VerifyCallback(payload)
		if logg != nil {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"external_reference":  verdict.ExternalReference,
				"checkout_request_id": verdict.CheckoutRequestID,
				"outcome":             string(verdict.Outcome),
				"callback_message":    verdict.Message,
			}), "payhero.callback.received")
		}

		if svc == nil {
			if logg != nil {
				logg.Warn(ctx, "payhero.callback.service_unavailable")
			}
			return
		}

		if _, err := svc.HandlePaymentCallback(ctx, verdict); err != nil {
			logCallbackError(ctx, logg, "payhero.callback.apply_failed", err)
		}
	}
}

func logCallbackError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		return
	}
	logg.Error(ctx, msg, err)
}

package orders

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/notifications"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/payloads"
	"github.com/VINCENT-bot354/safaribytes/pkg/payhero"
	"github.com/VINCENT-bot354/safaribytes/pkg/phone"
)

// CallbackOutcome reports what a gateway callback did to the order.
type CallbackOutcome string

const (
	CallbackApplied   CallbackOutcome = "applied"
	CallbackUnmatched CallbackOutcome = "unmatched"
	CallbackStale     CallbackOutcome = "stale"
	CallbackDuplicate CallbackOutcome = "duplicate"
)

const callbackConsumer = "payhero-callback"

// RequestPayment re-issues an STK push for an unsettled order. A failed
// payment goes back to pending once the gateway accepts the new request.
func (s *service) RequestPayment(ctx context.Context, input RequestPaymentInput) (*models.Order, error) {
	order, err := s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusComplete {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid").
			WithDetails(map[string]any{"payment_status": order.PaymentStatus})
	}
	if order.IsArchived {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered").
			WithDetails(map[string]any{"status": order.Status})
	}

	payer := strings.TrimSpace(input.Phone)
	if payer == "" {
		payer = order.CustomerPhone
	}
	if !phone.Valid(payer) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number format")
	}

	updated, err := s.initiateCharge(ctx, order, payer, input.Actor)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// initiateCharge calls the gateway outside any transaction and then records
// the reference in a short one.
func (s *service) initiateCharge(ctx context.Context, order *models.Order, payer string, actor Actor) (*models.Order, error) {
	logCtx := s.orderContext(ctx, order)
	charge, err := s.charger.InitiateCharge(ctx, payer, order.TotalAmount, order.OrderCode)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeGatewayRejected) {
			s.metrics.IncChargeRequest("rejected")
		} else {
			s.metrics.IncChargeRequest("error")
		}
		s.logg.Error(logCtx, "payhero.charge.failed", err)
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initiate payment")
	}
	s.metrics.IncChargeRequest("accepted")

	reference := charge.Reference
	if reference == "" {
		reference = order.OrderCode
	}
	var checkoutID *string
	if charge.CheckoutRequestID != "" {
		id := charge.CheckoutRequestID
		checkoutID = &id
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.SetGatewayReference(ctx, order.ID, reference, checkoutID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record gateway reference")
		}
		current, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return mapLoadError(err)
		}
		updated = current
		if !ok {
			// a callback settled the order while the push was in flight
			return nil
		}
		if err := s.emit(ctx, tx, enums.EventOrderPaymentRequested, current, actor, payloads.PaymentRequestedEvent{
			OrderID:           current.ID,
			OrderCode:         current.OrderCode,
			GatewayReference:  reference,
			CheckoutRequestID: charge.CheckoutRequestID,
			PhoneMasked:       phone.Mask(charge.Phone),
			Amount:            current.TotalAmount,
		}); err != nil {
			return err
		}
		return s.record(ctx, tx, enums.AuditActionPaymentRequested, current, actor, map[string]any{
			"gateway_reference": reference,
			"phone":             phone.Mask(charge.Phone),
			"amount":            charge.Amount,
		})
	})
	if err != nil {
		s.logg.Error(logCtx, "orders.payment_request.persist_failed", err)
		return nil, err
	}

	s.logg.Info(s.logg.WithField(logCtx, "gateway_reference", reference), "payhero.charge.accepted")
	s.broadcaster.Broadcast(ctx, notifications.UpdateFromOrder(notifications.UpdatePayment, updated))
	return updated, nil
}

// HandlePaymentCallback applies a gateway verdict at most once. Unknown
// outcomes settle as failed; the customer can retry with a fresh push.
func (s *service) HandlePaymentCallback(ctx context.Context, verdict payhero.Verdict) (CallbackOutcome, error) {
	reference := strings.TrimSpace(verdict.ExternalReference)
	cbCtx := s.logg.WithFields(ctx, map[string]any{
		"external_reference":  reference,
		"checkout_request_id": verdict.CheckoutRequestID,
		"callback_status":     verdict.Status,
	})
	if reference == "" {
		s.logg.Warn(cbCtx, "payhero.callback.unmatched")
		s.metrics.IncCallback(string(CallbackUnmatched))
		return CallbackUnmatched, nil
	}

	order, err := s.repo.FindByExternalReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(cbCtx, "payhero.callback.unmatched")
			s.metrics.IncCallback(string(CallbackUnmatched))
			return CallbackUnmatched, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for callback")
	}
	cbCtx = s.logg.WithOrder(cbCtx, order.ID, order.OrderCode)

	if isStaleCheckout(order, verdict) {
		s.logg.Info(cbCtx, "payhero.callback.stale")
		s.metrics.IncCallback(string(CallbackStale))
		return CallbackStale, nil
	}

	status := enums.PaymentStatusFailed
	if verdict.Succeeded() {
		status = enums.PaymentStatusComplete
	}

	guardKey := order.OrderCode + ":" + chargeAttempt(order, verdict) + ":" + string(status)
	if s.guard != nil {
		seen, err := s.guard.CheckAndMarkKey(ctx, callbackConsumer, guardKey)
		if err != nil {
			// the row CAS below still enforces apply-once
			s.logg.Error(cbCtx, "payhero.callback.guard_failed", err)
		} else if seen {
			s.logg.Info(cbCtx, "payhero.callback.duplicate")
			s.metrics.IncCallback(string(CallbackDuplicate))
			return CallbackDuplicate, nil
		}
	}

	var (
		updated *models.Order
		applied bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.ApplyPaymentOutcome(ctx, order.ID, status, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payment outcome")
		}
		if !ok {
			return nil
		}
		applied = true
		current, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return mapLoadError(err)
		}
		updated = current

		kind := enums.NotificationTypePaymentFailed
		if status == enums.PaymentStatusComplete {
			kind = enums.NotificationTypePaymentSuccessful
		}
		if err := s.notify(ctx, tx, kind, current); err != nil {
			return err
		}
		gatewayRef := verdict.ProviderReference
		if gatewayRef == "" && current.GatewayReference != nil {
			gatewayRef = *current.GatewayReference
		}
		gateway := Actor{Role: enums.ActorRoleGateway}
		if err := s.emit(ctx, tx, enums.EventOrderPaymentUpdated, current, gateway, payloads.PaymentUpdatedEvent{
			OrderID:          current.ID,
			OrderCode:        current.OrderCode,
			PaymentStatus:    status,
			GatewayReference: gatewayRef,
			ResultCode:       verdict.ResultCode,
			Message:          verdict.Message,
			CustomerName:     current.CustomerName,
			CustomerEmail:    current.CustomerEmail,
			TotalAmount:      current.TotalAmount,
		}); err != nil {
			return err
		}
		return s.record(ctx, tx, enums.AuditActionPaymentCallback, current, gateway, map[string]any{
			"payment_status":     status,
			"outcome":            verdict.Outcome,
			"provider_reference": verdict.ProviderReference,
			"result_code":        verdict.ResultCode,
		})
	})
	if err != nil {
		if s.guard != nil {
			if delErr := s.guard.Delete(ctx, callbackConsumer, guardKey); delErr != nil {
				s.logg.Error(cbCtx, "payhero.callback.guard_release_failed", delErr)
			}
		}
		s.logg.Error(cbCtx, "payhero.callback.failed", err)
		return "", err
	}

	if !applied {
		s.logg.Info(cbCtx, "payhero.callback.duplicate")
		s.metrics.IncCallback(string(CallbackDuplicate))
		return CallbackDuplicate, nil
	}

	s.logg.Info(s.logg.WithField(cbCtx, "payment_status", string(status)), "payhero.callback.applied")
	s.metrics.IncCallback(string(CallbackApplied))
	s.broadcaster.Broadcast(ctx, notifications.UpdateFromOrder(notifications.UpdatePayment, updated))
	return CallbackApplied, nil
}

// isStaleCheckout reports a callback for an earlier push that has since been
// superseded by a retry.
func isStaleCheckout(order *models.Order, verdict payhero.Verdict) bool {
	if verdict.CheckoutRequestID == "" || order.CheckoutRequestID == nil || *order.CheckoutRequestID == "" {
		return false
	}
	return *order.CheckoutRequestID != verdict.CheckoutRequestID
}

// chargeAttempt names the STK push a callback answers. Every RequestPayment
// gets a fresh checkout id, so a retried charge can settle again.
func chargeAttempt(order *models.Order, verdict payhero.Verdict) string {
	switch {
	case verdict.CheckoutRequestID != "":
		return verdict.CheckoutRequestID
	case order.CheckoutRequestID != nil && *order.CheckoutRequestID != "":
		return *order.CheckoutRequestID
	case order.GatewayReference != nil && *order.GatewayReference != "":
		return *order.GatewayReference
	default:
		return order.OrderCode
	}
}

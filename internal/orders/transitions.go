package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/notifications"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox/payloads"
)

var errClaimLost = errors.New("claim lost")

func requireFulfillment(actor Actor) error {
	if actor.ID == 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "staff identity missing")
	}
	if !actor.Role.IsFulfillment() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff or admin role required")
	}
	return nil
}

// Claim assigns an unclaimed pending order to the acting staff member. Of two
// concurrent claims exactly one wins; the other sees ALREADY_CLAIMED.
func (s *service) Claim(ctx context.Context, orderID uint64, actor Actor) (*models.Order, error) {
	if err := requireFulfillment(actor); err != nil {
		return nil, err
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.Claim(ctx, orderID, actor.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
		}
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if !ok {
			return claimRejection(current, actor)
		}
		updated = current

		if err := s.notify(ctx, tx, enums.NotificationTypeOrderOnTheWay, current); err != nil {
			return err
		}
		if err := s.emit(ctx, tx, enums.EventOrderClaimed, current, actor, payloads.OrderClaimedEvent{
			OrderID:   current.ID,
			OrderCode: current.OrderCode,
			StaffID:   actor.ID,
			ClaimedAt: current.UpdatedAt,
		}); err != nil {
			return err
		}
		return s.record(ctx, tx, enums.AuditActionOrderClaimed, current, actor, map[string]any{"staff_id": actor.ID})
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeAlreadyClaimed) {
			s.metrics.IncClaimConflict()
			s.logg.Warn(s.logg.WithField(ctx, "order_id", orderID), "orders.claim.conflict")
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithActorRole(s.orderContext(ctx, updated), string(actor.Role)), "orders.claim.success")
	s.broadcaster.Broadcast(ctx, notifications.UpdateFromOrder(notifications.UpdateOrderClaimed, updated))
	return updated, nil
}

func claimRejection(current *models.Order, actor Actor) error {
	if current.IsArchived || current.Status == enums.OrderStatusDelivered {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered").
			WithDetails(map[string]any{"status": current.Status})
	}
	if current.StaffID != nil && *current.StaffID == actor.ID {
		return pkgerrors.Wrap(pkgerrors.CodeAlreadyClaimed, errClaimLost, "order already claimed by you")
	}
	return pkgerrors.Wrap(pkgerrors.CodeAlreadyClaimed, errClaimLost, "order already claimed")
}

// Unclaim returns the order to the queue. Only the owning staff member may do
// this.
func (s *service) Unclaim(ctx context.Context, orderID uint64, actor Actor) (*models.Order, error) {
	if err := requireFulfillment(actor); err != nil {
		return nil, err
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.Unclaim(ctx, orderID, actor.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unclaim order")
		}
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if !ok {
			if current.IsArchived {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered").
					WithDetails(map[string]any{"status": current.Status})
			}
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not claimed by you")
		}
		updated = current

		if err := s.emit(ctx, tx, enums.EventOrderUnclaimed, current, actor, payloads.OrderUnclaimedEvent{
			OrderID:     current.ID,
			OrderCode:   current.OrderCode,
			StaffID:     actor.ID,
			UnclaimedAt: current.UpdatedAt,
		}); err != nil {
			return err
		}
		return s.record(ctx, tx, enums.AuditActionOrderUnclaimed, current, actor, map[string]any{"staff_id": actor.ID})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.orderContext(ctx, updated), "orders.unclaim.success")
	s.broadcaster.Broadcast(ctx, notifications.UpdateFromOrder(notifications.UpdateOrderUnclaimed, updated))
	return updated, nil
}

// Deliver is terminal: the order is archived and leaves every active listing.
func (s *service) Deliver(ctx context.Context, orderID uint64, actor Actor) (*models.Order, error) {
	if err := requireFulfillment(actor); err != nil {
		return nil, err
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.Deliver(ctx, orderID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver order")
		}
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered").
				WithDetails(map[string]any{"status": current.Status})
		}
		updated = current

		courier := actor.ID
		if current.StaffID != nil {
			courier = *current.StaffID
		}
		if err := s.tracker.ClearTrackingLink(ctx, tx, courier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear tracking link")
		}
		if err := s.notify(ctx, tx, enums.NotificationTypeOrderDelivered, current); err != nil {
			return err
		}

		deliveredAt := s.now()
		if current.DeliveredAt != nil {
			deliveredAt = *current.DeliveredAt
		}
		if err := s.emit(ctx, tx, enums.EventOrderDelivered, current, actor, payloads.OrderDeliveredEvent{
			OrderID:       current.ID,
			OrderCode:     current.OrderCode,
			StaffID:       current.StaffID,
			CustomerName:  current.CustomerName,
			CustomerEmail: current.CustomerEmail,
			DeliveredAt:   deliveredAt,
		}); err != nil {
			return err
		}
		return s.record(ctx, tx, enums.AuditActionOrderDelivered, current, actor, map[string]any{"courier_id": courier})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.orderContext(ctx, updated), "orders.deliver.success")
	s.broadcaster.Broadcast(ctx, notifications.UpdateFromOrder(notifications.UpdateOrderDelivered, updated))
	return updated, nil
}

// MarkPaidManually settles an order in cash at handoff. Calling it on an
// already settled order returns the order unchanged.
func (s *service) MarkPaidManually(ctx context.Context, orderID uint64, actor Actor) (*models.Order, error) {
	if err := requireFulfillment(actor); err != nil {
		return nil, err
	}

	var (
		updated    *models.Order
		transition bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.MarkPaidCash(ctx, orderID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		updated = current
		transition = ok
		if !ok {
			return nil
		}

		paidAt := s.now()
		if current.PaidAt != nil {
			paidAt = *current.PaidAt
		}
		if err := s.emit(ctx, tx, enums.EventOrderPaid, current, actor, payloads.OrderPaidEvent{
			OrderID:       current.ID,
			OrderCode:     current.OrderCode,
			PaymentMethod: current.PaymentMethod,
			TotalAmount:   current.TotalAmount,
			PaidAt:        paidAt,
		}); err != nil {
			return err
		}
		return s.record(ctx, tx, enums.AuditActionMarkedPaid, current, actor, map[string]any{
			"total_amount": current.TotalAmount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.orderContext(ctx, updated)
	if !transition {
		s.logg.Info(logCtx, "orders.mark_paid.noop")
		return updated, nil
	}
	s.logg.Info(logCtx, "orders.mark_paid.success")
	s.broadcaster.Broadcast(ctx, notifications.UpdateFromOrder(notifications.UpdatePayment, updated))
	return updated, nil
}

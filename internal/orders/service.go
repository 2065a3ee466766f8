package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/VINCENT-bot354/safaribytes/internal/audit"
	"github.com/VINCENT-bot354/safaribytes/internal/notifications"
	"github.com/VINCENT-bot354/safaribytes/internal/staff"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/metrics"
	"github.com/VINCENT-bot354/safaribytes/pkg/outbox"
	"github.com/VINCENT-bot354/safaribytes/pkg/pagination"
	"github.com/VINCENT-bot354/safaribytes/pkg/payhero"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type chargeInitiator interface {
	InitiateCharge(ctx context.Context, phone string, amount decimal.Decimal, orderCode string) (*payhero.ChargeResult, error)
}

type codeGenerator interface {
	Generate() (string, error)
}

type broadcaster interface {
	Broadcast(ctx context.Context, update notifications.OrderUpdate)
}

type tracker interface {
	ClearTrackingLink(ctx context.Context, tx *gorm.DB, staffID uint64) error
	TrackingForOrder(ctx context.Context, order *models.Order) (staff.TrackingView, error)
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

type catalog interface {
	CheckOrderable(ctx context.Context, productIDs []uint64) error
}

type callbackGuard interface {
	CheckAndMarkKey(ctx context.Context, consumer, key string) (bool, error)
	Delete(ctx context.Context, consumer, key string) error
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateResult, error)
	Get(ctx context.Context, orderID uint64) (*models.Order, error)
	GetByCode(ctx context.Context, code string) (*models.Order, error)
	ListActive(ctx context.Context, params pagination.Params, filters ActiveFilters) (*OrderList, error)
	ListForCustomer(ctx context.Context, customerID uint64, params pagination.Params) (*OrderList, error)
	Tracking(ctx context.Context, code string) (staff.TrackingView, error)
	Claim(ctx context.Context, orderID uint64, actor Actor) (*models.Order, error)
	Unclaim(ctx context.Context, orderID uint64, actor Actor) (*models.Order, error)
	Deliver(ctx context.Context, orderID uint64, actor Actor) (*models.Order, error)
	MarkPaidManually(ctx context.Context, orderID uint64, actor Actor) (*models.Order, error)
	RequestPayment(ctx context.Context, input RequestPaymentInput) (*models.Order, error)
	HandlePaymentCallback(ctx context.Context, verdict payhero.Verdict) (CallbackOutcome, error)
}

// ServiceParams carries the collaborators of the order service. Guard,
// Catalog and Metrics are optional.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Outbox      outboxPublisher
	Charger     chargeInitiator
	Codes       codeGenerator
	Feed        notifications.Repository
	Broadcaster broadcaster
	Tracker     tracker
	Audit       auditRecorder
	Guard       callbackGuard
	Catalog     catalog
	Metrics     *metrics.OrderMetrics
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	charger     chargeInitiator
	codes       codeGenerator
	feed        notifications.Repository
	broadcaster broadcaster
	tracker     tracker
	audit       auditRecorder
	guard       callbackGuard
	catalog     catalog
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Charger == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Codes == nil {
		return nil, fmt.Errorf("order code generator required")
	}
	if params.Feed == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Broadcaster == nil {
		return nil, fmt.Errorf("broadcaster required")
	}
	if params.Tracker == nil {
		return nil, fmt.Errorf("staff tracker required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		outbox:      params.Outbox,
		charger:     params.Charger,
		codes:       params.Codes,
		feed:        params.Feed,
		broadcaster: params.Broadcaster,
		tracker:     params.Tracker,
		audit:       params.Audit,
		guard:       params.Guard,
		catalog:     params.Catalog,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Get(ctx context.Context, orderID uint64) (*models.Order, error) {
	if orderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return order, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Order, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code required")
	}
	order, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return order, nil
}

func (s *service) ListActive(ctx context.Context, params pagination.Params, filters ActiveFilters) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListActive(ctx, params.Limit, cursor, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active orders")
	}
	return buildList(rows, next), nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uint64, params pagination.Params) (*OrderList, error) {
	if customerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListByCustomer(ctx, customerID, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return buildList(rows, next), nil
}

// Tracking returns the live link for an order without exposing staff details.
func (s *service) Tracking(ctx context.Context, code string) (staff.TrackingView, error) {
	order, err := s.GetByCode(ctx, code)
	if err != nil {
		return staff.TrackingView{}, err
	}
	return s.tracker.TrackingForOrder(ctx, order)
}

func buildList(rows []models.Order, next *pagination.Cursor) *OrderList {
	list := &OrderList{Orders: make([]OrderView, 0, len(rows))}
	for i := range rows {
		list.Orders = append(list.Orders, NewOrderView(&rows[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

// notify writes the customer feed entry inside tx. Guest orders are skipped.
func (s *service) notify(ctx context.Context, tx *gorm.DB, kind enums.NotificationType, order *models.Order) error {
	entry := notifications.ForOrder(kind, order)
	if entry == nil {
		return nil
	}
	if err := s.feed.WithTx(tx).Create(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer notification")
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, actor Actor, data any) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.OrderCode,
		Actor:         &outbox.ActorRef{ActorID: actor.idPtr(), Role: actor.Role},
		Data:          data,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
	}
	return nil
}

func (s *service) record(ctx context.Context, tx *gorm.DB, action enums.AuditAction, order *models.Order, actor Actor, details map[string]any) error {
	if err := s.audit.Record(ctx, tx, audit.OrderEntry(action, order.OrderCode, actor.idPtr(), actor.Role, details)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write audit log")
	}
	return nil
}

func (s *service) orderContext(ctx context.Context, order *models.Order) context.Context {
	return s.logg.WithOrder(ctx, order.ID, order.OrderCode)
}

package orders

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/api/middleware"
	"github.com/VINCENT-bot354/safaribytes/api/responses"
	"github.com/VINCENT-bot354/safaribytes/api/validators"
	internalorders "github.com/VINCENT-bot354/safaribytes/internal/orders"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
	"github.com/VINCENT-bot354/safaribytes/pkg/pagination"
)

type createItemRequest struct {
	ProductID json.Number     `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required,max=200"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"required,min=1,max=100"`
}

type createOrderRequest struct {
	// customer_id is accepted from older storefronts but the bearer token is
	// the only source of the customer identity.
	CustomerID      *json.Number        `json:"customer_id,omitempty"`
	CustomerName    string              `json:"customer_name" validate:"required,max=120"`
	CustomerPhone   string              `json:"customer_phone" validate:"required,ke_phone"`
	CustomerEmail   *string             `json:"customer_email,omitempty" validate:"omitempty,email"`
	DeliveryAddress string              `json:"delivery_address" validate:"required,max=500"`
	Latitude        *float64            `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude       *float64            `json:"longitude,omitempty" validate:"omitempty,longitude"`
	LocationMethod  *string             `json:"location_method,omitempty" validate:"omitempty,max=40"`
	Items           []createItemRequest `json:"items" validate:"required,min=1,dive"`
	ProductTotal    decimal.Decimal     `json:"product_total"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	ConvenienceFee  decimal.Decimal     `json:"convenience_fee"`
	TransactionFee  decimal.Decimal     `json:"transaction_fee"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	PaymentMethod   string              `json:"payment_method" validate:"required"`
}

type createOrderResponse struct {
	Success          bool                     `json:"success"`
	OrderID          uint64                   `json:"order_id"`
	OrderCode        string                   `json:"order_code"`
	PaymentInitiated bool                     `json:"payment_initiated"`
	PaymentError     string                   `json:"payment_error,omitempty"`
	Order            internalorders.OrderView `json:"order"`
}

type paymentRequest struct {
	Phone string `json:"phone,omitempty" validate:"omitempty,ke_phone"`
}

func (req createOrderRequest) toInput(r *http.Request) (internalorders.CreateOrderInput, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(req.PaymentMethod))
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method must be cash or prepay")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := strconv.ParseUint(item.ProductID.String(), 10, 64)
		if err != nil {
			return internalorders.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		items = append(items, models.OrderItem{
			ProductID: productID,
			Name:      validators.SanitizeString(item.Name, 200),
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	input := internalorders.CreateOrderInput{
		CustomerName:   validators.SanitizeString(req.CustomerName, 120),
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		Items:          items,
		ProductTotal:   req.ProductTotal,
		DeliveryFee:    req.DeliveryFee,
		ConvenienceFee: req.ConvenienceFee,
		TransactionFee: req.TransactionFee,
		TotalAmount:    req.TotalAmount,
		PaymentMethod:  method,
		Address:        validators.SanitizeString(req.DeliveryAddress, 500),
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		LocationMethod: req.LocationMethod,
	}
	if middleware.RoleFromContext(r.Context()) == enums.ActorRoleCustomer {
		if id := middleware.UserIDFromContext(r.Context()); id != 0 {
			input.CustomerID = &id
		}
	}
	return input, nil
}

type createOrderFailure struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Create places an order for a guest or a signed-in customer. A prepay order
// that could not reach the payment rail is still created; the response says
// so through payment_initiated and payment_error.
//
// Storefronts read a bare {success, order_code} body here, so neither outcome
// uses the data envelope. Client faults come back as 400 with
// {success:false, message}; server faults keep the shared error envelope.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			writeCreateFailure(w, r, logg, err)
			return
		}
		input, err := req.toInput(r)
		if err != nil {
			writeCreateFailure(w, r, logg, err)
			return
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			writeCreateFailure(w, r, logg, err)
			return
		}

		responses.WriteRaw(w, http.StatusCreated, createOrderResponse{
			Success:          true,
			OrderID:          result.Order.ID,
			OrderCode:        result.Order.OrderCode,
			PaymentInitiated: result.PaymentInitiated,
			PaymentError:     result.PaymentError,
			Order:            internalorders.NewOrderView(result.Order),
		})
	}
}

func writeCreateFailure(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	typed := pkgerrors.As(err)
	if typed == nil || pkgerrors.MetadataFor(typed.Code()).HTTPStatus >= http.StatusInternalServerError {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if logg != nil {
		ctx := logg.WithFields(r.Context(), map[string]any{
			"error":      typed.Message(),
			"error_code": string(typed.Code()),
		})
		logg.Warn(ctx, "orders.create_rejected")
	}
	responses.WriteRaw(w, http.StatusBadRequest, createOrderFailure{
		Success: false,
		Code:    string(typed.Code()),
		Message: typed.Message(),
	})
}

// List returns the active staff queue, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := activeFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListActive(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one order by id.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderView(order))
	}
}

type transition func(svc internalorders.Service, r *http.Request, orderID uint64, actor internalorders.Actor) (*models.Order, error)

func transitionHandler(svc internalorders.Service, logg *logger.Logger, apply transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := apply(svc, r, orderID, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderView(order))
	}
}

// Claim assigns the order to the calling staff member.
func Claim(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc internalorders.Service, r *http.Request, id uint64, actor internalorders.Actor) (*models.Order, error) {
		return svc.Claim(r.Context(), id, actor)
	})
}

// Unclaim releases the calling staff member's claim.
func Unclaim(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc internalorders.Service, r *http.Request, id uint64, actor internalorders.Actor) (*models.Order, error) {
		return svc.Unclaim(r.Context(), id, actor)
	})
}

// Deliver archives the order.
func Deliver(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc internalorders.Service, r *http.Request, id uint64, actor internalorders.Actor) (*models.Order, error) {
		return svc.Deliver(r.Context(), id, actor)
	})
}

// MarkPaid records a cash settlement.
func MarkPaid(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc internalorders.Service, r *http.Request, id uint64, actor internalorders.Actor) (*models.Order, error) {
		return svc.MarkPaidManually(r.Context(), id, actor)
	})
}

// RequestPayment re-sends the STK push, optionally to another phone.
func RequestPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc internalorders.Service, r *http.Request, id uint64, actor internalorders.Actor) (*models.Order, error) {
		var req paymentRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				return nil, err
			}
		}
		return svc.RequestPayment(r.Context(), internalorders.RequestPaymentInput{
			OrderID: id,
			Phone:   req.Phone,
			Actor:   actor,
		})
	})
}

// Tracking is public and keyed by order code only; sequential ids are not
// accepted here.
func Tracking(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		code := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order code is required"))
			return
		}
		view, err := svc.Tracking(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CustomerOrders lists the signed-in customer's orders, archived included.
func CustomerOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		customerID := middleware.UserIDFromContext(r.Context())
		if customerID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing"))
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForCustomer(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func actorFromRequest(r *http.Request) internalorders.Actor {
	return internalorders.Actor{
		ID:   middleware.UserIDFromContext(r.Context()),
		Role: middleware.RoleFromContext(r.Context()),
	}
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func activeFilters(r *http.Request) (internalorders.ActiveFilters, error) {
	var filters internalorders.ActiveFilters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}

	switch raw := strings.TrimSpace(query.Get("staff")); raw {
	case "":
	case "me":
		id := middleware.UserIDFromContext(r.Context())
		filters.StaffID = &id
	default:
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid staff filter")
		}
		filters.StaffID = &id
	}
	return filters, nil
}

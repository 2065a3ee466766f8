package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/api/middleware"
	"github.com/VINCENT-bot354/safaribytes/api/responses"
	"github.com/VINCENT-bot354/safaribytes/api/validators"
	"github.com/VINCENT-bot354/safaribytes/internal/products"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

type comboItemPayload struct {
	ProductID uint64 `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=20"`
}

type productPayload struct {
	ImageURL    string             `json:"image_url" validate:"required,max=500"`
	Name        string             `json:"name" validate:"required,max=255"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=4000"`
	Category    string             `json:"category" validate:"required,max=100"`
	PriceNow    decimal.Decimal    `json:"price_now"`
	PriceOld    *decimal.Decimal   `json:"price_old,omitempty"`
	CostOfGoods decimal.Decimal    `json:"cost_of_goods"`
	Stock       *string            `json:"stock,omitempty" validate:"omitempty,max=100"`
	IsCombo     bool               `json:"is_combo"`
	ComboItems  []comboItemPayload `json:"combo_items,omitempty" validate:"omitempty,max=12,dive"`
	IsAvailable *bool              `json:"is_available,omitempty"`
}

type availabilityPayload struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

func (p productPayload) toInput() products.ProductInput {
	input := products.ProductInput{
		ImageURL:    strings.TrimSpace(p.ImageURL),
		Name:        validators.SanitizeString(p.Name, 255),
		Description: optionalText(p.Description, 4000),
		Category:    validators.SanitizeString(p.Category, 100),
		PriceNow:    p.PriceNow,
		PriceOld:    p.PriceOld,
		CostOfGoods: p.CostOfGoods,
		Stock:       optionalText(p.Stock, 100),
		IsCombo:     p.IsCombo,
		IsAvailable: p.IsAvailable,
	}
	for _, item := range p.ComboItems {
		input.ComboItems = append(input.ComboItems, models.ComboComponent{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return input
}

// optionalText maps blank form fields to nil.
func optionalText(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*value, maxLen)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// ProductMenu is the public menu. ?category= narrows it and ?available=true
// drops sold-out items.
func ProductMenu(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		availableOnly, err := validators.ParseQueryBool(r, "available")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		menu, err := svc.Menu(r.Context(), products.MenuFilter{
			Category:      validators.SanitizeString(r.URL.Query().Get("category"), 100),
			AvailableOnly: availableOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menu)
	}
}

func AdminListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		includeRemoved, err := validators.ParseQueryBool(r, "includeRemoved")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), includeRemoved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminGetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// UpdateProduct replaces a product; an omitted is_available keeps the switch.
func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Update(r.Context(), middleware.UserIDFromContext(r.Context()), productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func SetProductAvailability(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload availabilityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.SetAvailability(r.Context(), middleware.UserIDFromContext(r.Context()), productID, *payload.IsAvailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// RemoveProduct hides a product from the menu; order history keeps the row.
func RemoveProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), middleware.UserIDFromContext(r.Context()), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"removed": true, "id": productID})
	}
}

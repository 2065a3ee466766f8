package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
)

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	ImageURL    string
	Name        string
	Description *string
	Category    string
	PriceNow    decimal.Decimal
	PriceOld    *decimal.Decimal
	CostOfGoods decimal.Decimal
	Stock       *string
	IsCombo     bool
	ComboItems  []models.ComboComponent
	// nil keeps the stored value on update and means available on create
	IsAvailable *bool
}

// MenuFilter narrows the customer menu.
type MenuFilter struct {
	Category      string
	AvailableOnly bool
}

// ComboComponentView names a bundled product next to its count.
type ComboComponentView struct {
	ProductID uint64 `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// ProductView is what customers see. IsAvailable already accounts for combo
// components that are sold out or removed.
type ProductView struct {
	ID          uint64               `json:"id"`
	ImageURL    string               `json:"image_url"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Category    string               `json:"category"`
	PriceNow    decimal.Decimal      `json:"price_now"`
	PriceOld    *decimal.Decimal     `json:"price_old,omitempty"`
	Stock       *string              `json:"stock,omitempty"`
	IsCombo     bool                 `json:"is_combo"`
	ComboItems  []ComboComponentView `json:"combo_items,omitempty"`
	IsAvailable bool                 `json:"is_available"`
}

// AdminProductView adds the cost side of a product.
type AdminProductView struct {
	ProductView
	CostOfGoods decimal.Decimal `json:"cost_of_goods"`
	Margin      decimal.Decimal `json:"margin"`
	IsActive    bool            `json:"is_active"`
	// Listed reflects the stored availability switch, before combo components.
	Listed    bool      `json:"listed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newProductView(product models.Product, index map[uint64]models.Product) ProductView {
	view := ProductView{
		ID:          product.ID,
		ImageURL:    product.ImageURL,
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		PriceNow:    product.PriceNow,
		Stock:       product.Stock,
		IsCombo:     product.IsCombo,
		IsAvailable: effectiveAvailability(product, index),
	}
	if product.PriceOld.Valid {
		old := product.PriceOld.Decimal
		view.PriceOld = &old
	}
	for _, component := range product.ComboItems {
		item := ComboComponentView{ProductID: component.ProductID, Quantity: component.Quantity}
		if bundled, ok := index[component.ProductID]; ok {
			item.Name = bundled.Name
		}
		view.ComboItems = append(view.ComboItems, item)
	}
	return view
}

func newAdminProductView(product models.Product, index map[uint64]models.Product) AdminProductView {
	return AdminProductView{
		ProductView: newProductView(product, index),
		CostOfGoods: product.CostOfGoods,
		Margin:      product.PriceNow.Sub(product.CostOfGoods),
		IsActive:    product.IsActive,
		Listed:      product.IsAvailable,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// effectiveAvailability requires every combo component to be orderable. A
// component missing from index counts as unavailable.
func effectiveAvailability(product models.Product, index map[uint64]models.Product) bool {
	if !product.Orderable() {
		return false
	}
	if !product.IsCombo {
		return true
	}
	if len(product.ComboItems) == 0 {
		return false
	}
	for _, component := range product.ComboItems {
		bundled, ok := index[component.ProductID]
		if !ok || !bundled.Orderable() {
			return false
		}
	}
	return true
}

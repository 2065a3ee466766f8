package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComboComponent is one product bundled into a combo, with its count.
type ComboComponent struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Product is a catalog entry. A combo bundles other non-combo products;
// IsAvailable is the day-to-day sold-out switch while IsActive false means
// the product was removed from the menu.
type Product struct {
	ID          uint64              `gorm:"column:id;primaryKey;autoIncrement"`
	ImageURL    string              `gorm:"column:image_url;type:varchar(500);not null"`
	Name        string              `gorm:"column:name;type:varchar(255);not null"`
	Description *string             `gorm:"column:description;type:text"`
	Category    string              `gorm:"column:category;type:varchar(100);not null"`
	PriceNow    decimal.Decimal     `gorm:"column:price_now;type:numeric(12,2);not null"`
	PriceOld    decimal.NullDecimal `gorm:"column:price_old;type:numeric(12,2)"`
	CostOfGoods decimal.Decimal     `gorm:"column:cost_of_goods;type:numeric(12,2);not null;default:0"`
	Stock       *string             `gorm:"column:stock;type:varchar(100)"`

	IsCombo    bool             `gorm:"column:is_combo;not null;default:false"`
	ComboItems []ComboComponent `gorm:"column:combo_items;type:jsonb;serializer:json"`

	IsAvailable bool `gorm:"column:is_available;not null"`
	IsActive    bool `gorm:"column:is_active;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// Orderable reports whether customers may put the product in an order.
func (p Product) Orderable() bool {
	return p.IsActive && p.IsAvailable
}

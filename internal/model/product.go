package model

import "github.com/shopspring/decimal"

// DefaultCategories seeds the category picker even before any product uses them.
var DefaultCategories = []string{"Yiyecek", "İçecek", "Bira", "Ağır Alkol", "Kuruyemişler", "Diğer"}

// FallbackCategory labels lines sold without a category.
const FallbackCategory = "Diğer"

type Product struct {
	BaseModel
	Barcode  string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"barcode" validate:"required,max=64"`
	Name     string          `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price" validate:"gt=0"`
	Qty      int             `gorm:"not null;default:0" json:"qty" validate:"gte=0"`
	Category string          `gorm:"type:varchar(64);index;not null" json:"category" validate:"required,max=64"`
	// Threshold is optional; nil falls back to the category threshold.
	Threshold *int `json:"threshold,omitempty" validate:"omitempty,gte=0"`
}

// CategoryThreshold is the per-category low-stock fallback.
type CategoryThreshold struct {
	Category  string `gorm:"type:varchar(64);primaryKey" json:"category" validate:"required,max=64"`
	Threshold int    `gorm:"not null" json:"threshold" validate:"gte=0"`
	UpdatedBy string `json:"updated_by,omitempty"`
}

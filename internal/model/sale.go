package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentFamily PaymentMethod = "family"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentFamily:
		return true
	}
	return false
}

// Sale is immutable once written; the only mutation is an admin delete.
// CreatedAt is the server-assigned sale timestamp.
type Sale struct {
	BaseModel
	Total         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(10);not null;index" json:"payment_method"`
	CashierID     *uuid.UUID      `gorm:"type:uuid" json:"cashier_id,omitempty"`
	CashierName   string          `gorm:"type:varchar(100)" json:"cashier_name,omitempty"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
}

// SaleItem snapshots a cart line at checkout time.
type SaleItem struct {
	ID       uint            `gorm:"primaryKey" json:"-"`
	SaleID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	Barcode  string          `gorm:"type:varchar(64);not null" json:"barcode"`
	Name     string          `gorm:"type:varchar(255);not null" json:"name"`
	Category string          `gorm:"type:varchar(64)" json:"category"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Qty      int             `gorm:"not null" json:"qty"`
}

// ItemCount sums the quantities of all lines.
func (s *Sale) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Qty
	}
	return n
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. Exactly one of ProductID or
// SurplusBagID is set. UnitPrice and Subtotal are snapshots taken at
// order creation so later price edits never rewrite history.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Product      *Product        `gorm:"foreignKey:ProductID"`
	SurplusBagID *uuid.UUID      `gorm:"column:surplus_bag_id;type:uuid"`
	SurplusBag   *SurplusBag     `gorm:"foreignKey:SurplusBagID"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// IsSurplus reports whether the line points at a surplus bag.
func (i OrderItem) IsSurplus() bool {
	return i.SurplusBagID != nil
}

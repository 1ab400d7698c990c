package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fornihq/forni-backend/pkg/enums"
)

// Order is a customer purchase against a single bakery. TotalAmount is
// always the sum of the item subtotals computed server-side at creation.
//
// SurplusBagID is a legacy convenience column: it is populated when the
// order contains exactly one surplus-bag line, so older clients that
// predate multi-line orders keep working.
type Order struct {
	ID                uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID        uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Customer          *User             `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	BakeryID          uuid.UUID         `gorm:"column:bakery_id;type:uuid;not null;index"`
	Bakery            *Bakery           `gorm:"foreignKey:BakeryID;constraint:OnDelete:CASCADE"`
	SurplusBagID      *uuid.UUID        `gorm:"column:surplus_bag_id;type:uuid"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	PickupCode        string      `gorm:"column:pickup_code;type:text;not null"`
	PickupTime        *time.Time  `gorm:"column:pickup_time"`
	PickupConfirmedAt *time.Time  `gorm:"column:pickup_confirmed_at"`
	PaymentRef        *string     `gorm:"column:payment_ref"`
	Notes             *string     `gorm:"column:notes"`
	Items             []OrderItem `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time   `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// ResourceOwnerID resolves the bakery owner, which is the party allowed
// to mutate order state. Customer reads are authorized separately.
func (o *Order) ResourceOwnerID() uuid.UUID {
	if o.Bakery == nil {
		return uuid.Nil
	}
	return o.Bakery.OwnerID
}

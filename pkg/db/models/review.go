package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer rating of a bakery, optionally tied to the order
// that prompted it. One review per (customer, bakery, surplus bag)
// combination; the bag is derived from the linked order, so a customer
// can review each bag they bought at a bakery once.
type Review struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID   uuid.UUID   `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:idx_reviews_customer_bakery_bag"`
	Customer     *User       `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	BakeryID     uuid.UUID   `gorm:"column:bakery_id;type:uuid;not null;uniqueIndex:idx_reviews_customer_bakery_bag"`
	Bakery       *Bakery     `gorm:"foreignKey:BakeryID;constraint:OnDelete:CASCADE"`
	SurplusBagID *uuid.UUID  `gorm:"column:surplus_bag_id;type:uuid;uniqueIndex:idx_reviews_customer_bakery_bag"`
	SurplusBag   *SurplusBag `gorm:"foreignKey:SurplusBagID"`
	OrderID      *uuid.UUID  `gorm:"column:order_id;type:uuid"`
	Rating       int         `gorm:"column:rating;not null"`
	Comment      *string     `gorm:"column:comment"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

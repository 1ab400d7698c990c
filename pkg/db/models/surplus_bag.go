package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fornihq/forni-backend/pkg/enums"
)

// SurplusBag is a discounted end-of-day bundle with a pickup window and
// a hard quantity cap. QuantityAvailable is only ever decremented with a
// conditional update so concurrent checkouts cannot oversell it.
type SurplusBag struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BakeryID          uuid.UUID       `gorm:"column:bakery_id;type:uuid;not null;index"`
	Bakery            *Bakery         `gorm:"foreignKey:BakeryID;constraint:OnDelete:CASCADE"`
	Title             string          `gorm:"type:text;not null"`
	Description       *string         `gorm:"column:description"`
	Category          *string         `gorm:"column:category;index"`
	Tags              pq.StringArray  `gorm:"column:tags;type:text[]"`
	OriginalValue     decimal.Decimal `gorm:"column:original_value;type:numeric(10,2);not null"`
	SalePrice         decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2);not null"`
	QuantityTotal     int             `gorm:"column:quantity_total;not null"`
	QuantityAvailable int             `gorm:"column:quantity_available;not null"`
	PickupStart       time.Time       `gorm:"column:pickup_start;not null"`
	PickupEnd         time.Time       `gorm:"column:pickup_end;not null"`
	Status            enums.BagStatus `gorm:"column:status;type:text;not null;default:'active';index"`
	ImageURL          *string         `gorm:"column:image_url"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ResourceOwnerID resolves through the bakery, which must be preloaded
// on any path that authorizes against the bag.
func (b *SurplusBag) ResourceOwnerID() uuid.UUID {
	if b.Bakery == nil {
		return uuid.Nil
	}
	return b.Bakery.OwnerID
}

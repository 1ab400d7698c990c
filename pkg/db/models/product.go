package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a regular catalog item sold at full price.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BakeryID    uuid.UUID       `gorm:"column:bakery_id;type:uuid;not null;index"`
	Bakery      *Bakery         `gorm:"foreignKey:BakeryID;constraint:OnDelete:CASCADE"`
	Name        string          `gorm:"type:text;not null"`
	Description *string         `gorm:"column:description"`
	Category    *string         `gorm:"column:category;index"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	Tags        pq.StringArray  `gorm:"column:tags;type:text[]"`
	ImageURL    *string         `gorm:"column:image_url"`
	IsAvailable bool            `gorm:"column:is_available;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ResourceOwnerID resolves through the bakery, which must be preloaded
// on any path that authorizes against the product.
func (p *Product) ResourceOwnerID() uuid.UUID {
	if p.Bakery == nil {
		return uuid.Nil
	}
	return p.Bakery.OwnerID
}

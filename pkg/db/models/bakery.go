package models

import (
	"time"

	"github.com/google/uuid"
)

// Bakery is a seller storefront owned by a single bakery_owner user.
//
// Latitude/Longitude come from explicit input or from the geocoder when
// only an address is supplied. Both are nullable: a bakery with no
// coordinates is simply excluded from nearby queries.
type Bakery struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	Owner        *User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Name         string     `gorm:"type:text;not null"`
	Description  *string    `gorm:"column:description"`
	Address      *string    `gorm:"column:address"`
	City         *string    `gorm:"column:city"`
	PostalCode   *string    `gorm:"column:postal_code"`
	Phone        *string    `gorm:"column:phone"`
	Latitude     *float64   `gorm:"column:latitude"`
	Longitude    *float64   `gorm:"column:longitude"`
	OpeningHours *string    `gorm:"column:opening_hours"`
	ImageURL     *string    `gorm:"column:image_url"`
	AvgRating    float64    `gorm:"column:avg_rating;not null;default:0"`
	RatingCount  int        `gorm:"column:rating_count;not null;default:0"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    *time.Time `gorm:"column:deleted_at;index"`
}

// ResourceOwnerID resolves the owning user for authorization checks.
func (b *Bakery) ResourceOwnerID() uuid.UUID {
	return b.OwnerID
}

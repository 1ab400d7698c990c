package bakery

import (
	"time"

	"github.com/google/uuid"

	"github.com/fornihq/forni-backend/pkg/db/models"
)

// BakeryDTO is the public shape of a bakery storefront.
type BakeryDTO struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Address      *string   `json:"address,omitempty"`
	City         *string   `json:"city,omitempty"`
	PostalCode   *string   `json:"postal_code,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	OpeningHours *string   `json:"opening_hours,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	AvgRating    float64   `json:"avg_rating"`
	RatingCount  int       `json:"rating_count"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`

	// DistanceKm is only populated on nearby queries.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// NewBakeryDTO maps a bakery model into its public shape.
func NewBakeryDTO(bakery *models.Bakery) *BakeryDTO {
	if bakery == nil {
		return nil
	}
	return &BakeryDTO{
		ID:           bakery.ID,
		OwnerID:      bakery.OwnerID,
		Name:         bakery.Name,
		Description:  bakery.Description,
		Address:      bakery.Address,
		City:         bakery.City,
		PostalCode:   bakery.PostalCode,
		Phone:        bakery.Phone,
		Latitude:     bakery.Latitude,
		Longitude:    bakery.Longitude,
		OpeningHours: bakery.OpeningHours,
		ImageURL:     bakery.ImageURL,
		AvgRating:    bakery.AvgRating,
		RatingCount:  bakery.RatingCount,
		IsActive:     bakery.IsActive,
		CreatedAt:    bakery.CreatedAt,
	}
}

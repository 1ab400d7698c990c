package surplusbag

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
)

// BagDTO is the API representation of a surplus bag.
type BagDTO struct {
	ID                uuid.UUID       `json:"id"`
	BakeryID          uuid.UUID       `json:"bakeryId"`
	Title             string          `json:"title"`
	Description       *string         `json:"description,omitempty"`
	Category          *string         `json:"category,omitempty"`
	Tags              []string        `json:"tags"`
	OriginalValue     decimal.Decimal `json:"originalValue"`
	SalePrice         decimal.Decimal `json:"salePrice"`
	QuantityTotal     int             `json:"quantityTotal"`
	QuantityAvailable int             `json:"quantityAvailable"`
	PickupStart       time.Time       `json:"pickupStart"`
	PickupEnd         time.Time       `json:"pickupEnd"`
	Status            enums.BagStatus `json:"status"`
	ImageURL          *string         `json:"imageUrl,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// NewBagDTO maps a SurplusBag model into its API shape.
func NewBagDTO(bag *models.SurplusBag) *BagDTO {
	tags := make([]string, len(bag.Tags))
	copy(tags, bag.Tags)
	return &BagDTO{
		ID:                bag.ID,
		BakeryID:          bag.BakeryID,
		Title:             bag.Title,
		Description:       bag.Description,
		Category:          bag.Category,
		Tags:              tags,
		OriginalValue:     bag.OriginalValue,
		SalePrice:         bag.SalePrice,
		QuantityTotal:     bag.QuantityTotal,
		QuantityAvailable: bag.QuantityAvailable,
		PickupStart:       bag.PickupStart,
		PickupEnd:         bag.PickupEnd,
		Status:            bag.Status,
		ImageURL:          bag.ImageURL,
		CreatedAt:         bag.CreatedAt,
	}
}

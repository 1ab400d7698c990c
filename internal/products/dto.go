package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fornihq/forni-backend/pkg/db/models"
)

// ProductDTO is the public shape of a catalog product.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	BakeryID    uuid.UUID       `json:"bakery_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Tags        []string        `json:"tags"`
	ImageURL    *string         `json:"image_url,omitempty"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewProductDTO maps a product model into its public shape.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	tags := make([]string, 0, len(product.Tags))
	tags = append(tags, product.Tags...)
	return &ProductDTO{
		ID:          product.ID,
		BakeryID:    product.BakeryID,
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Tags:        tags,
		ImageURL:    product.ImageURL,
		IsAvailable: product.IsAvailable,
		CreatedAt:   product.CreatedAt,
	}
}

package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/fornihq/forni-backend/pkg/db/models"
)

// ReviewDTO is the API representation of a review.
type ReviewDTO struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customerId"`
	BakeryID     uuid.UUID  `json:"bakeryId"`
	SurplusBagID *uuid.UUID `json:"surplusBagId,omitempty"`
	OrderID      *uuid.UUID `json:"orderId,omitempty"`
	Rating       int        `json:"rating"`
	Comment      *string    `json:"comment,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// NewReviewDTO maps a Review model into its API shape.
func NewReviewDTO(review *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:           review.ID,
		CustomerID:   review.CustomerID,
		BakeryID:     review.BakeryID,
		SurplusBagID: review.SurplusBagID,
		OrderID:      review.OrderID,
		Rating:       review.Rating,
		Comment:      review.Comment,
		CreatedAt:    review.CreatedAt,
	}
}

package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/internal/authz"
	bakery "github.com/fornihq/forni-backend/internal/bakeries"
	"github.com/fornihq/forni-backend/pkg/db"
	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
)

// Service exposes review operations. Every mutation recomputes the
// bakery's aggregate rating inside the same transaction, so readers
// never observe a rating that disagrees with the review rows.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateReviewInput) (*ReviewDTO, error)
	Update(ctx context.Context, actor authz.Actor, reviewID uuid.UUID, input UpdateReviewInput) (*ReviewDTO, error)
	Delete(ctx context.Context, actor authz.Actor, reviewID uuid.UUID) error
	Get(ctx context.Context, reviewID uuid.UUID) (*ReviewDTO, error)
	ListByBakery(ctx context.Context, bakeryID uuid.UUID) ([]ReviewDTO, error)
}

// CreateReviewInput holds the validated payload to create a review.
type CreateReviewInput struct {
	BakeryID uuid.UUID
	OrderID  *uuid.UUID
	Rating   int
	Comment  *string
}

// UpdateReviewInput holds optional mutation values for a review.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

type service struct {
	db       *db.Client
	reviews  *Repository
	bakeries *bakery.Repository
}

// NewService constructs the review service.
func NewService(client *db.Client, reviews *Repository, bakeries *bakery.Repository) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if reviews == nil || bakeries == nil {
		return nil, fmt.Errorf("review and bakery repositories required")
	}
	return &service{db: client, reviews: reviews, bakeries: bakeries}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateReviewInput) (*ReviewDTO, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	var created *models.Review
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		reviews := s.reviews.WithTx(tx)

		bagID, err := s.resolveOrderLink(ctx, reviews, actor, input)
		if err != nil {
			return err
		}

		if _, err := reviews.FindExisting(ctx, actor.UserID, input.BakeryID, bagID); err == nil {
			return duplicateReviewError(bagID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check existing review")
		}

		review := &models.Review{
			ID:           uuid.New(),
			CustomerID:   actor.UserID,
			BakeryID:     input.BakeryID,
			SurplusBagID: bagID,
			OrderID:      input.OrderID,
			Rating:       input.Rating,
			Comment:      trimComment(input.Comment),
		}
		created, err = reviews.Create(ctx, review)
		if err != nil {
			if db.IsUniqueViolation(err, "idx_reviews_customer_bakery_bag") {
				return duplicateReviewError(bagID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert review")
		}
		return s.recomputeRating(ctx, tx, input.BakeryID)
	})
	if err != nil {
		return nil, err
	}
	return NewReviewDTO(created), nil
}

// resolveOrderLink validates the order a review points at and returns
// the surplus bag that order was for. The bag, not the client, decides
// which review slot the customer fills. Without an order link the
// customer still needs at least one completed order at the bakery.
func (s *service) resolveOrderLink(ctx context.Context, reviews *Repository, actor authz.Actor, input CreateReviewInput) (*uuid.UUID, error) {
	if input.OrderID == nil {
		hasOrder, err := reviews.HasCompletedOrder(ctx, actor.UserID, input.BakeryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check completed orders")
		}
		if !hasOrder {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviews require a completed order at this bakery")
		}
		return nil, nil
	}

	order, err := reviews.FindOrder(ctx, *input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	switch {
	case order.CustomerID != actor.UserID:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	case order.BakeryID != input.BakeryID:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is for a different bakery")
	case order.Status != enums.OrderStatusCompleted:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not completed")
	}
	return order.SurplusBagID, nil
}

func duplicateReviewError(bagID *uuid.UUID) error {
	if bagID != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this surplus bag")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this bakery")
}

func (s *service) Update(ctx context.Context, actor authz.Actor, reviewID uuid.UUID, input UpdateReviewInput) (*ReviewDTO, error) {
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
	}

	var updated *models.Review
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		reviews := s.reviews.WithTx(tx)
		review, err := s.loadReview(ctx, reviews, reviewID)
		if err != nil {
			return err
		}
		if err := requireAuthorOrAdmin(actor, review); err != nil {
			return err
		}

		if input.Rating != nil {
			review.Rating = *input.Rating
		}
		if input.Comment != nil {
			review.Comment = trimComment(input.Comment)
		}
		updated, err = reviews.Update(ctx, review)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update review")
		}
		return s.recomputeRating(ctx, tx, review.BakeryID)
	})
	if err != nil {
		return nil, err
	}
	return NewReviewDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, reviewID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		reviews := s.reviews.WithTx(tx)
		review, err := s.loadReview(ctx, reviews, reviewID)
		if err != nil {
			return err
		}
		if err := requireAuthorOrAdmin(actor, review); err != nil {
			return err
		}
		if err := reviews.Delete(ctx, reviewID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete review")
		}
		return s.recomputeRating(ctx, tx, review.BakeryID)
	})
}

func (s *service) Get(ctx context.Context, reviewID uuid.UUID) (*ReviewDTO, error) {
	review, err := s.loadReview(ctx, s.reviews, reviewID)
	if err != nil {
		return nil, err
	}
	return NewReviewDTO(review), nil
}

func (s *service) ListByBakery(ctx context.Context, bakeryID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.reviews.ListByBakery(ctx, bakeryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reviews")
	}
	dtos := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewReviewDTO(&rows[i]))
	}
	return dtos, nil
}

func (s *service) recomputeRating(ctx context.Context, tx *gorm.DB, bakeryID uuid.UUID) error {
	avg, count, err := s.reviews.WithTx(tx).RatingStats(ctx, bakeryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: compute rating stats")
	}
	if err := s.bakeries.WithTx(tx).UpdateRating(ctx, bakeryID, avg, count); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update bakery rating")
	}
	return nil
}

func (s *service) loadReview(ctx context.Context, reviews *Repository, id uuid.UUID) (*models.Review, error) {
	review, err := reviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load review")
	}
	return review, nil
}

func requireAuthorOrAdmin(actor authz.Actor, review *models.Review) error {
	if actor.IsAdmin() || actor.UserID == review.CustomerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "you can only modify your own reviews")
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

func trimComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

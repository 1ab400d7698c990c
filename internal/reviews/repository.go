package review

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
)

// Repository provides review persistence on top of GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a Repository bound to the given connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a single review.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindExisting loads the customer's review occupying the
// (bakery, surplus bag) slot, if any. A nil bag selects the bakery-level
// review, which exists at most once per customer.
func (r *Repository) FindExisting(ctx context.Context, customerID, bakeryID uuid.UUID, bagID *uuid.UUID) (*models.Review, error) {
	query := r.db.WithContext(ctx).
		Where("customer_id = ? AND bakery_id = ?", customerID, bakeryID)
	if bagID != nil {
		query = query.Where("surplus_bag_id = ?", *bagID)
	} else {
		query = query.Where("surplus_bag_id IS NULL")
	}

	var review models.Review
	if err := query.First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindOrder loads the order a review claims to come from.
func (r *Repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByBakery returns a bakery's reviews, newest first.
func (r *Repository) ListByBakery(ctx context.Context, bakeryID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("bakery_id = ?", bakeryID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// Create inserts a review row.
func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// Update persists all fields of an already-loaded review.
func (r *Repository) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id).Error
}

// RatingStats computes the current mean rating and review count for a
// bakery. A bakery with no reviews reports 0.0 and 0.
func (r *Repository) RatingStats(ctx context.Context, bakeryID uuid.UUID) (float64, int, error) {
	var stats struct {
		Avg   float64
		Count int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("bakery_id = ?", bakeryID).
		Scan(&stats).Error
	return stats.Avg, stats.Count, err
}

// HasCompletedOrder reports whether the customer has at least one
// completed order at the bakery.
func (r *Repository) HasCompletedOrder(ctx context.Context, customerID, bakeryID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ? AND bakery_id = ? AND status = ?", customerID, bakeryID, enums.OrderStatusCompleted).
		Count(&count).Error
	return count > 0, err
}

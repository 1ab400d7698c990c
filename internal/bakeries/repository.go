package bakery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/pkg/db/models"
)

// Repository owns persistence for bakery storefronts.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads an undeleted bakery.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bakery, error) {
	var bakery models.Bakery
	if err := r.db.WithContext(ctx).
		First(&bakery, "id = ? AND deleted_at IS NULL", id).
		Error; err != nil {
		return nil, err
	}
	return &bakery, nil
}

// FindByOwner returns the owner's bakeries, newest first.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Bakery, error) {
	var rows []models.Bakery
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListActive returns all active bakeries, newest first.
func (r *Repository) ListActive(ctx context.Context) ([]models.Bakery, error) {
	var rows []models.Bakery
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND deleted_at IS NULL", true).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListActiveWithCoordinates returns active bakeries that can be placed
// on a map. Bakeries without coordinates never appear in nearby results.
func (r *Repository) ListActiveWithCoordinates(ctx context.Context) ([]models.Bakery, error) {
	var rows []models.Bakery
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND deleted_at IS NULL AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&rows).
		Error
	return rows, err
}

// ListByProductTag returns active bakeries selling at least one available
// product carrying the tag.
func (r *Repository) ListByProductTag(ctx context.Context, tag string) ([]models.Bakery, error) {
	var rows []models.Bakery
	err := r.db.WithContext(ctx).
		Distinct("bakeries.*").
		Joins("JOIN products ON products.bakery_id = bakeries.id").
		Where("bakeries.is_active = ? AND bakeries.deleted_at IS NULL", true).
		Where("products.is_available = ?", true).
		Where("? = ANY(products.tags)", tag).
		Find(&rows).
		Error
	return rows, err
}

// Create inserts a new bakery row.
func (r *Repository) Create(ctx context.Context, bakery *models.Bakery) (*models.Bakery, error) {
	if err := r.db.WithContext(ctx).Create(bakery).Error; err != nil {
		return nil, err
	}
	return bakery, nil
}

// Update saves the full bakery row.
func (r *Repository) Update(ctx context.Context, bakery *models.Bakery) (*models.Bakery, error) {
	if err := r.db.WithContext(ctx).Save(bakery).Error; err != nil {
		return nil, err
	}
	return bakery, nil
}

// SoftDelete marks the bakery deleted without dropping history.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Bakery{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{"deleted_at": at, "is_active": false}).
		Error
}

// UpdateRating overwrites the cached rating aggregate.
func (r *Repository) UpdateRating(ctx context.Context, id uuid.UUID, avg float64, count int) error {
	return r.db.WithContext(ctx).
		Model(&models.Bakery{}).
		Where("id = ?", id).
		Updates(map[string]any{"avg_rating": avg, "rating_count": count}).
		Error
}

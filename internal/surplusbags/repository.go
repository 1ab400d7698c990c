package surplusbag

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
)

// Repository provides surplus bag persistence on top of GORM.
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

// FindByID loads a bag with its bakery preloaded for ownership checks.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SurplusBag, error) {
	var bag models.SurplusBag
	err := r.db.WithContext(ctx).
		Preload("Bakery").
		First(&bag, "surplus_bags.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bag, nil
}

// ListByBakery returns every bag for a bakery, newest first.
func (r *Repository) ListByBakery(ctx context.Context, bakeryID uuid.UUID) ([]models.SurplusBag, error) {
	var bags []models.SurplusBag
	err := r.db.WithContext(ctx).
		Where("bakery_id = ?", bakeryID).
		Order("created_at DESC").
		Find(&bags).Error
	return bags, err
}

// ListActive returns bags still open for ordering. Tag filtering happens
// in the service so the semantics stay identical across datastores.
func (r *Repository) ListActive(ctx context.Context) ([]models.SurplusBag, error) {
	var bags []models.SurplusBag
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.BagStatusActive).
		Order("pickup_start ASC").
		Find(&bags).Error
	return bags, err
}

// ListActiveInStock returns up to limit active bags with stock remaining,
// soonest pickup first. An empty bakeryIDs slice means no bakery filter.
func (r *Repository) ListActiveInStock(ctx context.Context, bakeryIDs []uuid.UUID, limit int) ([]models.SurplusBag, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.BagStatusActive).
		Where("quantity_available > 0")
	if len(bakeryIDs) > 0 {
		query = query.Where("bakery_id IN ?", bakeryIDs)
	}
	var bags []models.SurplusBag
	err := query.Order("pickup_start ASC").Limit(limit).Find(&bags).Error
	return bags, err
}

// Create inserts a bag row.
func (r *Repository) Create(ctx context.Context, bag *models.SurplusBag) (*models.SurplusBag, error) {
	if err := r.db.WithContext(ctx).Create(bag).Error; err != nil {
		return nil, err
	}
	return bag, nil
}

// Update persists all fields of an already-loaded bag.
func (r *Repository) Update(ctx context.Context, bag *models.SurplusBag) (*models.SurplusBag, error) {
	if err := r.db.WithContext(ctx).Save(bag).Error; err != nil {
		return nil, err
	}
	return bag, nil
}

// Delete removes a bag row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.SurplusBag{}, "id = ?", id).Error
}

// DecrementAvailable atomically takes qty units off a bag's available
// stock. The predicate makes a losing concurrent request touch zero rows,
// which the caller maps to a conflict instead of overselling.
func (r *Repository) DecrementAvailable(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SurplusBag{}).
		Where("id = ? AND quantity_available >= ?", id, qty).
		UpdateColumn("quantity_available", gorm.Expr("quantity_available - ?", qty))
	return result.RowsAffected, result.Error
}

// MarkSoldOutIfEmpty flips a bag to sold_out once its stock hits zero.
func (r *Repository) MarkSoldOutIfEmpty(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SurplusBag{}).
		Where("id = ? AND quantity_available = 0", id).
		UpdateColumn("status", enums.BagStatusSoldOut).Error
}

// Restock returns qty units to a bag and reactivates it if the earlier
// sale had flipped it to sold_out.
func (r *Repository) Restock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.SurplusBag{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"quantity_available": gorm.Expr("quantity_available + ?", qty),
			"status":             gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END", enums.BagStatusSoldOut, enums.BagStatusActive),
		}).Error
}

// ExpireLapsed flips active bags whose pickup window closed before now.
func (r *Repository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SurplusBag{}).
		Where("status = ? AND pickup_end < ?", enums.BagStatusActive, now).
		UpdateColumn("status", enums.BagStatusExpired)
	return result.RowsAffected, result.Error
}

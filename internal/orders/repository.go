package order

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/pagination"
)

// Repository provides order persistence on top of GORM.
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

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its items and bakery preloaded. The
// bakery is needed for ownership checks on mutation paths.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Bakery").
		First(&order, "orders.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListScope restricts a paginated listing to one side of the market.
// Zero-value scope means no restriction (admin).
type ListScope struct {
	CustomerID *uuid.UUID
	BakeryIDs  []uuid.UUID
}

// List returns orders newest first using keyset pagination on
// (created_at, id). It fetches one extra row so the caller can tell
// whether another page exists.
func (r *Repository) List(ctx context.Context, scope ListScope, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if scope.CustomerID != nil {
		query = query.Where("customer_id = ?", *scope.CustomerID)
	}
	if len(scope.BakeryIDs) > 0 {
		query = query.Where("bakery_id IN ?", scope.BakeryIDs)
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.Order
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&orders).Error
	return orders, err
}

// BakeryIDsByCustomer returns the distinct bakeries the customer has
// ordered from.
func (r *Repository) BakeryIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ?", customerID).
		Distinct().
		Pluck("bakery_id", &ids).Error
	return ids, err
}

// Update persists a status change and any stamped fields.
func (r *Repository) Update(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "Bakery", "Customer").Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

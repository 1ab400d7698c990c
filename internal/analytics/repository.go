package analytics

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/pkg/enums"
)

// SurplusLine is one completed surplus-bag order line together with the
// bag's price points at query time.
type SurplusLine struct {
	OriginalValue decimal.Decimal
	SalePrice     decimal.Decimal
	Quantity      int
}

// Repository reads aggregate-ready order data.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a Repository bound to the given connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CompletedSurplusLines returns the surplus-bag lines of completed
// orders. An empty bakeryIDs slice means no bakery restriction. The
// summation happens in the service so the money math stays in decimals
// instead of whatever the datastore's SUM returns.
func (r *Repository) CompletedSurplusLines(ctx context.Context, bakeryIDs []uuid.UUID) ([]SurplusLine, error) {
	query := r.db.WithContext(ctx).
		Table("order_items").
		Select("surplus_bags.original_value, surplus_bags.sale_price, order_items.quantity").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN surplus_bags ON surplus_bags.id = order_items.surplus_bag_id").
		Where("orders.status = ?", enums.OrderStatusCompleted)
	if len(bakeryIDs) > 0 {
		query = query.Where("orders.bakery_id IN ?", bakeryIDs)
	}

	var lines []SurplusLine
	err := query.Scan(&lines).Error
	return lines, err
}

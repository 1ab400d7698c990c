package order

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fornihq/forni-backend/internal/authz"
	bakery "github.com/fornihq/forni-backend/internal/bakeries"
	product "github.com/fornihq/forni-backend/internal/products"
	surplusbag "github.com/fornihq/forni-backend/internal/surplusbags"
	"github.com/fornihq/forni-backend/pkg/config"
	"github.com/fornihq/forni-backend/pkg/db"
	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/pagination"
	"github.com/fornihq/forni-backend/pkg/security"
)

// PickupCodeLength is the length of the code handed to the customer at
// order creation and read back at the counter.
const PickupCodeLength = 8

// Service exposes the order engine.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateOrderInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor authz.Actor, orderID uuid.UUID, status string) (*OrderDTO, error)
	ConfirmPickup(ctx context.Context, actor authz.Actor, orderID uuid.UUID, code string) (*OrderDTO, error)
	Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, actor authz.Actor, params pagination.Params) (*OrderPageDTO, error)
}

// LineInput is one requested cart line. Exactly one of ProductID or
// SurplusBagID must be set.
type LineInput struct {
	ProductID    *uuid.UUID
	SurplusBagID *uuid.UUID
	Quantity     int
}

// CreateOrderInput holds the validated payload to create an order.
type CreateOrderInput struct {
	BakeryID   uuid.UUID
	Lines      []LineInput
	PickupTime *string
	PaymentRef *string
	Notes      *string
}

// ServiceParams collects the order service dependencies.
type ServiceParams struct {
	DB           *db.Client
	Orders       *Repository
	Products     *product.Repository
	Bags         *surplusbag.Repository
	Bakeries     *bakery.Repository
	FeatureFlags config.FeatureFlagsConfig
}

type service struct {
	db       *db.Client
	orders   *Repository
	products *product.Repository
	bags     *surplusbag.Repository
	bakeries *bakery.Repository
	flags    config.FeatureFlagsConfig
	clock    func() time.Time
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Orders == nil || params.Products == nil || params.Bags == nil || params.Bakeries == nil {
		return nil, fmt.Errorf("order, product, surplus bag and bakery repositories required")
	}
	return &service{
		db:       params.DB,
		orders:   params.Orders,
		products: params.Products,
		bags:     params.Bags,
		bakeries: params.Bakeries,
		flags:    params.FeatureFlags,
		clock:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// resolvedLine is a cart line with its price snapshot taken.
type resolvedLine struct {
	productID    *uuid.UUID
	surplusBagID *uuid.UUID
	quantity     int
	unitPrice    decimal.Decimal
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateOrderInput) (*OrderDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be at least 1")
		}
		if (line.ProductID == nil) == (line.SurplusBagID == nil) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each line must reference exactly one of a product or a surplus bag")
		}
	}

	pickupTime, err := parsePickupTime(input.PickupTime)
	if err != nil {
		return nil, err
	}

	pickupCode, err := security.GeneratePickupCode(PickupCodeLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate pickup code")
	}

	var created *models.Order
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		bakeries := s.bakeries.WithTx(tx)
		if _, err := bakeries.FindByID(ctx, input.BakeryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bakery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load bakery")
		}

		lines, err := s.resolveLines(ctx, tx, input)
		if err != nil {
			return err
		}

		bags := s.bags.WithTx(tx)
		for _, line := range lines {
			if line.surplusBagID == nil {
				continue
			}
			// The conditional decrement is the only stock mutation;
			// a concurrent order that already took the units leaves
			// zero rows affected here.
			affected, err := bags.DecrementAvailable(ctx, *line.surplusBagID, line.quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement surplus bag stock")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "surplus bag stock changed, please retry")
			}
			if err := bags.MarkSoldOutIfEmpty(ctx, *line.surplusBagID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark surplus bag sold out")
			}
		}

		order := buildOrder(actor.UserID, input, lines, pickupCode, pickupTime)
		created, err = s.orders.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(created), nil
}

func (s *service) resolveLines(ctx context.Context, tx *gorm.DB, input CreateOrderInput) ([]resolvedLine, error) {
	products := s.products.WithTx(tx)
	bags := s.bags.WithTx(tx)

	lines := make([]resolvedLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		resolved := resolvedLine{
			productID:    line.ProductID,
			surplusBagID: line.SurplusBagID,
			quantity:     line.Quantity,
		}
		switch {
		case line.ProductID != nil:
			prod, err := products.FindByID(ctx, *line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
			}
			if prod.BakeryID != input.BakeryID {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to the order's bakery")
			}
			if !prod.IsAvailable {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
			}
			resolved.unitPrice = prod.Price
		case line.SurplusBagID != nil:
			bag, err := bags.FindByID(ctx, *line.SurplusBagID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "surplus bag not found")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load surplus bag")
			}
			if bag.BakeryID != input.BakeryID {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "surplus bag does not belong to the order's bakery")
			}
			if bag.Status != enums.BagStatusActive {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "surplus bag is no longer active")
			}
			if bag.QuantityAvailable < line.Quantity {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
			}
			resolved.unitPrice = bag.SalePrice
		}
		lines = append(lines, resolved)
	}
	return lines, nil
}

func buildOrder(customerID uuid.UUID, input CreateOrderInput, lines []resolvedLine, pickupCode string, pickupTime *time.Time) *models.Order {
	orderID := uuid.New()
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	var bagLineIDs []uuid.UUID
	for _, line := range lines {
		subtotal := line.unitPrice.Mul(decimal.NewFromInt(int64(line.quantity)))
		total = total.Add(subtotal)
		items = append(items, models.OrderItem{
			ID:           uuid.New(),
			OrderID:      orderID,
			ProductID:    line.productID,
			SurplusBagID: line.surplusBagID,
			Quantity:     line.quantity,
			UnitPrice:    line.unitPrice,
			Subtotal:     subtotal,
		})
		if line.surplusBagID != nil {
			bagLineIDs = append(bagLineIDs, *line.surplusBagID)
		}
	}

	order := &models.Order{
		ID:          orderID,
		CustomerID:  customerID,
		BakeryID:    input.BakeryID,
		Status:      enums.OrderStatusPending,
		TotalAmount: total,
		PickupCode:  pickupCode,
		PickupTime:  pickupTime,
		PaymentRef:  input.PaymentRef,
		Notes:       input.Notes,
		Items:       items,
	}
	// Older clients predate multi-line orders and read a single bag id
	// off the order itself.
	if len(bagLineIDs) == 1 {
		order.SurplusBagID = &bagLineIDs[0]
	}
	return order
}

func (s *service) UpdateStatus(ctx context.Context, actor authz.Actor, orderID uuid.UUID, status string) (*OrderDTO, error) {
	if status == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}
	next := enums.OrderStatus(status)

	var updated *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		order, err := s.loadOrder(ctx, orders, orderID)
		if err != nil {
			return err
		}
		if err := authz.RequireOwnerOrAdmin(actor, order); err != nil {
			return err
		}

		if s.flags.RestockOnCancel &&
			next == enums.OrderStatusCancelled &&
			order.Status != enums.OrderStatusCancelled {
			bags := s.bags.WithTx(tx)
			for _, item := range order.Items {
				if !item.IsSurplus() {
					continue
				}
				if err := bags.Restock(ctx, *item.SurplusBagID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restock surplus bag")
				}
			}
		}

		order.Status = next
		updated, err = orders.Update(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(updated), nil
}

func (s *service) ConfirmPickup(ctx context.Context, actor authz.Actor, orderID uuid.UUID, code string) (*OrderDTO, error) {
	var updated *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		order, err := s.loadOrder(ctx, orders, orderID)
		if err != nil {
			return err
		}
		if err := authz.RequireOwnerOrAdmin(actor, order); err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeConflict, "a cancelled order cannot be picked up")
		}
		if order.PickupConfirmedAt != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "pickup already confirmed")
		}
		if subtle.ConstantTimeCompare([]byte(order.PickupCode), []byte(code)) != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "pickup code does not match")
		}

		now := s.clock()
		order.PickupConfirmedAt = &now
		order.Status = enums.OrderStatusCompleted
		updated, err = orders.Update(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(updated), nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, s.orders, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != order.CustomerID && actor.UserID != order.ResourceOwnerID() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have access to this order")
	}
	return NewOrderDTO(order), nil
}

func (s *service) List(ctx context.Context, actor authz.Actor, params pagination.Params) (*OrderPageDTO, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		cursor = parsed
	}

	scope, empty, err := s.listScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if empty {
		return &OrderPageDTO{Orders: []OrderDTO{}}, nil
	}

	rows, err := s.orders.List(ctx, scope, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	page, hasMore := pagination.TrimPage(rows, limit)
	dtos := make([]OrderDTO, 0, len(page))
	for i := range page {
		dtos = append(dtos, *NewOrderDTO(&page[i]))
	}

	result := &OrderPageDTO{Orders: dtos}
	if hasMore {
		last := page[len(page)-1]
		result.NextCursor = pagination.NextCursor(hasMore, last.CreatedAt, last.ID)
	}
	return result, nil
}

// listScope restricts listing visibility by role. The empty flag is set
// for a bakery owner with no bakeries, whose page is trivially empty.
func (s *service) listScope(ctx context.Context, actor authz.Actor) (ListScope, bool, error) {
	switch {
	case actor.IsAdmin():
		return ListScope{}, false, nil
	case actor.Role == enums.UserRoleBakeryOwner:
		owned, err := s.bakeries.FindByOwner(ctx, actor.UserID)
		if err != nil {
			return ListScope{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list owned bakeries")
		}
		if len(owned) == 0 {
			return ListScope{}, true, nil
		}
		ids := make([]uuid.UUID, 0, len(owned))
		for _, b := range owned {
			ids = append(ids, b.ID)
		}
		return ListScope{BakeryIDs: ids}, false, nil
	default:
		customerID := actor.UserID
		return ListScope{CustomerID: &customerID}, false, nil
	}
}

func (s *service) loadOrder(ctx context.Context, orders *Repository, id uuid.UUID) (*models.Order, error) {
	order, err := orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return order, nil
}

func parsePickupTime(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup_time must be RFC 3339")
	}
	utc := parsed.UTC()
	return &utc, nil
}

package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
)

// OrderItemDTO is the API representation of one order line.
type OrderItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    *uuid.UUID      `json:"productId,omitempty"`
	SurplusBagID *uuid.UUID      `json:"surplusBagId,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	CustomerID        uuid.UUID         `json:"customerId"`
	BakeryID          uuid.UUID         `json:"bakeryId"`
	SurplusBagID      *uuid.UUID        `json:"surplusBagId,omitempty"`
	Status            enums.OrderStatus `json:"status"`
	TotalAmount       decimal.Decimal   `json:"totalAmount"`
	PickupCode        string            `json:"pickupCode"`
	PickupTime        *time.Time        `json:"pickupTime,omitempty"`
	PickupConfirmedAt *time.Time        `json:"pickupConfirmedAt,omitempty"`
	PaymentRef        *string           `json:"paymentRef,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
	Items             []OrderItemDTO    `json:"items"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// OrderPageDTO wraps a listing page with its continuation cursor.
type OrderPageDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// NewOrderDTO maps an Order model into its API shape.
func NewOrderDTO(order *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:           item.ID,
			ProductID:    item.ProductID,
			SurplusBagID: item.SurplusBagID,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Subtotal:     item.Subtotal,
		})
	}
	return &OrderDTO{
		ID:                order.ID,
		CustomerID:        order.CustomerID,
		BakeryID:          order.BakeryID,
		SurplusBagID:      order.SurplusBagID,
		Status:            order.Status,
		TotalAmount:       order.TotalAmount,
		PickupCode:        order.PickupCode,
		PickupTime:        order.PickupTime,
		PickupConfirmedAt: order.PickupConfirmedAt,
		PaymentRef:        order.PaymentRef,
		Notes:             order.Notes,
		Items:             items,
		CreatedAt:         order.CreatedAt,
	}
}

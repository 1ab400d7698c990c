package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fornihq/forni-backend/api/responses"
	"github.com/fornihq/forni-backend/api/validators"
	ordersvc "github.com/fornihq/forni-backend/internal/orders"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/logger"
	"github.com/fornihq/forni-backend/pkg/pagination"
)

type orderLineRequest struct {
	ProductID    *string `json:"product_id,omitempty" validate:"omitempty,uuid"`
	SurplusBagID *string `json:"surplus_bag_id,omitempty" validate:"omitempty,uuid"`
	Quantity     int     `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	BakeryID   string             `json:"bakery_id" validate:"required,uuid"`
	Items      []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	PickupTime *string            `json:"pickup_time,omitempty"`
	PaymentRef *string            `json:"payment_ref,omitempty"`
	Notes      *string            `json:"notes,omitempty"`
}

func (o createOrderRequest) toInput() (ordersvc.CreateOrderInput, error) {
	bakeryID, err := uuid.Parse(o.BakeryID)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bakery id")
	}
	lines := make([]ordersvc.LineInput, 0, len(o.Items))
	for _, item := range o.Items {
		line := ordersvc.LineInput{Quantity: item.Quantity}
		if item.ProductID != nil {
			id, err := uuid.Parse(*item.ProductID)
			if err != nil {
				return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
			}
			line.ProductID = &id
		}
		if item.SurplusBagID != nil {
			id, err := uuid.Parse(*item.SurplusBagID)
			if err != nil {
				return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid surplus bag id")
			}
			line.SurplusBagID = &id
		}
		lines = append(lines, line)
	}
	return ordersvc.CreateOrderInput{
		BakeryID:   bakeryID,
		Lines:      lines,
		PickupTime: o.PickupTime,
		PaymentRef: o.PaymentRef,
		Notes:      o.Notes,
	}, nil
}

// OrderCreate places an order, settling stock inside one transaction.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderList pages through the orders visible to the caller.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), actor, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// OrderGet returns one order visible to the caller.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderUpdateStatus transitions an order's status; bakery owner or admin only.
func OrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The datastore accepts any status string for forward
		// compatibility; flag the ones outside the canonical set.
		if _, err := enums.ParseOrderStatus(body.Status); err != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "status", body.Status), "order status outside canonical set")
		}

		order, err := svc.UpdateStatus(r.Context(), actor, orderID, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type confirmPickupRequest struct {
	PickupCode string `json:"pickup_code" validate:"required"`
}

// OrderConfirmPickup completes an order after verifying the pickup code.
func OrderConfirmPickup(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body confirmPickupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmPickup(r.Context(), actor, orderID, body.PickupCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

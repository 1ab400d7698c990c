package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fornihq/forni-backend/api/middleware"
	"github.com/fornihq/forni-backend/internal/authz"
	ordersvc "github.com/fornihq/forni-backend/internal/orders"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/logger"
	"github.com/fornihq/forni-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func authedContext(ctx context.Context, userID uuid.UUID, role enums.UserRole) context.Context {
	ctx = middleware.WithUserID(ctx, userID.String())
	return middleware.WithRole(ctx, string(role))
}

func withOrderParam(ctx context.Context, orderID string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}

func TestOrderCreate(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	bakeryID := uuid.New()
	bagID := uuid.New()

	t.Run("missing user context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/order", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		OrderCreate(&stubOrderService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without user context, got %d", rec.Code)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		body := `{"bakery_id":"` + bakeryID.String() + `","items":[],"bogus":1}`
		req := httptest.NewRequest(http.MethodPost, "/order", strings.NewReader(body))
		req = req.WithContext(authedContext(req.Context(), userID, enums.UserRoleCustomer))
		rec := httptest.NewRecorder()
		OrderCreate(&stubOrderService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for unknown field, got %d", rec.Code)
		}
	})

	t.Run("rejects empty cart before touching the service", func(t *testing.T) {
		body := `{"bakery_id":"` + bakeryID.String() + `","items":[]}`
		req := httptest.NewRequest(http.MethodPost, "/order", strings.NewReader(body))
		req = req.WithContext(authedContext(req.Context(), userID, enums.UserRoleCustomer))
		stub := &stubOrderService{}
		rec := httptest.NewRecorder()
		OrderCreate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for empty cart, got %d", rec.Code)
		}
		if stub.createCalls != 0 {
			t.Fatalf("service should not be called on validation failure")
		}
	})

	t.Run("success", func(t *testing.T) {
		body := `{"bakery_id":"` + bakeryID.String() + `","items":[{"surplus_bag_id":"` + bagID.String() + `","quantity":2}]}`
		req := httptest.NewRequest(http.MethodPost, "/order", strings.NewReader(body))
		req = req.WithContext(authedContext(req.Context(), userID, enums.UserRoleCustomer))
		stub := &stubOrderService{}
		rec := httptest.NewRecorder()
		OrderCreate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.createCalls != 1 {
			t.Fatalf("expected one service call, got %d", stub.createCalls)
		}
		if stub.lastInput.BakeryID != bakeryID {
			t.Fatalf("bakery id not forwarded")
		}
		if len(stub.lastInput.Lines) != 1 || stub.lastInput.Lines[0].SurplusBagID == nil {
			t.Fatalf("surplus bag line not forwarded: %+v", stub.lastInput.Lines)
		}
	})
}

func TestOrderConfirmPickup(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("invalid order id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/order/nope/confirm-pickup", strings.NewReader(`{"pickup_code":"ABC"}`))
		ctx := authedContext(req.Context(), userID, enums.UserRoleBakeryOwner)
		req = req.WithContext(withOrderParam(ctx, "nope"))
		rec := httptest.NewRecorder()
		OrderConfirmPickup(&stubOrderService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for bad id, got %d", rec.Code)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/order/"+orderID.String()+"/confirm-pickup", strings.NewReader(`{}`))
		ctx := authedContext(req.Context(), userID, enums.UserRoleBakeryOwner)
		req = req.WithContext(withOrderParam(ctx, orderID.String()))
		rec := httptest.NewRecorder()
		OrderConfirmPickup(&stubOrderService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for missing code, got %d", rec.Code)
		}
	})

	t.Run("service error surfaces", func(t *testing.T) {
		stub := &stubOrderService{confirmErr: pkgerrors.New(pkgerrors.CodeValidation, "pickup code does not match")}
		req := httptest.NewRequest(http.MethodPost, "/order/"+orderID.String()+"/confirm-pickup", strings.NewReader(`{"pickup_code":"WRONG"}`))
		ctx := authedContext(req.Context(), userID, enums.UserRoleBakeryOwner)
		req = req.WithContext(withOrderParam(ctx, orderID.String()))
		rec := httptest.NewRecorder()
		OrderConfirmPickup(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 from service, got %d", rec.Code)
		}
		var payload struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Message != "pickup code does not match" {
			t.Fatalf("unexpected message %q", payload.Error.Message)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubOrderService{}
		req := httptest.NewRequest(http.MethodPost, "/order/"+orderID.String()+"/confirm-pickup", strings.NewReader(`{"pickup_code":"ABCD2345"}`))
		ctx := authedContext(req.Context(), userID, enums.UserRoleBakeryOwner)
		req = req.WithContext(withOrderParam(ctx, orderID.String()))
		rec := httptest.NewRecorder()
		OrderConfirmPickup(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.confirmedCode != "ABCD2345" {
			t.Fatalf("code not forwarded, got %q", stub.confirmedCode)
		}
	})
}

func TestOrderUpdateStatus(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("canonical status forwarded", func(t *testing.T) {
		stub := &stubOrderService{}
		req := httptest.NewRequest(http.MethodPut, "/order/"+orderID.String(), strings.NewReader(`{"status":"completed"}`))
		ctx := authedContext(req.Context(), userID, enums.UserRoleBakeryOwner)
		req = req.WithContext(withOrderParam(ctx, orderID.String()))
		rec := httptest.NewRecorder()
		OrderUpdateStatus(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.lastStatus != "completed" {
			t.Fatalf("status not forwarded, got %q", stub.lastStatus)
		}
	})

	t.Run("non-canonical status still passes through", func(t *testing.T) {
		stub := &stubOrderService{}
		req := httptest.NewRequest(http.MethodPut, "/order/"+orderID.String(), strings.NewReader(`{"status":"ready_for_pickup"}`))
		ctx := authedContext(req.Context(), userID, enums.UserRoleBakeryOwner)
		req = req.WithContext(withOrderParam(ctx, orderID.String()))
		rec := httptest.NewRecorder()
		OrderUpdateStatus(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for non-canonical status, got %d", rec.Code)
		}
		if stub.lastStatus != "ready_for_pickup" {
			t.Fatalf("status not forwarded, got %q", stub.lastStatus)
		}
	})
}

type stubOrderService struct {
	createCalls   int
	lastInput     ordersvc.CreateOrderInput
	lastStatus    string
	confirmErr    error
	confirmedCode string
}

func (s *stubOrderService) Create(ctx context.Context, actor authz.Actor, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
	s.createCalls++
	s.lastInput = input
	return &ordersvc.OrderDTO{ID: uuid.New()}, nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, actor authz.Actor, orderID uuid.UUID, status string) (*ordersvc.OrderDTO, error) {
	s.lastStatus = status
	return &ordersvc.OrderDTO{ID: orderID}, nil
}

func (s *stubOrderService) ConfirmPickup(ctx context.Context, actor authz.Actor, orderID uuid.UUID, code string) (*ordersvc.OrderDTO, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	s.confirmedCode = code
	return &ordersvc.OrderDTO{ID: orderID}, nil
}

func (s *stubOrderService) Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{ID: orderID}, nil
}

func (s *stubOrderService) List(ctx context.Context, actor authz.Actor, params pagination.Params) (*ordersvc.OrderPageDTO, error) {
	return &ordersvc.OrderPageDTO{}, nil
}

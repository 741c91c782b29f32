package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersvc "github.com/jmcastellanos/tienda-backend/internal/orders"
	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	"github.com/jmcastellanos/tienda-backend/pkg/enums"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
	"github.com/jmcastellanos/tienda-backend/pkg/pagination"
)

type stubOrderService struct {
	created     *models.Order
	createErr   error
	lastCreate  ordersvc.CreateInput
	fetched     *models.Order
	fetchErr    error
	updated     *models.Order
	updateErr   error
	lastStatus  enums.OrderStatus
	canceled    *models.Order
	cancelErr   error
	cancelCalls int
}

func (s *stubOrderService) Create(_ context.Context, input ordersvc.CreateInput) (*models.Order, error) {
	s.lastCreate = input
	return s.created, s.createErr
}

func (s *stubOrderService) Get(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return s.fetched, s.fetchErr
}

func (s *stubOrderService) List(_ context.Context, _ pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	s.lastStatus = to
	return s.updated, s.updateErr
}

func (s *stubOrderService) Cancel(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	s.cancelCalls++
	return s.canceled, s.cancelErr
}

func withOrderRoute(req *http.Request, orderID string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func TestCreateOrder(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusPendiente,
		PaymentMethod: enums.PaymentMethodCard,
		TotalCents:    5000,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: productID, Name: "Camiseta", UnitPriceCents: 2500, Quantity: 2},
		},
	}

	t.Run("success", func(t *testing.T) {
		stub := &stubOrderService{created: order}
		body := `{"paymentMethod":"card","items":[{"productId":"` + productID.String() + `","quantity":2}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		CreateOrder(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.lastCreate.PaymentMethod != enums.PaymentMethodCard {
			t.Fatalf("expected payment method forwarded, got %q", stub.lastCreate.PaymentMethod)
		}

		var envelope struct {
			Data ordersvc.OrderDTO `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.TotalCents != 5000 || len(envelope.Data.Items) != 1 {
			t.Fatalf("unexpected dto: %+v", envelope.Data)
		}
	})

	t.Run("explicit status forwarded", func(t *testing.T) {
		stub := &stubOrderService{created: order}
		body := `{"status":"Pagado","paymentMethod":"card","items":[{"productId":"` + productID.String() + `","quantity":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		CreateOrder(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.lastCreate.Status != enums.OrderStatusPagado {
			t.Fatalf("expected Pagado, got %q", stub.lastCreate.Status)
		}
	})

	t.Run("unknown payment method", func(t *testing.T) {
		body := `{"paymentMethod":"bitcoin","items":[{"productId":"` + productID.String() + `","quantity":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		CreateOrder(&stubOrderService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		body := `{"status":"Shipped","paymentMethod":"card","items":[{"productId":"` + productID.String() + `","quantity":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		CreateOrder(&stubOrderService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetOrder(t *testing.T) {
	logg := testLogger()

	t.Run("invalid id", func(t *testing.T) {
		req := withOrderRoute(httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil), "nope")
		rec := httptest.NewRecorder()
		GetOrder(&stubOrderService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		stub := &stubOrderService{fetchErr: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
		orderID := uuid.New()
		req := withOrderRoute(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil), orderID.String())
		rec := httptest.NewRecorder()
		GetOrder(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	logg := testLogger()
	orderID := uuid.New()
	order := &models.Order{ID: orderID, Status: enums.OrderStatusPagado, PaymentMethod: enums.PaymentMethodCard}

	t.Run("success", func(t *testing.T) {
		stub := &stubOrderService{updated: order}
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewBufferString(`{"status":"Pagado"}`))
		req = withOrderRoute(req, orderID.String())
		rec := httptest.NewRecorder()
		UpdateOrderStatus(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.lastStatus != enums.OrderStatusPagado {
			t.Fatalf("expected Pagado forwarded, got %q", stub.lastStatus)
		}
	})

	t.Run("illegal transition surfaces 422", func(t *testing.T) {
		stub := &stubOrderService{updateErr: pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed")}
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewBufferString(`{"status":"Enviado"}`))
		req = withOrderRoute(req, orderID.String())
		rec := httptest.NewRecorder()
		UpdateOrderStatus(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewBufferString(`{"status":"Unknown"}`))
		req = withOrderRoute(req, orderID.String())
		rec := httptest.NewRecorder()
		UpdateOrderStatus(&stubOrderService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCancelOrder(t *testing.T) {
	logg := testLogger()
	orderID := uuid.New()

	t.Run("success", func(t *testing.T) {
		now := models.Order{ID: orderID, Status: enums.OrderStatusCancelado, PaymentMethod: enums.PaymentMethodCash}
		stub := &stubOrderService{canceled: &now}
		req := withOrderRoute(httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", nil), orderID.String())
		rec := httptest.NewRecorder()
		CancelOrder(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.cancelCalls != 1 {
			t.Fatalf("expected one cancel call, got %d", stub.cancelCalls)
		}
	})

	t.Run("already canceled surfaces 422", func(t *testing.T) {
		stub := &stubOrderService{cancelErr: pkgerrors.New(pkgerrors.CodeStateConflict, "order already canceled")}
		req := withOrderRoute(httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", nil), orderID.String())
		rec := httptest.NewRecorder()
		CancelOrder(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})
}

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

	productsvc "github.com/jmcastellanos/tienda-backend/internal/products"
	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
	"github.com/jmcastellanos/tienda-backend/pkg/pagination"
)

type stubProductService struct {
	created    *models.Product
	createErr  error
	lastCreate productsvc.CreateInput
	deleteErr  error
	deleted    bool
}

func (s *stubProductService) Create(_ context.Context, input productsvc.CreateInput) (*models.Product, error) {
	s.lastCreate = input
	return s.created, s.createErr
}

func (s *stubProductService) Get(_ context.Context, _ uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (s *stubProductService) GetBySlug(_ context.Context, _ string) (*models.Product, error) {
	panic("unimplemented")
}

func (s *stubProductService) List(_ context.Context, _ pagination.Params, _ bool) ([]models.Product, string, error) {
	return nil, "", nil
}

func (s *stubProductService) Update(_ context.Context, _ uuid.UUID, _ productsvc.UpdateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (s *stubProductService) Delete(_ context.Context, _ uuid.UUID) error {
	s.deleted = true
	return s.deleteErr
}

func withProductRoute(req *http.Request, productID string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func TestCreateProduct(t *testing.T) {
	logg := testLogger()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Camiseta",
		Slug:       "camiseta",
		PriceCents: 2500,
		Stock:      10,
		IsActive:   true,
	}

	t.Run("success", func(t *testing.T) {
		stub := &stubProductService{created: product}
		body := `{"name":"Camiseta","slug":"camiseta","priceCents":2500,"stock":10}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		CreateProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.lastCreate.Stock != 10 {
			t.Fatalf("expected stock forwarded, got %d", stub.lastCreate.Stock)
		}

		var envelope struct {
			Data productsvc.ProductDTO `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.Available != 10 {
			t.Fatalf("expected available 10, got %d", envelope.Data.Available)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		body := `{"slug":"camiseta","priceCents":2500}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		CreateProduct(&stubProductService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("slug conflict", func(t *testing.T) {
		stub := &stubProductService{createErr: pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")}
		body := `{"name":"Camiseta","slug":"camiseta","priceCents":2500,"stock":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		CreateProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestDeleteProduct(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()

	t.Run("success", func(t *testing.T) {
		stub := &stubProductService{}
		req := withProductRoute(httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+productID.String(), nil), productID.String())
		rec := httptest.NewRecorder()
		DeleteProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !stub.deleted {
			t.Fatal("expected delete to be invoked")
		}
	})

	t.Run("active reservations block delete", func(t *testing.T) {
		stub := &stubProductService{deleteErr: pkgerrors.New(pkgerrors.CodeConflict, "product has active reservations")}
		req := withProductRoute(httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+productID.String(), nil), productID.String())
		rec := httptest.NewRecorder()
		DeleteProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		req := withProductRoute(httptest.NewRequest(http.MethodDelete, "/api/v1/products/nope", nil), "nope")
		rec := httptest.NewRecorder()
		DeleteProduct(&stubProductService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/services"
)

type stubCatalog struct {
	page      services.CatalogPage
	queryErr  error
	lastQuery services.CatalogQuery

	product domain.Product
	getErr  error

	created   domain.Product
	createErr error

	degraded bool
}

func (s *stubCatalog) Initialize(ctx context.Context) error { return nil }

func (s *stubCatalog) Query(ctx context.Context, query services.CatalogQuery) (services.CatalogPage, error) {
	s.lastQuery = query
	return s.page, s.queryErr
}

func (s *stubCatalog) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.product, s.getErr
}

func (s *stubCatalog) Degraded() bool { return s.degraded }

func (s *stubCatalog) CreateProduct(ctx context.Context, input services.ProductInput) (domain.Product, error) {
	return s.created, s.createErr
}

func (s *stubCatalog) UpdateProduct(ctx context.Context, input services.ProductInput) (domain.Product, error) {
	return domain.Product{}, nil
}

func (s *stubCatalog) DeleteProduct(ctx context.Context, id string) error { return nil }

func newProductRouter(catalog services.CatalogService) http.Handler {
	return NewRouter(WithProductRoutes(NewProductHandlers(catalog).Routes))
}

func TestListProductsPassesQueryThrough(t *testing.T) {
	catalog := &stubCatalog{page: services.CatalogPage{
		Products:   []domain.Product{{ID: "prod_1", Name: "Lamp", PriceCents: 2599, DiscountPct: 10}},
		Total:      1,
		Page:       2,
		TotalPages: 3,
	}}
	router := newProductRouter(catalog)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=home&search=lamp&sortBy=price&sortOrder=asc&page=2&limit=12", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if catalog.lastQuery.Category != "home" || catalog.lastQuery.Search != "lamp" ||
		catalog.lastQuery.SortBy != "price" || catalog.lastQuery.SortOrder != services.SortAsc ||
		catalog.lastQuery.Page != 2 || catalog.lastQuery.Limit != 12 {
		t.Fatalf("query not passed through: %+v", catalog.lastQuery)
	}

	var body struct {
		Products []struct {
			ID           string `json:"id"`
			Price        int64  `json:"price"`
			DisplayPrice string `json:"displayPrice"`
		} `json:"products"`
		Total      int `json:"total"`
		Page       int `json:"page"`
		TotalPages int `json:"totalPages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 1 || body.Page != 2 || body.TotalPages != 3 {
		t.Fatalf("unexpected paging metadata: %+v", body)
	}
	// 2599 at 10% off rounds to 2339.
	if body.Products[0].DisplayPrice != "$23.39" {
		t.Fatalf("unexpected display price %s", body.Products[0].DisplayPrice)
	}
	if rec.Header().Get(degradedHeader) != "" {
		t.Fatalf("degraded header must be absent on primary responses")
	}
}

func TestListProductsFlagsDegradedResponses(t *testing.T) {
	catalog := &stubCatalog{page: services.CatalogPage{Degraded: true, Products: []domain.Product{}}}
	router := newProductRouter(catalog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get(degradedHeader) != "true" {
		t.Fatalf("expected %s header on fallback responses", degradedHeader)
	}
}

func TestListProductsRejectsBadQuery(t *testing.T) {
	router := newProductRouter(&stubCatalog{})

	for _, target := range []string{
		"/api/v1/products?page=0",
		"/api/v1/products?limit=-2",
		"/api/v1/products?sortOrder=sideways",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestGetProductNotFound(t *testing.T) {
	catalog := &stubCatalog{getErr: services.ErrCatalogNotFound}
	router := newProductRouter(catalog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/prod_404", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error != "product_not_found" {
		t.Fatalf("unexpected error code %s", body.Error)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthy probe, got %d", rec.Code)
	}
}

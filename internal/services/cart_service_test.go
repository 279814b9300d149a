package services

import (
	"context"
	"errors"
	"testing"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/platform/kvstore"
)

type stubCatalogService struct {
	products map[string]domain.Product
	getErr   error
	degraded bool
}

func (s *stubCatalogService) Initialize(ctx context.Context) error { return nil }

func (s *stubCatalogService) Query(ctx context.Context, query CatalogQuery) (CatalogPage, error) {
	return CatalogPage{}, nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if s.getErr != nil {
		return domain.Product{}, s.getErr
	}
	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, ErrCatalogNotFound
	}
	return product, nil
}

func (s *stubCatalogService) Degraded() bool { return s.degraded }

func (s *stubCatalogService) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	return domain.Product{}, nil
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	return domain.Product{}, nil
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id string) error { return nil }

func newTestCartService(t *testing.T) (CartService, *kvstore.Store) {
	t.Helper()
	store := kvstore.New(kvstore.NewMemoryBackend(), nil)
	svc, err := NewCartService(CartServiceDeps{
		Store: store,
		Catalog: &stubCatalogService{products: map[string]domain.Product{
			"prod_1": {ID: "prod_1", Name: "Lamp", PriceCents: 2599, DiscountPct: 10},
			"prod_2": {ID: "prod_2", Name: "Chair", PriceCents: 9999},
		}},
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc, store
}

func TestCartAddItemAccumulatesQuantity(t *testing.T) {
	svc, _ := newTestCartService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "prod_1"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	state, err := svc.AddItem(ctx, "prod_1")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(state.Items) != 1 || state.Items[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", state.Items)
	}
	if state.TotalItems != 2 {
		t.Fatalf("expected total items 2, got %d", state.TotalItems)
	}
	// Cart totals use the full unit price even when the product is discounted.
	if state.TotalPriceCents != 5198 {
		t.Fatalf("expected undiscounted total 5198, got %d", state.TotalPriceCents)
	}
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestCartService(t)

	if _, err := svc.AddItem(context.Background(), "prod_404"); !errors.Is(err, ErrCartProductNotFound) {
		t.Fatalf("expected ErrCartProductNotFound, got %v", err)
	}
}

func TestCartAddItemRequiresProductID(t *testing.T) {
	svc, _ := newTestCartService(t)

	if _, err := svc.AddItem(context.Background(), "  "); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
}

func TestCartSetQuantityAndRemove(t *testing.T) {
	svc, _ := newTestCartService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "prod_1"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.AddItem(ctx, "prod_2"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	state, err := svc.SetQuantity(ctx, "prod_2", 3)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if state.TotalItems != 4 {
		t.Fatalf("expected 4 total items, got %d", state.TotalItems)
	}

	// Quantity zero removes the line.
	state, err = svc.SetQuantity(ctx, "prod_2", 0)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].ID != "prod_1" {
		t.Fatalf("expected only prod_1 left, got %+v", state.Items)
	}

	state, err = svc.RemoveItem(ctx, "prod_1")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(state.Items) != 0 || state.TotalPriceCents != 0 {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestCartPersistsAcrossServiceInstances(t *testing.T) {
	svc, store := newTestCartService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "prod_1"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	fresh, err := NewCartService(CartServiceDeps{
		Store:   store,
		Catalog: &stubCatalogService{},
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	state, err := fresh.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].ID != "prod_1" {
		t.Fatalf("expected persisted cart, got %+v", state)
	}
}

func TestCartGetNormalisesStalePayload(t *testing.T) {
	svc, store := newTestCartService(t)

	kvstore.Write(store, "cart", domain.CartState{
		Items: []domain.CartItem{
			{Product: domain.Product{ID: "prod_1", PriceCents: 100}, Quantity: 2},
			{Product: domain.Product{ID: "prod_9", PriceCents: 500}, Quantity: 0},
		},
		TotalItems:      99,
		TotalPriceCents: 12345,
	})

	state, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(state.Items) != 1 || state.TotalItems != 2 || state.TotalPriceCents != 200 {
		t.Fatalf("expected normalised state, got %+v", state)
	}
}

func TestCartClear(t *testing.T) {
	svc, _ := newTestCartService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "prod_1"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	state, err := svc.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(state.Items) != 0 || state.TotalItems != 0 {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

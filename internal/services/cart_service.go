package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/platform/kvstore"
)

// cartStateKey matches the storage key the storefront always used, so state
// written by earlier releases keeps loading.
const cartStateKey = "cart"

var (
	errCartStoreRequired   = errors.New("cart service: store is required")
	errCartCatalogRequired = errors.New("cart service: catalog service is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartProductNotFound indicates the product to add does not exist in the catalog.
var ErrCartProductNotFound = errors.New("cart service: product not found")

// ErrCartPersist indicates the cart mutation could not be written back.
var ErrCartPersist = errors.New("cart service: persist failed")

// CartServiceDeps wires the persisted store and the catalog used to resolve
// product snapshots on add.
type CartServiceDeps struct {
	Store   *kvstore.Store
	Catalog CatalogService
	Logger  func(context.Context, string, map[string]any)
}

type cartService struct {
	store   *kvstore.Store
	catalog CatalogService
	logger  func(context.Context, string, map[string]any)

	// mu serialises read-modify-write cycles against the shared store.
	mu sync.Mutex
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Store == nil {
		return nil, errCartStoreRequired
	}
	if deps.Catalog == nil {
		return nil, errCartCatalogRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &cartService{store: deps.Store, catalog: deps.Catalog, logger: logger}, nil
}

// Get returns the persisted cart, normalised in case the stored payload was
// stale or hand-edited.
func (s *cartService) Get(ctx context.Context) (domain.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// AddItem resolves the product from the catalog and adds one unit of it.
func (s *cartService) AddItem(ctx context.Context, productID string) (domain.CartState, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.CartState{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrCatalogNotFound) {
			return domain.CartState{}, ErrCartProductNotFound
		}
		return domain.CartState{}, fmt.Errorf("cart service: resolve product: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load().Add(product)
	if err := s.persist(ctx, state); err != nil {
		return domain.CartState{}, err
	}
	s.logger(ctx, "cart.item_added", map[string]any{"product_id": productID, "total_items": state.TotalItems})
	return state, nil
}

// RemoveItem drops the matching line. Removing an absent product is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, productID string) (domain.CartState, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.CartState{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load().Remove(productID)
	if err := s.persist(ctx, state); err != nil {
		return domain.CartState{}, err
	}
	return state, nil
}

// SetQuantity replaces the matching line's quantity; zero or below removes it.
func (s *cartService) SetQuantity(ctx context.Context, productID string, quantity int) (domain.CartState, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.CartState{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load().SetQuantity(productID, quantity)
	if err := s.persist(ctx, state); err != nil {
		return domain.CartState{}, err
	}
	return state, nil
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context) (domain.CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.EmptyCart()
	if err := s.persist(ctx, state); err != nil {
		return domain.CartState{}, err
	}
	s.logger(ctx, "cart.cleared", nil)
	return state, nil
}

func (s *cartService) load() domain.CartState {
	return kvstore.Read(s.store, cartStateKey, domain.EmptyCart()).Normalize()
}

func (s *cartService) persist(ctx context.Context, state domain.CartState) error {
	if !kvstore.Write(s.store, cartStateKey, state) {
		return ErrCartPersist
	}
	return nil
}

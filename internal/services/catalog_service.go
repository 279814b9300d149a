package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/repositories"
)

var (
	errCatalogPrimaryRequired   = errors.New("catalog service: primary repository is required")
	errCatalogGeneratorRequired = errors.New("catalog service: product generator is required")
	errCatalogClockRequired     = errors.New("catalog service: clock is required")
)

// ErrCatalogInvalidInput indicates the caller supplied invalid input.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// ErrCatalogNotFound indicates the requested product does not exist.
var ErrCatalogNotFound = errors.New("catalog service: not found")

// ErrCatalogUnavailable indicates the operation needs the primary store but the catalog is degraded.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

// ErrCatalogConflict indicates a product with the same ID already exists.
var ErrCatalogConflict = errors.New("catalog service: conflict")

const (
	defaultCatalogSort  = "rating"
	defaultCatalogLimit = 24
)

// CatalogServiceDeps wires the primary store, fallback generator, and retry policy.
type CatalogServiceDeps struct {
	Primary  repositories.ProductRepository
	Generate func(count int) []domain.Product

	SeedCount     int
	RetryAttempts int
	RetryDelay    time.Duration

	// Sleep is injectable so tests can skip the retry delay.
	Sleep       func(time.Duration)
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type catalogService struct {
	primary  repositories.ProductRepository
	generate func(count int) []domain.Product

	seedCount int
	attempts  int
	delay     time.Duration
	sleep     func(time.Duration)
	now       func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
	sanitize  *bluemonday.Policy

	// degraded latches once the primary store fails; the catalog then serves
	// the generated fallback for the remainder of the process lifetime.
	degraded     atomic.Bool
	fallbackOnce sync.Once
	fallbackMu   sync.RWMutex
	fallback     []domain.Product
}

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Primary == nil {
		return nil, errCatalogPrimaryRequired
	}
	if deps.Generate == nil {
		return nil, errCatalogGeneratorRequired
	}
	if deps.Clock == nil {
		return nil, errCatalogClockRequired
	}

	seedCount := deps.SeedCount
	if seedCount <= 0 {
		seedCount = 100
	}
	attempts := deps.RetryAttempts
	if attempts <= 0 {
		attempts = 2
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return fmt.Sprintf("prod_%s", strings.ToLower(ulid.Make().String())) }
	}

	return &catalogService{
		primary:   deps.Primary,
		generate:  deps.Generate,
		seedCount: seedCount,
		attempts:  attempts,
		delay:     deps.RetryDelay,
		sleep:     sleep,
		now:       func() time.Time { return deps.Clock().UTC() },
		newID:     idGen,
		logger:    logger,
		sanitize:  bluemonday.StrictPolicy(),
	}, nil
}

// Initialize seeds the primary store when empty. Failures are absorbed: the
// catalog degrades to the generated fallback and the server keeps serving.
func (s *catalogService) Initialize(ctx context.Context) error {
	count, err := retry(s, ctx, func() (int64, error) {
		return s.primary.Count(ctx)
	})
	if err != nil {
		s.degrade(ctx, "count", err)
		return nil
	}
	if count > 0 {
		return nil
	}

	products := s.generate(s.seedCount)
	if _, err := retry(s, ctx, func() (struct{}, error) {
		return struct{}{}, s.primary.InsertMany(ctx, products)
	}); err != nil {
		s.degrade(ctx, "seed", err)
		return nil
	}

	s.logger(ctx, "catalog.seeded", map[string]any{"count": len(products)})
	return nil
}

// Degraded reports whether the catalog has switched to the fallback.
func (s *catalogService) Degraded() bool {
	return s.degraded.Load()
}

// Query filters, sorts, and pages the catalog in-process so the primary and
// fallback paths return identical results for identical inputs.
func (s *catalogService) Query(ctx context.Context, query CatalogQuery) (CatalogPage, error) {
	products, degraded, err := s.loadProducts(ctx)
	if err != nil {
		return CatalogPage{}, err
	}

	filtered := filterProducts(products, query)
	sortProducts(filtered, query)

	limit := query.Limit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}

	total := len(filtered)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return CatalogPage{
		Products:   filtered[start:end],
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		Degraded:   degraded,
	}, nil
}

// GetProduct fetches one product from whichever catalog source is active.
func (s *catalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	if s.degraded.Load() {
		return s.fallbackProduct(id)
	}

	product, err := retry(s, ctx, func() (domain.Product, error) {
		return s.primary.GetByID(ctx, id)
	})
	if err != nil {
		if isNotFound(err) {
			return domain.Product{}, ErrCatalogNotFound
		}
		s.degrade(ctx, "get", err)
		return s.fallbackProduct(id)
	}
	return product, nil
}

// CreateProduct inserts a new product into the primary store.
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	if s.degraded.Load() {
		return domain.Product{}, ErrCatalogUnavailable
	}

	product, err := s.productFromInput(input, true)
	if err != nil {
		return domain.Product{}, err
	}

	if err := s.primary.Create(ctx, product); err != nil {
		switch {
		case isConflict(err):
			return domain.Product{}, ErrCatalogConflict
		case isUnavailable(err):
			s.degrade(ctx, "create", err)
			return domain.Product{}, ErrCatalogUnavailable
		default:
			return domain.Product{}, fmt.Errorf("catalog service: create product: %w", err)
		}
	}

	s.logger(ctx, "catalog.product_created", map[string]any{"product_id": product.ID})
	return product, nil
}

// UpdateProduct overwrites an existing product in the primary store.
func (s *catalogService) UpdateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	if s.degraded.Load() {
		return domain.Product{}, ErrCatalogUnavailable
	}

	product, err := s.productFromInput(input, false)
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := s.primary.GetByID(ctx, product.ID)
	if err != nil {
		switch {
		case isNotFound(err):
			return domain.Product{}, ErrCatalogNotFound
		case isUnavailable(err):
			s.degrade(ctx, "update", err)
			return domain.Product{}, ErrCatalogUnavailable
		default:
			return domain.Product{}, fmt.Errorf("catalog service: load product: %w", err)
		}
	}

	// Ratings and review counts are reader-owned; admin edits keep them.
	product.Rating = existing.Rating
	product.Reviews = existing.Reviews

	if err := s.primary.Update(ctx, product); err != nil {
		if isUnavailable(err) {
			s.degrade(ctx, "update", err)
			return domain.Product{}, ErrCatalogUnavailable
		}
		return domain.Product{}, fmt.Errorf("catalog service: update product: %w", err)
	}

	s.logger(ctx, "catalog.product_updated", map[string]any{"product_id": product.ID})
	return product, nil
}

// DeleteProduct removes a product from the primary store.
func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	if s.degraded.Load() {
		return ErrCatalogUnavailable
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	if err := s.primary.Delete(ctx, id); err != nil {
		switch {
		case isNotFound(err), isConflict(err):
			return ErrCatalogNotFound
		case isUnavailable(err):
			s.degrade(ctx, "delete", err)
			return ErrCatalogUnavailable
		default:
			return fmt.Errorf("catalog service: delete product: %w", err)
		}
	}

	s.logger(ctx, "catalog.product_deleted", map[string]any{"product_id": id})
	return nil
}

func (s *catalogService) loadProducts(ctx context.Context) ([]domain.Product, bool, error) {
	if s.degraded.Load() {
		return s.fallbackProducts(), true, nil
	}

	products, err := retry(s, ctx, func() ([]domain.Product, error) {
		return s.primary.ListAll(ctx)
	})
	if err != nil {
		s.degrade(ctx, "list", err)
		return s.fallbackProducts(), true, nil
	}
	return products, false, nil
}

func (s *catalogService) fallbackProducts() []domain.Product {
	s.fallbackOnce.Do(func() {
		s.fallbackMu.Lock()
		s.fallback = s.generate(s.seedCount)
		s.fallbackMu.Unlock()
	})
	s.fallbackMu.RLock()
	defer s.fallbackMu.RUnlock()
	return s.fallback
}

func (s *catalogService) fallbackProduct(id string) (domain.Product, error) {
	for _, product := range s.fallbackProducts() {
		if product.ID == id {
			return product, nil
		}
	}
	return domain.Product{}, ErrCatalogNotFound
}

func (s *catalogService) degrade(ctx context.Context, op string, err error) {
	if s.degraded.CompareAndSwap(false, true) {
		s.logger(ctx, "catalog.degraded", map[string]any{"op": op, "error": err.Error()})
	}
}

func (s *catalogService) productFromInput(input ProductInput, create bool) (domain.Product, error) {
	name := strings.TrimSpace(s.sanitize.Sanitize(input.Name))
	description := strings.TrimSpace(s.sanitize.Sanitize(input.Description))
	category := strings.ToLower(strings.TrimSpace(s.sanitize.Sanitize(input.Category)))
	image := strings.TrimSpace(input.Image)

	var invalid []string
	if name == "" {
		invalid = append(invalid, "name")
	}
	if category == "" {
		invalid = append(invalid, "category")
	}
	if input.PriceCents <= 0 {
		invalid = append(invalid, "price")
	}
	if input.DiscountPct < 0 || input.DiscountPct > 100 {
		invalid = append(invalid, "discount")
	}
	id := strings.TrimSpace(input.ID)
	if !create && id == "" {
		invalid = append(invalid, "id")
	}
	if len(invalid) > 0 {
		return domain.Product{}, fmt.Errorf("%w: %s", ErrCatalogInvalidInput, strings.Join(invalid, ", "))
	}

	if id == "" {
		id = s.newID()
	}

	return domain.Product{
		ID:          id,
		Name:        name,
		Description: description,
		PriceCents:  input.PriceCents,
		Image:       image,
		Category:    category,
		InStock:     input.InStock,
		DiscountPct: input.DiscountPct,
	}, nil
}

// retry runs fn up to s.attempts times, sleeping between attempts, retrying
// only transient failures.
func retry[T any](s *catalogService, ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		value, err := fn()
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !isUnavailable(err) {
			return zero, err
		}
		if attempt < s.attempts-1 && s.delay > 0 {
			s.sleep(s.delay)
		}
	}
	return zero, lastErr
}

func filterProducts(products []domain.Product, query CatalogQuery) []domain.Product {
	category := strings.ToLower(strings.TrimSpace(query.Category))
	search := strings.ToLower(strings.TrimSpace(query.Search))

	filtered := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if category != "" && product.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(product.Name), search) &&
			!strings.Contains(strings.ToLower(product.Description), search) {
			continue
		}
		filtered = append(filtered, product)
	}
	return filtered
}

func sortProducts(products []domain.Product, query CatalogQuery) {
	sortBy := strings.ToLower(strings.TrimSpace(query.SortBy))
	if sortBy == "" {
		sortBy = defaultCatalogSort
	}
	descending := query.SortOrder != SortAsc

	less := func(a, b domain.Product) bool {
		switch sortBy {
		case "price":
			return a.PriceCents < b.PriceCents
		case "reviews":
			return a.Reviews < b.Reviews
		case "discount":
			return a.DiscountPct < b.DiscountPct
		case "name":
			return a.Name < b.Name
		case "rating":
			return a.Rating < b.Rating
		default:
			return a.Name < b.Name
		}
	}

	sort.SliceStable(products, func(i, j int) bool {
		if descending {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

func isUnavailable(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsUnavailable()
	}
	// Unclassified failures (dial errors, missing credentials) also force the
	// fallback; only typed not-found/conflict results stay on the primary path.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/platform/display"
	"github.com/marketbay/api/internal/platform/httpx"
	"github.com/marketbay/api/internal/services"
)

// degradedHeader flags responses served from the fallback catalog so clients
// can surface the condition.
const degradedHeader = "X-Catalog-Degraded"

// ProductHandlers exposes the public catalog endpoints.
type ProductHandlers struct {
	catalog services.CatalogService
}

// NewProductHandlers constructs the catalog handlers.
func NewProductHandlers(catalog services.CatalogService) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	query, err := parseCatalogQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.Query(ctx, query)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	if page.Degraded {
		w.Header().Set(degradedHeader, "true")
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{
		Products:   buildProductPayloads(page.Products),
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	})
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	if h.catalog.Degraded() {
		w.Header().Set(degradedHeader, "true")
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func parseCatalogQuery(r *http.Request) (services.CatalogQuery, error) {
	values := r.URL.Query()
	query := services.CatalogQuery{
		Category: strings.TrimSpace(values.Get("category")),
		Search:   strings.TrimSpace(values.Get("search")),
		SortBy:   strings.TrimSpace(values.Get("sortBy")),
	}

	switch order := strings.ToLower(strings.TrimSpace(values.Get("sortOrder"))); order {
	case "":
	case "asc":
		query.SortOrder = services.SortAsc
	case "desc":
		query.SortOrder = services.SortDesc
	default:
		return services.CatalogQuery{}, errors.New("sortOrder must be asc or desc")
	}

	var err error
	if query.Page, err = parsePositiveInt(values.Get("page"), "page"); err != nil {
		return services.CatalogQuery{}, err
	}
	if query.Limit, err = parsePositiveInt(values.Get("limit"), "limit"); err != nil {
		return services.CatalogQuery{}, err
	}
	return query, nil
}

func parsePositiveInt(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return value, nil
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("product_conflict", "product already exists", http.StatusConflict))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog writes are unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to serve catalog", http.StatusInternalServerError))
	}
}

type productListResponse struct {
	Products   []productPayload `json:"products"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	domain.Product
	DisplayPrice string `json:"displayPrice"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		Product:      product,
		DisplayPrice: display.Currency(product.DiscountedPriceCents()),
	}
}

func buildProductPayloads(products []domain.Product) []productPayload {
	payloads := make([]productPayload, 0, len(products))
	for _, product := range products {
		payloads = append(payloads, buildProductPayload(product))
	}
	return payloads
}

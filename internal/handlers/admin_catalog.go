package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/api/internal/platform/auth"
	"github.com/marketbay/api/internal/platform/httpx"
	"github.com/marketbay/api/internal/services"
)

const maxAdminBodySize = 32 * 1024

// AdminCatalogHandlers exposes the admin-only catalog mutation endpoints.
type AdminCatalogHandlers struct {
	verifier auth.Verifier
	catalog  services.CatalogService
}

// NewAdminCatalogHandlers constructs the admin catalog handlers.
func NewAdminCatalogHandlers(verifier auth.Verifier, catalog services.CatalogService) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{verifier: verifier, catalog: catalog}
}

// Routes wires the /admin/products endpoints onto the provided router.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.verifier != nil {
		r.Use(auth.RequireAdmin(h.verifier))
	}
	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)
}

type adminProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	InStock     bool   `json:"inStock"`
	DiscountPct int    `json:"discount"`
}

func (h *AdminCatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req adminProductRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.CreateProduct(ctx, toProductInput("", req))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, productResponse{Product: buildProductPayload(product)})
}

func (h *AdminCatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req adminProductRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, toProductInput(chi.URLParam(r, "productID"), req))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *AdminCatalogHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "productID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"deleted": true})
}

func toProductInput(id string, req adminProductRequest) services.ProductInput {
	return services.ProductInput{
		ID:          strings.TrimSpace(id),
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Image:       req.Image,
		Category:    req.Category,
		InStock:     req.InStock,
		DiscountPct: req.DiscountPct,
	}
}

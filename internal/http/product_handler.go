package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/inventory"
	"github.com/go-chi/chi/v5"
)

const catalogErrorMessage = "Error loading products."

type ProductHandler struct {
	shop    ShopAPI
	timeout time.Duration
}

func NewProductHandler(shop ShopAPI, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		shop:    shop,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []domain.RemoteProduct `json:"products"`
}

// GET /api/v1/catalog?category=&type=
func (h *ProductHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	products, err := h.shop.FilteredProducts(ctx, q.Get("category"), q.Get("type"))
	if errors.Is(err, inventory.ErrMissingFilter) {
		respondError(w, http.StatusBadRequest, "missing_filter", catalogErrorMessage)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "upstream_error", catalogErrorMessage)
		return
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.shop.FetchStock(ctx, domain.ProductID(chi.URLParam(r, "product_id")))
	if err != nil {
		if inventory.StatusCode(err) == http.StatusNotFound {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	sessions *Sessions
	timeout  time.Duration
}

func NewCartHandler(sessions *Sessions, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	Product  *domain.RemoteProduct `json:"product"`
	Quantity int                   `json:"quantity"`
}

type CartResponseDTO struct {
	Items         domain.Cart          `json:"items"`
	CartTotal     string               `json:"cart_total"`
	CheckoutTotal string               `json:"checkout_total"`
	State         domain.CheckoutState `json:"state"`
	FormVisible   bool                 `json:"form_visible"`
}

type AddItemResponseDTO struct {
	Items     domain.Cart         `json:"items"`
	Item      domain.CartLineItem `json:"item"`
	Remaining int                 `json:"remaining"`
	Notice    service.Notice      `json:"notice"`
	PushError string              `json:"push_error,omitempty"`
}

type RemoveItemResponseDTO struct {
	Items     domain.Cart `json:"items"`
	Found     bool        `json:"found"`
	Removed   bool        `json:"removed"`
	Quantity  int         `json:"quantity"`
	PushError string      `json:"push_error,omitempty"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	views, err := h.sessions.Cart(sessionID).Views(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	state := h.sessions.State(sessionID)
	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items:         views.Items,
		CartTotal:     views.CartTotal,
		CheckoutTotal: views.CheckoutTotal,
		State:         state,
		FormVisible:   state.FormVisible(),
	})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := h.sessions.Cart(getSessionID(r.Context())).AddToCart(ctx, req.Product, req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := AddItemResponseDTO{
		Items:     res.Cart,
		Item:      res.Item,
		Remaining: res.Remaining,
		Notice:    service.AddedNotice(),
	}
	if !res.Push.OK() {
		resp.PushError = service.UserMessage(res.Push.Err)
	}
	respondJSON(w, http.StatusCreated, resp)
}

// DELETE /api/v1/cart/items/{product_id}?quantity=N
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := domain.ProductID(chi.URLParam(r, "product_id"))
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be an integer")
			return
		}
		quantity = n
	}

	res, err := h.sessions.Cart(getSessionID(r.Context())).RemoveFromCart(ctx, productID, quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := RemoveItemResponseDTO{
		Items:    res.Cart,
		Found:    res.Found,
		Removed:  res.Removed,
		Quantity: res.Item.Quantity,
	}
	if res.Found && !res.Push.OK() {
		resp.PushError = service.UserMessage(res.Push.Err)
	}
	respondJSON(w, http.StatusOK, resp)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
)

type CheckoutHandler struct {
	sessions *Sessions
	timeout  time.Duration
}

func NewCheckoutHandler(sessions *Sessions, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		timeout:  timeout,
	}
}

type CheckoutResponseDTO struct {
	State       domain.CheckoutState `json:"state"`
	FormVisible bool                 `json:"form_visible"`
	OrderKey    string               `json:"order_key,omitempty"`
	Total       string               `json:"total,omitempty"`
}

// POST /api/v1/checkout/proceed
func (h *CheckoutHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	flow := h.sessions.Flow(getSessionID(r.Context()))
	if err := flow.ProceedToCheckout(); err != nil {
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
		return
	}

	state := flow.State()
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{State: state, FormVisible: state.FormVisible()})
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form domain.BuyerForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	flow := h.sessions.Flow(getSessionID(r.Context()))
	res, err := flow.Submit(ctx, form)
	switch {
	case errors.Is(err, checkout.ErrIncompleteForm):
		// nothing happens until every field is filled in
		state := flow.State()
		respondJSON(w, http.StatusOK, CheckoutResponseDTO{State: state, FormVisible: state.FormVisible()})
		return
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusBadGateway, "checkout_failed", service.GenericErrorMessage)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		State:       res.State,
		FormVisible: res.State.FormVisible(),
		OrderKey:    res.OrderKey,
		Total:       res.Order.Total,
	})
}

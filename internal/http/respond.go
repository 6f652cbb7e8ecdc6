package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/storefront/internal/inventory"
	"github.com/fjod/storefront/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string          `json:"error"`
	Code    string          `json:"code,omitempty"`
	Details string          `json:"details,omitempty"`
	Notice  *service.Notice `json:"notice,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondServiceError maps cart and shop API failures to a status code. Only
// messages meant for shoppers reach the body.
func respondServiceError(w http.ResponseWriter, err error) {
	var stockErr *service.StockError
	var netErr *inventory.NetworkError
	var httpErr *inventory.HTTPError

	switch {
	case errors.As(err, &stockErr):
		notice := service.NoticeFor(err)
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:  notice.Text,
			Code:   "insufficient_stock",
			Notice: &notice,
		})
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
	case errors.Is(err, service.ErrNoProduct):
		respondError(w, http.StatusBadRequest, "invalid_product", "product is required")
	case errors.As(err, &netErr), errors.As(err, &httpErr), errors.Is(err, inventory.ErrNotConfigured):
		respondError(w, http.StatusBadGateway, "upstream_error", service.GenericErrorMessage)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", service.GenericErrorMessage)
	}
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

// NewRouter wires the storefront routes. Everything under /api/v1 runs with
// a shopper session.
func NewRouter(cfg RouterConfig, sessions *Sessions, shop ShopAPI, logger *zap.Logger) chi.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRequestBodySize == 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}

	cartHandler := NewCartHandler(sessions, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(sessions, cfg.RequestTimeout)
	productHandler := NewProductHandler(shop, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", productHandler.Catalog)
		r.Get("/products/{product_id}", productHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})
			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", checkoutHandler.Submit)
				r.Post("/proceed", checkoutHandler.Proceed)
			})
		})
	})

	return r
}

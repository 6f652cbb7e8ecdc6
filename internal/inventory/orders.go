package inventory

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
)

// IdempotencyHeader carries the checkout attempt key, so a retried POST can
// be recognised by the shop API.
const IdempotencyHeader = "Idempotency-Key"

// SubmitOrder posts the order. Any 2xx response counts as accepted.
func (c *Client) SubmitOrder(ctx context.Context, order domain.Order, idempotencyKey string) error {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(IdempotencyHeader, idempotencyKey)
	}

	resp, err := c.do(ctx, "submit order", http.MethodPost, "/submit-order", order, header)
	if err != nil {
		return err
	}
	discard(resp)
	c.logger.Info("order submitted", zap.Object("order", order))
	return nil
}

// FilteredProducts lists the catalog products of one category and type.
func (c *Client) FilteredProducts(ctx context.Context, category, productType string) ([]domain.RemoteProduct, error) {
	if category == "" || productType == "" {
		return nil, ErrMissingFilter
	}

	q := url.Values{}
	q.Set("category", category)
	q.Set("type", productType)

	const op = "filtered products"
	resp, err := c.do(ctx, op, http.MethodGet, "/filtered-products?"+q.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}

	products := []domain.RemoteProduct{}
	if err := decodeJSON(op, resp, &products); err != nil {
		return nil, err
	}
	return products, nil
}

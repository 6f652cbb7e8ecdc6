package inventory

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type stockUpdate struct {
	ID       domain.ProductID `json:"id"`
	Quantity int              `json:"quantity"`
}

// FetchStock reads the current product record, including available stock.
// Concurrent reads of the same product share one request; a caller whose
// context ends stops waiting without cancelling it for the others.
func (c *Client) FetchStock(ctx context.Context, id domain.ProductID) (*domain.RemoteProduct, error) {
	const op = "fetch product"
	shared := context.WithoutCancel(ctx)

	ch := c.sfg.DoChan(id.String(), func() (interface{}, error) {
		resp, err := c.do(shared, op, http.MethodGet, "/products/"+url.PathEscape(id.String()), nil, nil)
		if err != nil {
			return nil, err
		}
		var product domain.RemoteProduct
		if err := decodeJSON(op, resp, &product); err != nil {
			return nil, err
		}
		return &product, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, &NetworkError{Op: op, Err: ctx.Err()}
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	// every caller gets its own copy
	product := *res.Val.(*domain.RemoteProduct)
	return &product, nil
}

// PushStock asks the shop API to set the stock of id to quantity.
func (c *Client) PushStock(ctx context.Context, id domain.ProductID, quantity int) error {
	resp, err := c.do(ctx, "update product quantity", http.MethodPost, "/update-product-quantity",
		stockUpdate{ID: id, Quantity: quantity}, nil)
	if err != nil {
		return err
	}
	discard(resp)
	c.logger.Debug("stock pushed", zap.Stringer("product_id", id), zap.Int("quantity", quantity))
	return nil
}

package service

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
	"go.uber.org/zap"
)

// StockClient reads and sets stock on the shop API.
type StockClient interface {
	FetchStock(ctx context.Context, id domain.ProductID) (*domain.RemoteProduct, error)
	PushStock(ctx context.Context, id domain.ProductID, quantity int) error
}

// Reconciliation is the outcome of pushing a stock level after a cart change.
// Err is set when the push failed; the cart change it followed is kept.
type Reconciliation struct {
	ProductID domain.ProductID
	Quantity  int
	Err       error
}

func (r Reconciliation) OK() bool {
	return r.Err == nil
}

type AddResult struct {
	Cart      domain.Cart
	Item      domain.CartLineItem
	Merged    bool // quantity was added to an existing line item
	Remaining int  // stock left on the caller's product snapshot
	Push      Reconciliation
}

type RemoveResult struct {
	Cart    domain.Cart
	Found   bool
	Removed bool // the whole line item was dropped
	Item    domain.CartLineItem
	Push    Reconciliation
}

// Views is what the cart page and the checkout page render. Both totals come
// from the same load.
type Views struct {
	Items         domain.Cart
	CartTotal     string
	CheckoutTotal string
}

// CartService applies cart changes locally first, persists them, then pushes
// the new stock level to the shop API. Nothing spans both steps: a failed push
// leaves the saved cart as it is.
type CartService struct {
	store  store.CartStore
	stock  StockClient
	logger *zap.Logger
}

func NewCartService(store store.CartStore, stock StockClient, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		store:  store,
		stock:  stock,
		logger: logger,
	}
}

// AddToCart puts requested units of product in the cart. The stock check uses
// product.Quantity as passed in, not a fresh read. On success product.Quantity
// is lowered by requested and that value is pushed to the shop API.
func (s *CartService) AddToCart(ctx context.Context, product *domain.RemoteProduct, requested int) (*AddResult, error) {
	if product == nil {
		return nil, ErrNoProduct
	}
	if requested < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := cart.Find(product.ID)
	if requested > product.Quantity {
		return nil, &StockError{
			ProductID: product.ID,
			Requested: requested,
			Available: product.Quantity,
			InCart:    idx >= 0,
		}
	}

	merged := idx >= 0
	if merged {
		cart[idx].Quantity += requested
	} else {
		cart = append(cart, product.LineItem(requested))
		idx = len(cart) - 1
	}

	remaining := product.Quantity - requested
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	product.Quantity = remaining

	result := &AddResult{
		Cart:      cart,
		Item:      cart[idx],
		Merged:    merged,
		Remaining: remaining,
	}
	result.Push = s.push(ctx, product.ID, remaining)
	return result, nil
}

// RemoveFromCart takes quantity units of id out of the cart, dropping the
// line item when quantity covers all of it. Unlike AddToCart it reads the
// current stock first; if that read fails nothing changes. The pushed stock
// is the fresh value plus quantity, even when quantity exceeded the line.
func (s *CartService) RemoveFromCart(ctx context.Context, id domain.ProductID, quantity int) (*RemoveResult, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := cart.Find(id)
	if idx < 0 {
		return &RemoveResult{Cart: cart}, nil
	}

	fresh, err := s.stock.FetchStock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch stock for %s: %w", id, err)
	}

	result := &RemoveResult{Found: true}
	if quantity >= cart[idx].Quantity {
		result.Item = cart[idx]
		result.Item.Quantity = 0
		result.Removed = true
		cart = append(cart[:idx], cart[idx+1:]...)
	} else {
		cart[idx].Quantity -= quantity
		result.Item = cart[idx]
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	result.Cart = cart
	result.Push = s.push(ctx, id, fresh.Quantity+quantity)
	return result, nil
}

func (s *CartService) Cart(ctx context.Context) (domain.Cart, error) {
	return s.load(ctx)
}

func (s *CartService) Views(ctx context.Context) (*Views, error) {
	cart, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &Views{
		Items:         cart,
		CartTotal:     FormatTotal(cart),
		CheckoutTotal: FormatTotal(cart),
	}, nil
}

// Clear empties the cart by removing its slot.
func (s *CartService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) load(ctx context.Context) (domain.Cart, error) {
	res, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if res.State == store.LoadCorrupt {
		s.logger.Warn("stored cart is unparseable, reading it as empty",
			zap.Error(res.Err()),
			zap.Int("bytes", len(res.Raw)))
	}
	return res.Cart(), nil
}

// push runs after the cart is saved. Once issued it is not cancelled by the
// caller's context.
func (s *CartService) push(ctx context.Context, id domain.ProductID, quantity int) Reconciliation {
	err := s.stock.PushStock(context.WithoutCancel(ctx), id, quantity)
	if err != nil {
		s.logger.Warn("stock push failed, cart change kept",
			zap.Stringer("product_id", id),
			zap.Int("quantity", quantity),
			zap.Error(err))
	}
	return Reconciliation{ProductID: id, Quantity: quantity, Err: err}
}

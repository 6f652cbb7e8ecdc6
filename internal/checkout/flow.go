package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Cart interface {
	Views(ctx context.Context) (*service.Views, error)
	Clear(ctx context.Context) error
}

type OrderClient interface {
	SubmitOrder(ctx context.Context, order domain.Order, idempotencyKey string) error
}

type SubmitResult struct {
	Order    domain.Order
	OrderKey string
	State    domain.CheckoutState
}

// Flow is the checkout view of one shopping session. The idempotency key is
// created when the form opens and reused by every resubmission until an
// order is accepted.
type Flow struct {
	mu        sync.Mutex
	state     domain.CheckoutState
	form      domain.BuyerForm
	key       string
	sessionID string

	cart      Cart
	orders    OrderClient
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewFlow(sessionID string, cart Cart, orders OrderClient, publisher events.Publisher, logger *zap.Logger) *Flow {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		state:     domain.CheckoutStateBrowsing,
		sessionID: sessionID,
		cart:      cart,
		orders:    orders,
		publisher: publisher,
		logger:    logger.With(zap.String("session_id", sessionID)),
		now:       time.Now,
	}
}

func (f *Flow) State() domain.CheckoutState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Form returns the buyer fields of the last submission. It is cleared once an
// order goes through.
func (f *Flow) Form() domain.BuyerForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// ProceedToCheckout shows the checkout form. No I/O happens here.
func (f *Flow) ProceedToCheckout() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.FormVisible() {
		return nil
	}
	if err := f.transition(domain.CheckoutStateFormVisible); err != nil {
		return err
	}
	if f.key == "" {
		f.key = uuid.NewString()
	}
	return nil
}

// Submit posts the cart with the buyer's fields. An incomplete form returns
// ErrIncompleteForm and changes nothing. On success the cart is cleared and
// the flow is back in Browsing; on failure it stays on the form in Failed
// with the cart untouched, and Submit may be called again.
func (f *Flow) Submit(ctx context.Context, form domain.BuyerForm) (*SubmitResult, error) {
	f.mu.Lock()
	if !form.Complete() {
		f.mu.Unlock()
		return nil, ErrIncompleteForm
	}
	if err := f.transition(domain.CheckoutStateSubmitting); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.form = form
	key := f.key
	if key == "" {
		key = uuid.NewString()
		f.key = key
	}
	f.mu.Unlock()

	order, cleared, err := f.submit(ctx, form, key)
	if err != nil {
		f.finish(domain.CheckoutStateFailed)
		f.logger.Error("checkout failed", zap.String("order_key", key), zap.Error(err))
		return nil, err
	}

	f.finish(domain.CheckoutStateCompleted)
	f.logger.Info("checkout completed", zap.String("order_key", key), zap.Object("order", order))
	f.publish(ctx, order, key, !cleared)

	f.mu.Lock()
	f.form = domain.BuyerForm{}
	f.key = ""
	f.mu.Unlock()
	f.finish(domain.CheckoutStateBrowsing)

	return &SubmitResult{Order: order, OrderKey: key, State: domain.CheckoutStateBrowsing}, nil
}

// submit reports whether the cart was cleared after the order was accepted.
func (f *Flow) submit(ctx context.Context, form domain.BuyerForm, key string) (domain.Order, bool, error) {
	views, err := f.cart.Views(ctx)
	if err != nil {
		return domain.Order{}, false, err
	}

	order := domain.Order{
		BuyerForm: form,
		Items:     views.Items,
		Total:     views.CheckoutTotal,
	}
	if err := f.orders.SubmitOrder(ctx, order, key); err != nil {
		return domain.Order{}, false, fmt.Errorf("submit order: %w", err)
	}

	// the shop API has the order at this point, a failed clear only leaves a stale cart
	if err := f.cart.Clear(context.WithoutCancel(ctx)); err != nil {
		f.logger.Warn("order accepted but cart was not cleared", zap.Error(err))
		return order, false, nil
	}
	return order, true, nil
}

func (f *Flow) publish(ctx context.Context, order domain.Order, key string, clearPending bool) {
	event := events.OrderSubmitted{
		OrderKey:     key,
		SessionID:    f.sessionID,
		Email:        order.Email,
		Items:        order.Items,
		Total:        order.Total,
		SubmittedAt:  f.now().UTC(),
		ClearPending: clearPending,
	}
	if err := f.publisher.PublishOrderSubmitted(context.WithoutCancel(ctx), event); err != nil {
		f.logger.Warn("order event not published", zap.String("order_key", key), zap.Error(err))
	}
}

func (f *Flow) finish(to domain.CheckoutState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.transition(to); err != nil {
		f.logger.Error("unexpected checkout state", zap.Error(err))
	}
}

// transition must be called with mu held.
func (f *Flow) transition(to domain.CheckoutState) error {
	if !domain.CanTransitionTo(f.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, f.state, to)
	}
	f.state = to
	return nil
}

package http

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/internal/store"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const (
	DefaultSessionIdleTTL = 30 * time.Minute
	DefaultMaxSessions    = 10000
)

// ShopAPI is the slice of the shop API the storefront routes use.
type ShopAPI interface {
	service.StockClient
	checkout.OrderClient
	FilteredProducts(ctx context.Context, category, productType string) ([]domain.RemoteProduct, error)
}

// SessionOptions bounds the checkout flows held in memory. Zero values fall
// back to DefaultSessionIdleTTL and DefaultMaxSessions.
type SessionOptions struct {
	IdleTTL     time.Duration
	MaxSessions int
}

// Sessions hands out the cart service and checkout flow of each shopper.
// Carts live in the store; checkout view state lives in this process and is
// dropped once a session has been idle for IdleTTL or when more than
// MaxSessions flows are held, least recently used first.
type Sessions struct {
	mu        sync.Mutex
	flows     *expirable.LRU[string, *checkout.Flow]
	provider  store.Provider
	shop      ShopAPI
	publisher events.Publisher
	logger    *zap.Logger
}

func NewSessions(provider store.Provider, shop ShopAPI, publisher events.Publisher, opts SessionOptions, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultSessionIdleTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	onEvict := func(sessionID string, flow *checkout.Flow) {
		logger.Debug("checkout flow dropped",
			zap.String("session_id", sessionID),
			zap.Stringer("state", flow.State()))
	}
	return &Sessions{
		flows:     expirable.NewLRU[string, *checkout.Flow](opts.MaxSessions, onEvict, opts.IdleTTL),
		provider:  provider,
		shop:      shop,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Sessions) Cart(sessionID string) *service.CartService {
	return service.NewCartService(s.provider(sessionID), s.shop,
		s.logger.With(zap.String("session_id", sessionID)))
}

// Flow returns the session's checkout flow, creating it on first use. Every
// call restarts the session's idle timer.
func (s *Sessions) Flow(sessionID string) *checkout.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows.Get(sessionID)
	if !ok {
		flow = checkout.NewFlow(sessionID, s.Cart(sessionID), s.shop, s.publisher, s.logger)
	}
	s.flows.Add(sessionID, flow)
	return flow
}

// State reports the checkout state without creating a flow. A session with
// no flow is browsing.
func (s *Sessions) State(sessionID string) domain.CheckoutState {
	flow, ok := s.flows.Peek(sessionID)
	if !ok {
		return domain.CheckoutStateBrowsing
	}
	return flow.State()
}

// Len is the number of flows currently held, including expired ones not yet purged.
func (s *Sessions) Len() int {
	return s.flows.Len()
}

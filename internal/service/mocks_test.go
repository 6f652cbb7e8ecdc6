package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
)

type pushCall struct {
	ID       domain.ProductID
	Quantity int
	CtxDone  bool // the context passed to PushStock was already cancelled
}

// mockStockClient implements StockClient for testing
type mockStockClient struct {
	mu       sync.Mutex
	products map[domain.ProductID]domain.RemoteProduct
	fetchErr error
	pushErr  error
	fetches  []domain.ProductID
	pushes   []pushCall
}

func newMockStockClient(products ...domain.RemoteProduct) *mockStockClient {
	m := &mockStockClient{products: make(map[domain.ProductID]domain.RemoteProduct)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockStockClient) FetchStock(_ context.Context, id domain.ProductID) (*domain.RemoteProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, id)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, errors.New("product not found")
	}
	return &p, nil
}

func (m *mockStockClient) PushStock(ctx context.Context, id domain.ProductID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, pushCall{ID: id, Quantity: quantity, CtxDone: ctx.Err() != nil})
	if m.pushErr != nil {
		return m.pushErr
	}
	if p, ok := m.products[id]; ok {
		p.Quantity = quantity
		m.products[id] = p
	}
	return nil
}

func (m *mockStockClient) lastPush() pushCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushes[len(m.pushes)-1]
}

// failingStore wraps a MemoryStore and fails saves on demand
type failingStore struct {
	*store.MemoryStore
	saveErr error
	loadErr error
}

func (f *failingStore) Load(ctx context.Context) (store.LoadResult, error) {
	if f.loadErr != nil {
		return store.LoadResult{}, f.loadErr
	}
	return f.MemoryStore.Load(ctx)
}

func (f *failingStore) Save(ctx context.Context, cart domain.Cart) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, cart)
}

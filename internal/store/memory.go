package store

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
)

// MemorySlots is an in-process stand-in for a storage backend: a map of
// slot key to serialized cart. It is used by the "memory" backend and tests.
type MemorySlots struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{slots: make(map[string][]byte)}
}

// Put writes raw bytes into a slot, bypassing serialization.
func (m *MemorySlots) Put(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), raw...)
}

// Get returns the raw bytes of a slot.
func (m *MemorySlots) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.slots[key]
	return raw, ok
}

func (m *MemorySlots) remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
}

// Provider returns stores for each session backed by these slots.
func (m *MemorySlots) Provider(slot string) Provider {
	return func(sessionID string) CartStore {
		return m.Store(sessionID, slot)
	}
}

// Store returns the MemoryStore for one session.
func (m *MemorySlots) Store(sessionID, slot string) *MemoryStore {
	return &MemoryStore{slots: m, key: slotKey(sessionID, slot)}
}

// MemoryStore implements CartStore on top of MemorySlots.
type MemoryStore struct {
	slots *MemorySlots
	key   string
}

// NewMemoryStore returns a store with its own private slots.
func NewMemoryStore() *MemoryStore {
	return NewMemorySlots().Store("local", DefaultSlot)
}

// Key is the slot key this store reads and writes.
func (s *MemoryStore) Key() string {
	return s.key
}

// Slots exposes the backing slots.
func (s *MemoryStore) Slots() *MemorySlots {
	return s.slots
}

func (s *MemoryStore) Load(context.Context) (LoadResult, error) {
	raw, ok := s.slots.Get(s.key)
	if !ok {
		return LoadResult{State: LoadEmpty}, nil
	}
	return decodeCart(raw), nil
}

func (s *MemoryStore) Save(_ context.Context, cart domain.Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}
	s.slots.Put(s.key, data)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.slots.remove(s.key)
	return nil
}

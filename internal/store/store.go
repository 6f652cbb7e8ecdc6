package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

// DefaultSlot is the name of the slot the cart is kept under.
const DefaultSlot = "cart"

var ErrStorageCorrupt = errors.New("stored cart is unparseable")

// CartStore persists one session's cart in a single named slot. It does no
// locking: every caller loads, mutates and saves the whole cart, so
// concurrent writers race and the last save wins.
type CartStore interface {
	// Load returns the stored cart. The error is reserved for backend
	// failures; an absent or corrupt slot is reported through LoadResult.
	Load(ctx context.Context) (LoadResult, error)

	// Save replaces the stored cart.
	Save(ctx context.Context, cart domain.Cart) error

	// Clear removes the slot entirely.
	Clear(ctx context.Context) error
}

// Provider returns the CartStore for a shopper session.
type Provider func(sessionID string) CartStore

type LoadState int

const (
	LoadEmpty LoadState = iota
	LoadLoaded
	LoadCorrupt
)

func (s LoadState) String() string {
	switch s {
	case LoadEmpty:
		return "empty"
	case LoadLoaded:
		return "loaded"
	case LoadCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// LoadResult tells an absent slot, a stored cart and an unparseable value apart.
type LoadResult struct {
	State LoadState
	Items domain.Cart
	Raw   []byte // the stored bytes, kept for the corrupt case
}

// Cart collapses the result to what shoppers see: absent and corrupt slots
// both read as an empty cart.
func (r LoadResult) Cart() domain.Cart {
	if r.State != LoadLoaded {
		return domain.Cart{}
	}
	return r.Items.Clone()
}

// Err returns ErrStorageCorrupt for a corrupt slot, nil otherwise.
func (r LoadResult) Err() error {
	if r.State == LoadCorrupt {
		return ErrStorageCorrupt
	}
	return nil
}

func encodeCart(cart domain.Cart) ([]byte, error) {
	if cart == nil {
		cart = domain.Cart{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

// decodeCart classifies raw slot contents. JSON null decodes to an empty
// cart, matching a slot that was written with nothing in it. A list that
// repeats a product or holds a line without a positive quantity was not
// written by Save and is reported as corrupt.
func decodeCart(raw []byte) LoadResult {
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return LoadResult{State: LoadCorrupt, Raw: raw}
	}
	if cart == nil {
		cart = domain.Cart{}
	}
	if !wellFormed(cart) {
		return LoadResult{State: LoadCorrupt, Raw: raw}
	}
	return LoadResult{State: LoadLoaded, Items: cart, Raw: raw}
}

func wellFormed(cart domain.Cart) bool {
	seen := make(map[domain.ProductID]struct{}, len(cart))
	for _, item := range cart {
		if item.Quantity <= 0 {
			return false
		}
		if _, dup := seen[item.ID]; dup {
			return false
		}
		seen[item.ID] = struct{}{}
	}
	return true
}

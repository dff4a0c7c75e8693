package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/shopcore/internal/domain/cart"
)

type cartKey struct {
	userID    string
	productID string
}

// CartRepository is the in-memory counterpart of the Redis cart store, used
// when no Redis address is configured and in tests.
type CartRepository struct {
	mu      sync.RWMutex
	entries map[cartKey]*domain.Entry
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		entries: make(map[cartKey]*domain.Entry),
	}
}

func (r *CartRepository) Get(ctx context.Context, userID, productID string) (*domain.Entry, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[cartKey{userID, productID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return entry.Clone(), nil
}

func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Entry, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Entry
	for key, entry := range r.entries {
		if key.userID == userID {
			out = append(out, entry.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *CartRepository) Save(ctx context.Context, entry *domain.Entry) error {
	_ = ctx
	if entry == nil || entry.UserID == "" || entry.ProductID == "" {
		return fmt.Errorf("cart repository: user and product ids are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[cartKey{entry.UserID, entry.ProductID}] = entry.Clone()
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID, productID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cartKey{userID, productID}
	if _, ok := r.entries[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.entries, key)
	return nil
}

func (r *CartRepository) DeleteByUser(ctx context.Context, userID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.entries {
		if key.userID == userID {
			delete(r.entries, key)
		}
	}
	return nil
}

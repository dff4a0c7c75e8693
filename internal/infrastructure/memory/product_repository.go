package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/shopcore/internal/domain/catalog"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *ProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = product.Clone()
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ID]
	if !ok {
		return domain.ErrNotFound
	}

	// Stock is owned by the atomic operations below; keep the stored value.
	clone := product.Clone()
	clone.Stock = stored.Stock
	r.products[product.ID] = clone
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Clone())
	}
	return out, nil
}

// DeductStock performs a conditional decrement under the repository lock so
// that concurrent checkouts cannot oversell.
func (r *ProductRepository) DeductStock(ctx context.Context, id string, quantity int) (int, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if product.Stock < quantity {
		return product.Stock, &domain.InsufficientStockError{
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}

	product.Stock -= quantity
	product.Touch()
	return product.Stock, nil
}

// AdjustStock applies the delta with a floor of zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}

	product.Stock += delta
	if product.Stock < 0 {
		product.Stock = 0
	}
	product.Touch()
	return product.Stock, nil
}

package catalog

import "context"

// Repository owns product persistence. Stock is mutated only through the two
// atomic operations below; callers never write Product.Stock directly.
type Repository interface {
	Insert(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)

	// DeductStock atomically subtracts quantity from the product's stock and
	// returns the remaining amount. It fails with *InsufficientStockError when
	// the current stock does not cover the quantity; nothing is written in
	// that case.
	DeductStock(ctx context.Context, id string, quantity int) (int, error)

	// AdjustStock applies delta (positive restocks, negative consumes) and
	// returns the new stock. A negative result is clamped to zero rather than
	// rejected, matching the ledger's lenient restock semantics.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// Update applies an optimistic write: it fails with ErrConflict when the
	// stored version no longer matches the one the caller loaded.
	Update(ctx context.Context, order *Order) error
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context) ([]*Order, error)
}

package payment

import "context"

type Repository interface {
	// Insert persists a new payment. It fails with ErrAlreadyExists when a
	// non-FAILED payment is already recorded for the same order.
	Insert(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	// Update applies an optimistic write: it fails with ErrConflict when the
	// stored version no longer matches the one the caller loaded.
	Update(ctx context.Context, payment *Payment) error
	// FindByOrderID returns the most recent payment for the order.
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Payment, error)
}

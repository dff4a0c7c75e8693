package cart

import "context"

type Repository interface {
	Get(ctx context.Context, userID, productID string) (*Entry, error)
	ListByUser(ctx context.Context, userID string) ([]*Entry, error)
	// Save upserts the entry for its (user, product) pair.
	Save(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, userID, productID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

package order

import (
	"context"

	domcart "github.com/Zhima-Mochi/shopcore/internal/domain/cart"
)

type IDGenerator interface {
	NewID() string
}

// CartPort is the slice of the cart service checkout depends on.
type CartPort interface {
	ValidateForCheckout(ctx context.Context, userID string) ([]*domcart.Entry, error)
	Clear(ctx context.Context, userID string) error
}

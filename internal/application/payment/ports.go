package payment

import (
	"context"

	domorder "github.com/Zhima-Mochi/shopcore/internal/domain/order"
)

type IDGenerator interface {
	NewID() string
}

// OrderLedger is the slice of the order service the reconciler drives.
type OrderLedger interface {
	Get(ctx context.Context, id string) (*domorder.Order, error)
	AttachGatewayOrder(ctx context.Context, orderID, gatewayOrderID string) error
	MarkPaid(ctx context.Context, orderID string) error
	MarkFailed(ctx context.Context, orderID, reason string) error
}

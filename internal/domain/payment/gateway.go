package payment

import "context"

// Gateway is the remote payment capability consumed as a black box. Amounts
// are expressed in the gateway's minor currency unit.
type Gateway interface {
	// CreateIntent creates a remote payment intent and returns the gateway's
	// opaque order reference.
	CreateIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
}

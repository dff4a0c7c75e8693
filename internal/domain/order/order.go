package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: conflict")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrNoItems           = errors.New("order: at least one item is required")
)

// Item is an immutable snapshot of a product at checkout time. Name and Price
// are captured when the order is created and never follow later catalog edits.
type Item struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
	Subtotal  decimal.Decimal
}

func NewItem(productID, name string, quantity int, price decimal.Decimal) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	return Item{
		ProductID: productID,
		Name:      name,
		Quantity:  quantity,
		Price:     price,
		Subtotal:  price.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

type Order struct {
	ID              string
	UserID          string
	Items           []Item
	TotalAmount     decimal.Decimal
	Status          Status
	ShippingAddress string
	GatewayOrderID  string
	FailureReason   string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds an order in CREATED status. TotalAmount is fixed here as the sum
// of item subtotals and is never recomputed afterwards.
func New(id, userID, shippingAddress string, items []Item) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total = total.Add(item.Subtotal)
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		UserID:          userID,
		Items:           append([]Item(nil), items...),
		TotalAmount:     total,
		Status:          StatusCreated,
		ShippingAddress: shippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// AttachGatewayOrder records the remote payment intent reference and moves the
// order to PENDING_PAYMENT.
func (o *Order) AttachGatewayOrder(gatewayOrderID string) error {
	if err := o.transition(StatusPendingPayment); err != nil {
		return err
	}
	o.GatewayOrderID = gatewayOrderID
	return nil
}

// MarkPaid settles the order. Re-marking a PAID order is a no-op so that
// replayed confirmations do not fail.
func (o *Order) MarkPaid() error {
	if o.Status == StatusPaid {
		return nil
	}
	return o.transition(StatusPaid)
}

// MarkFailed records a payment failure. Already-failed orders absorb the call.
func (o *Order) MarkFailed(reason string) error {
	if o.Status == StatusFailed {
		return nil
	}
	if err := o.transition(StatusFailed); err != nil {
		return err
	}
	o.FailureReason = reason
	return nil
}

// Cancel rejects cancellation once the order is paid or further along.
func (o *Order) Cancel() error {
	if !o.Status.Cancellable() {
		return fmt.Errorf("%w: cannot cancel order with status %s", ErrInvalidTransition, o.Status)
	}
	return o.transition(StatusCancelled)
}

func (o *Order) transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

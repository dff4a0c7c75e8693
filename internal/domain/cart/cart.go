package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart: item not found")
	ErrEmpty           = errors.New("cart: cart is empty")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Entry is one (user, product) line in a cart. The pair is unique; adding the
// same product again merges quantities instead of creating a second entry.
// An entry is not a stock reservation.
type Entry struct {
	UserID    string
	ProductID string
	Quantity  int
	UpdatedAt time.Time
}

func NewEntry(userID, productID string, quantity int) (*Entry, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Entry{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (e *Entry) SetQuantity(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	e.Quantity = quantity
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

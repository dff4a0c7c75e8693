package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("catalog: product not found")
	ErrInvalidPrice = errors.New("catalog: price must be zero or greater")
	ErrInvalidStock = errors.New("catalog: stock must be zero or greater")
)

// InsufficientStockError reports a stock shortfall for a specific product.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("catalog: insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(id, name, description, category string, price decimal.Decimal, stock int) (*Product, error) {
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	now := time.Now().UTC()
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Category:    category,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// HasStock reports whether the product currently covers the requested quantity.
// It is a point-in-time check, not a reservation.
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

func (p *Product) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/Zhima-Mochi/shopcore/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/shopcore/internal/domain/catalog"
	"github.com/Zhima-Mochi/shopcore/internal/pkg/logging"
)

type Service struct {
	repo        domain.Repository
	catalogRepo domcatalog.Repository
}

func NewService(repo domain.Repository, catalogRepo domcatalog.Repository) *Service {
	return &Service{
		repo:        repo,
		catalogRepo: catalogRepo,
	}
}

// Line is a cart entry joined with its product's current name and price.
type Line struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
}

type Cart struct {
	UserID      string
	Lines       []Line
	TotalItems  int
	TotalAmount decimal.Decimal
}

// AddItem merges the quantity into any existing entry for the same product and
// validates the combined quantity against live stock. On a stock failure the
// cart is left unchanged.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Line, error) {
	logger := logging.FromContext(ctx).With("component", "cart_service")

	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.catalogRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	newQuantity := quantity
	existing, err := s.repo.Get(ctx, userID, productID)
	switch {
	case err == nil:
		newQuantity += existing.Quantity
	case errors.Is(err, domain.ErrNotFound):
		// first entry for this product
	default:
		return nil, fmt.Errorf("cart: lookup: %w", err)
	}

	if !product.HasStock(newQuantity) {
		return nil, &domcatalog.InsufficientStockError{
			ProductName: product.Name,
			Requested:   newQuantity,
			Available:   product.Stock,
		}
	}

	entry, err := domain.NewEntry(userID, productID, newQuantity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, entry); err != nil {
		logger.Errorw("cart_save_failed", "user_id", userID, "product_id", productID, "error", err)
		return nil, fmt.Errorf("cart: save: %w", err)
	}

	logger.Infow("cart_item_added", "user_id", userID, "product_id", productID, "quantity", newQuantity)
	return lineFor(entry, product), nil
}

// UpdateQuantity replaces the entry's quantity after validating it against
// live stock.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*Line, error) {
	logger := logging.FromContext(ctx).With("component", "cart_service")

	entry, err := s.repo.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	product, err := s.catalogRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	if quantity > 0 && !product.HasStock(quantity) {
		return nil, &domcatalog.InsufficientStockError{
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}

	if err := entry.SetQuantity(quantity); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}

	logger.Infow("cart_item_updated", "user_id", userID, "product_id", productID, "quantity", quantity)
	return lineFor(entry, product), nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	logger := logging.FromContext(ctx).With("component", "cart_service")

	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		return err
	}
	logger.Infow("cart_item_removed", "user_id", userID, "product_id", productID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	logger := logging.FromContext(ctx).With("component", "cart_service")

	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	logger.Infow("cart_cleared", "user_id", userID)
	return nil
}

// GetCart joins entries with live product data. Entries whose product no
// longer exists are dropped from the cart on the way.
func (s *Service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	logger := logging.FromContext(ctx).With("component", "cart_service")

	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &Cart{UserID: userID, TotalAmount: decimal.Zero}
	for _, entry := range entries {
		product, err := s.catalogRepo.Get(ctx, entry.ProductID)
		if errors.Is(err, domcatalog.ErrNotFound) {
			logger.Warnw("cart_entry_orphaned", "user_id", userID, "product_id", entry.ProductID)
			_ = s.repo.Delete(ctx, userID, entry.ProductID)
			continue
		}
		if err != nil {
			return nil, err
		}

		line := lineFor(entry, product)
		result.Lines = append(result.Lines, *line)
		result.TotalItems += line.Quantity
		result.TotalAmount = result.TotalAmount.Add(line.Subtotal)
	}
	return result, nil
}

// ListEntries returns the raw entries without product joins.
func (s *Service) ListEntries(ctx context.Context, userID string) ([]*domain.Entry, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ValidateForCheckout rejects an empty cart and any line whose quantity
// exceeds live stock. It is advisory only; checkout re-checks atomically when
// it deducts.
func (s *Service) ValidateForCheckout(ctx context.Context, userID string) ([]*domain.Entry, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrEmpty
	}

	for _, entry := range entries {
		product, err := s.catalogRepo.Get(ctx, entry.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.HasStock(entry.Quantity) {
			return nil, &domcatalog.InsufficientStockError{
				ProductName: product.Name,
				Requested:   entry.Quantity,
				Available:   product.Stock,
			}
		}
	}
	return entries, nil
}

func lineFor(entry *domain.Entry, product *domcatalog.Product) *Line {
	return &Line{
		ProductID: entry.ProductID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  entry.Quantity,
		Subtotal:  product.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))),
	}
}

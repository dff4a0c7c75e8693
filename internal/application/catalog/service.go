package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/Zhima-Mochi/shopcore/internal/domain/catalog"
	"github.com/Zhima-Mochi/shopcore/internal/pkg/logging"
)

type IDGenerator interface {
	NewID() string
}

type Service struct {
	repo        domain.Repository
	idGenerator IDGenerator
}

func NewService(repo domain.Repository, idGen IDGenerator) *Service {
	return &Service{
		repo:        repo,
		idGenerator: idGen,
	}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
}

func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	logger := logging.FromContext(ctx).With("component", "catalog_service")

	if input.Name == "" {
		return nil, errors.New("catalog: product name is required")
	}

	product, err := domain.New(s.idGenerator.NewID(), input.Name, input.Description, input.Category, input.Price, input.Stock)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, product); err != nil {
		logger.Errorw("product_insert_failed", "product_id", product.ID, "error", err)
		return nil, fmt.Errorf("catalog: insert: %w", err)
	}

	logger.Infow("product_created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProductInput carries a partial update; nil fields are left unchanged.
// Stock is not updatable here, only through AdjustStock.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Active      *bool
}

func (s *Service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	logger := logging.FromContext(ctx).With("component", "catalog_service")

	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	product.Touch()

	if err := s.repo.Update(ctx, product); err != nil {
		logger.Errorw("product_update_failed", "product_id", id, "error", err)
		return nil, fmt.Errorf("catalog: update: %w", err)
	}

	logger.Infow("product_updated", "product_id", id)
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	logger := logging.FromContext(ctx).With("component", "catalog_service")

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Infow("product_deleted", "product_id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

type ListFilter struct {
	ActiveOnly bool
	Category   string
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := products[:0]
	for _, p := range products {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Search matches the keyword against product names and descriptions,
// case-insensitively.
func (s *Service) Search(ctx context.Context, keyword string) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	out := products[:0]
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

// AdjustStock applies a restock (positive) or consumption (negative) delta,
// clamped at zero.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	logger := logging.FromContext(ctx).With("component", "catalog_service")

	newStock, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return 0, err
	}
	logger.Infow("stock_adjusted", "product_id", id, "delta", delta, "stock", newStock)
	return newStock, nil
}

// HasSufficientStock is a point-in-time check with no reservation.
func (s *Service) HasSufficientStock(ctx context.Context, id string, quantity int) (bool, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return product.HasStock(quantity), nil
}

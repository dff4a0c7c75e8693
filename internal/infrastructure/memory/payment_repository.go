package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/shopcore/internal/domain/payment"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	// byOrder holds the active (latest non-FAILED, or latest) payment per order.
	byOrder   map[string]string
	byGateway map[string]string
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments:  make(map[string]*domain.Payment),
		byOrder:   make(map[string]string),
		byGateway: make(map[string]string),
	}
}

func (r *PaymentRepository) Insert(ctx context.Context, payment *domain.Payment) error {
	_ = ctx
	if payment == nil || payment.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return domain.ErrConflict
	}
	if existingID, ok := r.byOrder[payment.OrderID]; ok {
		if existing := r.payments[existingID]; existing != nil && existing.Status != domain.StatusFailed {
			return domain.ErrAlreadyExists
		}
	}

	clone := payment.Clone()
	clone.Version = 1
	r.payments[payment.ID] = clone
	r.byOrder[payment.OrderID] = payment.ID
	if payment.GatewayOrderID != "" {
		r.byGateway[payment.GatewayOrderID] = payment.ID
	}
	payment.Version = clone.Version
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return payment.Clone(), nil
}

// Update is a compare-and-swap on Version, mirroring the order repository.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	_ = ctx
	if payment == nil || payment.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.payments[payment.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if stored.Version != payment.Version {
		return domain.ErrConflict
	}

	clone := payment.Clone()
	clone.Version = stored.Version + 1
	r.payments[payment.ID] = clone
	if payment.GatewayOrderID != "" {
		r.byGateway[payment.GatewayOrderID] = payment.ID
	}
	payment.Version = clone.Version
	return nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	payment, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return payment.Clone(), nil
}

func (r *PaymentRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Payment, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byGateway[gatewayOrderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	payment, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return payment.Clone(), nil
}

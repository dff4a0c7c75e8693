package order

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domcatalog "github.com/Zhima-Mochi/shopcore/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shopcore/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shopcore/internal/domain/outbox"
	"github.com/Zhima-Mochi/shopcore/internal/pkg/logging"
)

const tracerName = "shopcore/order"

type Service struct {
	repo        domain.Repository
	catalogRepo domcatalog.Repository
	cart        CartPort
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
}

func NewService(
	repo domain.Repository,
	catalogRepo domcatalog.Repository,
	cart CartPort,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
) *Service {
	return &Service{
		repo:        repo,
		catalogRepo: catalogRepo,
		cart:        cart,
		idGenerator: idGen,
		publisher:   publisher,
	}
}

// Checkout turns the user's cart into a CREATED order. Stock is consumed per
// line through atomic conditional decrements before the order is persisted;
// any failure after a decrement restores the lines already consumed, so the
// reservation is all-or-nothing.
func (s *Service) Checkout(ctx context.Context, userID, shippingAddress string) (_ *domain.Order, err error) {
	logger := logging.FromContext(ctx).With("component", "order_service")
	logger.Infow("checkout_start", "user_id", userID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "UC.Checkout",
		trace.WithAttributes(attribute.String("order.user_id", userID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "checkout failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	if userID == "" {
		return nil, errors.New("order: user id is required")
	}

	entries, err := s.cart.ValidateForCheckout(ctx, userID)
	if err != nil {
		return nil, err
	}

	type deduction struct {
		productID string
		quantity  int
	}
	var deducted []deduction

	restore := func() {
		for _, d := range deducted {
			if _, rerr := s.catalogRepo.AdjustStock(ctx, d.productID, d.quantity); rerr != nil {
				logger.Errorw("stock_restore_failed", "product_id", d.productID, "quantity", d.quantity, "error", rerr)
			}
		}
	}

	items := make([]domain.Item, 0, len(entries))
	for _, entry := range entries {
		product, perr := s.catalogRepo.Get(ctx, entry.ProductID)
		if perr != nil {
			restore()
			return nil, perr
		}

		item, ierr := domain.NewItem(product.ID, product.Name, entry.Quantity, product.Price)
		if ierr != nil {
			restore()
			return nil, ierr
		}

		if _, derr := s.catalogRepo.DeductStock(ctx, product.ID, entry.Quantity); derr != nil {
			restore()
			return nil, derr
		}
		deducted = append(deducted, deduction{productID: product.ID, quantity: entry.Quantity})
		items = append(items, item)
	}

	entity, err := domain.New(s.idGenerator.NewID(), userID, shippingAddress, items)
	if err != nil {
		restore()
		return nil, err
	}

	if err := s.repo.Insert(ctx, entity); err != nil {
		logger.Errorw("order_insert_failed", "order_id", entity.ID, "error", err)
		restore()
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	span.SetAttributes(attribute.String("order.id", entity.ID))

	// Cart cleanup is best effort: the order is already committed.
	if cerr := s.cart.Clear(ctx, userID); cerr != nil {
		logger.Warnw("cart_clear_failed", "user_id", userID, "order_id", entity.ID, "error", cerr)
	}

	s.publish(ctx, domain.NewOrderCreatedEvent(entity))

	logger.Infow("checkout_success", "order_id", entity.ID, "total", entity.TotalAmount.String(), "items", len(entity.Items))
	return entity, nil
}

// Cancel rejects paid-or-later orders and restores stock for orders that still
// hold it. A FAILED order's stock was already released when it failed, so
// cancelling one only flips the status.
func (s *Service) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	logger := logging.FromContext(ctx).With("component", "order_service")

	entity, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	holdsStock := entity.Status == domain.StatusCreated || entity.Status == domain.StatusPendingPayment

	if err := entity.Cancel(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		logger.Errorw("order_update_failed", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("order: update: %w", err)
	}

	if holdsStock {
		s.restoreStock(ctx, entity)
	}

	s.publish(ctx, domain.NewOrderCancelledEvent(entity))

	logger.Infow("order_cancelled", "order_id", orderID)
	return entity, nil
}

// AttachGatewayOrder records the remote payment intent and moves the order to
// PENDING_PAYMENT. Called only by the payment reconciler.
func (s *Service) AttachGatewayOrder(ctx context.Context, orderID, gatewayOrderID string) error {
	entity, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if err := entity.AttachGatewayOrder(gatewayOrderID); err != nil {
		return err
	}
	return s.repo.Update(ctx, entity)
}

// MarkPaid settles the order. Replays against an already-PAID order are
// absorbed, including the case where a concurrent writer won the update race.
func (s *Service) MarkPaid(ctx context.Context, orderID string) error {
	logger := logging.FromContext(ctx).With("component", "order_service")

	entity, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if entity.Status == domain.StatusPaid {
		return nil
	}
	if err := entity.MarkPaid(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.settledElsewhere(ctx, orderID, domain.StatusPaid, err)
		}
		return fmt.Errorf("order: update: %w", err)
	}

	s.publish(ctx, domain.NewOrderPaidEvent(entity))

	logger.Infow("order_marked_paid", "order_id", orderID)
	return nil
}

// MarkFailed fails the order and releases its stock. Called only by the
// payment reconciler; replays are absorbed without touching stock twice.
func (s *Service) MarkFailed(ctx context.Context, orderID, reason string) error {
	logger := logging.FromContext(ctx).With("component", "order_service")

	entity, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if entity.Status == domain.StatusFailed {
		return nil
	}
	if err := entity.MarkFailed(reason); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.settledElsewhere(ctx, orderID, domain.StatusFailed, err)
		}
		return fmt.Errorf("order: update: %w", err)
	}

	s.restoreStock(ctx, entity)
	s.publish(ctx, domain.NewOrderFailedEvent(entity, reason))

	logger.Warnw("order_marked_failed", "order_id", orderID, "reason", reason)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

// settledElsewhere resolves an update conflict: if the stored order already
// reached the target status, the racing transition wins and this call is a
// successful no-op.
func (s *Service) settledElsewhere(ctx context.Context, orderID string, want domain.Status, cause error) error {
	current, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if current.Status == want {
		return nil
	}
	return fmt.Errorf("order: update: %w", cause)
}

func (s *Service) restoreStock(ctx context.Context, entity *domain.Order) {
	logger := logging.FromContext(ctx).With("component", "order_service")
	for _, item := range entity.Items {
		if _, err := s.catalogRepo.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Errorw("stock_restore_failed", "order_id", entity.ID, "product_id", item.ProductID, "error", err)
		}
	}
}

func (s *Service) publish(ctx context.Context, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warnw("event_publish_failed", "event", e.EventName(), "error", err)
	}
}

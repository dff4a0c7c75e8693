package payment

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	domorder "github.com/Zhima-Mochi/shopcore/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shopcore/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/shopcore/internal/domain/payment"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/shopcore/internal/pkg/logging"
)

const tracerName = "shopcore/payment"

// Config carries the gateway credentials the reconciler needs beyond the
// client itself.
type Config struct {
	Currency      string
	KeySecret     string
	WebhookSecret string
}

type Service struct {
	repo        domain.Repository
	gateway     domain.Gateway
	orders      OrderLedger
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	cfg         Config
}

func NewService(
	repo domain.Repository,
	gw domain.Gateway,
	orders OrderLedger,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	cfg Config,
) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Service{
		repo:        repo,
		gateway:     gw,
		orders:      orders,
		idGenerator: idGen,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// CreatePayment opens a payment intent at the gateway for a CREATED order and
// records a PENDING payment against it. The charged amount always comes from
// the order ledger, never from the caller.
func (s *Service) CreatePayment(ctx context.Context, orderID string) (*domain.Payment, error) {
	logger := logging.FromContext(ctx).With("component", "payment_service")

	ctx, span := otel.Tracer(tracerName).Start(ctx, "UC.CreatePayment")
	span.SetAttributes(attribute.String("order.id", orderID))
	defer span.End()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domorder.StatusCreated {
		return nil, fmt.Errorf("%w: order %s has status %s", domain.ErrOrderNotPayable, orderID, order.Status)
	}

	existing, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status != domain.StatusFailed {
		return nil, domain.ErrAlreadyExists
	}

	amountMinor := order.TotalAmount.Shift(2).IntPart()
	receipt := "order_" + orderID

	gatewayOrderID, err := s.gateway.CreateIntent(ctx, amountMinor, s.cfg.Currency, receipt)
	if err != nil {
		logger.Errorw("gateway_create_intent_failed", "order_id", orderID, "error", err)
		return nil, &domain.GatewayError{Op: "create intent", Err: err}
	}

	entity := domain.New(s.idGenerator.NewID(), orderID, order.TotalAmount, s.cfg.Currency, gatewayOrderID)
	if err := s.repo.Insert(ctx, entity); err != nil {
		return nil, err
	}

	if err := s.orders.AttachGatewayOrder(ctx, orderID, gatewayOrderID); err != nil {
		logger.Errorw("attach_gateway_order_failed", "order_id", orderID, "gateway_order_id", gatewayOrderID, "error", err)
		return nil, err
	}

	logger.Infow("payment_created", "payment_id", entity.ID, "order_id", orderID,
		"gateway_order_id", gatewayOrderID, "amount_minor", amountMinor)
	return entity, nil
}

// VerifyPayment checks the signature the client returns after the hosted
// checkout flow. The expected signature is the HMAC of
// "<gatewayOrderID>|<gatewayPaymentID>" under the key secret. A mismatch fails
// both the payment and its order.
func (s *Service) VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Payment, error) {
	logger := logging.FromContext(ctx).With("component", "payment_service")

	ctx, span := otel.Tracer(tracerName).Start(ctx, "UC.VerifyPayment")
	span.SetAttributes(attribute.String("payment.gateway_order_id", gatewayOrderID))
	defer span.End()

	entity, err := s.repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	payload := gatewayOrderID + "|" + gatewayPaymentID
	if !gateway.VerifySignature(payload, signature, s.cfg.KeySecret) {
		logger.Warnw("signature_mismatch", "payment_id", entity.ID, "order_id", entity.OrderID,
			"gateway_order_id", gatewayOrderID)
		if ferr := s.failPayment(ctx, entity, "signature verification failed"); ferr != nil {
			logger.Errorw("mark_failed_after_mismatch", "payment_id", entity.ID, "error", ferr)
		}
		return nil, domain.ErrSignatureMismatch
	}

	if entity.Status.Settled() {
		return entity, nil
	}

	if err := entity.MarkSuccess(gatewayPaymentID, signature); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.reloadIfSettled(ctx, entity.ID, err)
		}
		return nil, err
	}

	if err := s.orders.MarkPaid(ctx, entity.OrderID); err != nil {
		logger.Errorw("order_mark_paid_failed", "order_id", entity.OrderID, "error", err)
		return nil, err
	}

	s.publish(ctx, domain.NewPaymentCapturedEvent(entity))

	logger.Infow("payment_verified", "payment_id", entity.ID, "order_id", entity.OrderID)
	return entity, nil
}

// HandleWebhookCapture settles the payment from the gateway's asynchronous
// confirmation. Replays and races with the verification path converge on the
// same settled state without error.
func (s *Service) HandleWebhookCapture(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	logger := logging.FromContext(ctx).With("component", "payment_service")

	entity, err := s.repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	if entity.Status.Settled() {
		return nil
	}

	if err := entity.MarkCaptured(gatewayPaymentID); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			_, rerr := s.reloadIfSettled(ctx, entity.ID, err)
			return rerr
		}
		return err
	}

	if err := s.orders.MarkPaid(ctx, entity.OrderID); err != nil {
		logger.Errorw("order_mark_paid_failed", "order_id", entity.OrderID, "error", err)
		return err
	}

	s.publish(ctx, domain.NewPaymentCapturedEvent(entity))

	logger.Infow("payment_captured", "payment_id", entity.ID, "order_id", entity.OrderID,
		"gateway_payment_id", gatewayPaymentID)
	return nil
}

// HandleWebhookFailure fails the payment and its order from the gateway's
// rejection notice. Repeated notices are absorbed.
func (s *Service) HandleWebhookFailure(ctx context.Context, gatewayOrderID, reason string) error {
	logger := logging.FromContext(ctx).With("component", "payment_service")

	entity, err := s.repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	if entity.Status == domain.StatusFailed {
		return nil
	}
	if reason == "" {
		reason = "payment failed at gateway"
	}

	if err := s.failPayment(ctx, entity, reason); err != nil {
		return err
	}

	logger.Warnw("payment_failed", "payment_id", entity.ID, "order_id", entity.OrderID, "reason", reason)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Payment, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return s.repo.FindByOrderID(ctx, orderID)
}

// failPayment fails the payment record, propagates the failure to the order
// ledger, and emits the failure event.
func (s *Service) failPayment(ctx context.Context, entity *domain.Payment, reason string) error {
	if err := entity.MarkFailed(reason); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			current, gerr := s.repo.Get(ctx, entity.ID)
			if gerr != nil {
				return gerr
			}
			if current.Status == domain.StatusFailed {
				return nil
			}
			return err
		}
		return err
	}

	if err := s.orders.MarkFailed(ctx, entity.OrderID, reason); err != nil {
		return err
	}

	s.publish(ctx, domain.NewPaymentFailedEvent(entity))
	return nil
}

// reloadIfSettled resolves an update conflict on the settlement path: when the
// stored payment already settled, the racing writer wins and this call
// succeeds with the stored state.
func (s *Service) reloadIfSettled(ctx context.Context, id string, cause error) (*domain.Payment, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Settled() {
		return current, nil
	}
	return nil, cause
}

func (s *Service) publish(ctx context.Context, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warnw("event_publish_failed", "event", e.EventName(), "error", err)
	}
}

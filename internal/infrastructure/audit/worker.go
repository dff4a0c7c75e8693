package audit

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	domorder "github.com/Zhima-Mochi/shopcore/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/shopcore/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/shopcore/internal/domain/payment"
)

// Worker subscribes to order and payment lifecycle events and turns them into
// metrics and an audit log line per event.
type Worker struct {
	subscriber domoutbox.Subscriber
	events     *prometheus.CounterVec
	log        *zap.SugaredLogger
}

func New(subscriber domoutbox.Subscriber, events *prometheus.CounterVec, logger *zap.SugaredLogger) *Worker {
	return &Worker{
		subscriber: subscriber,
		events:     events,
		log:        logger.With("component", "audit_worker"),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderCreatedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domorder.OrderPaidEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domorder.OrderFailedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domorder.OrderCancelledEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(dompayment.PaymentCapturedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(dompayment.PaymentFailedEvent{}.EventName(), w.handle)
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) error {
	_ = ctx
	name := e.EventName()
	if w.events != nil {
		w.events.WithLabelValues(name).Inc()
	}

	switch evt := e.(type) {
	case domorder.OrderCreatedEvent:
		w.log.Infow("order_created", "order_id", evt.OrderID, "user_id", evt.UserID,
			"items", evt.ItemCount, "total", evt.TotalAmount)
	case domorder.OrderPaidEvent:
		w.log.Infow("order_paid", "order_id", evt.OrderID)
	case domorder.OrderFailedEvent:
		w.log.Warnw("order_failed", "order_id", evt.OrderID, "reason", evt.Reason)
	case domorder.OrderCancelledEvent:
		w.log.Infow("order_cancelled", "order_id", evt.OrderID)
	case dompayment.PaymentCapturedEvent:
		w.log.Infow("payment_captured", "payment_id", evt.PaymentID, "order_id", evt.OrderID)
	case dompayment.PaymentFailedEvent:
		w.log.Warnw("payment_failed", "payment_id", evt.PaymentID, "order_id", evt.OrderID, "reason", evt.Reason)
	default:
		w.log.Debugw("event_observed", "event", name)
	}
	return nil
}

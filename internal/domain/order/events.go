package order

import "time"

// OrderCreatedEvent is emitted when checkout persists a new order.
type OrderCreatedEvent struct {
	OrderID     string
	UserID      string
	ItemCount   int
	TotalAmount string
	OccurredAt  time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		ItemCount:   len(o.Items),
		TotalAmount: o.TotalAmount.String(),
		OccurredAt:  time.Now().UTC(),
	}
}

// OrderPaidEvent is emitted when payment reconciliation settles an order.
type OrderPaidEvent struct {
	OrderID    string
	OccurredAt time.Time
}

func (OrderPaidEvent) EventName() string { return "order.paid" }

func NewOrderPaidEvent(o *Order) OrderPaidEvent {
	return OrderPaidEvent{OrderID: o.ID, OccurredAt: time.Now().UTC()}
}

// OrderFailedEvent is emitted when a payment failure cascades to the order.
type OrderFailedEvent struct {
	OrderID    string
	Reason     string
	OccurredAt time.Time
}

func (OrderFailedEvent) EventName() string { return "order.failed" }

func NewOrderFailedEvent(o *Order, reason string) OrderFailedEvent {
	return OrderFailedEvent{OrderID: o.ID, Reason: reason, OccurredAt: time.Now().UTC()}
}

// OrderCancelledEvent is emitted when a cancel request succeeds.
type OrderCancelledEvent struct {
	OrderID    string
	OccurredAt time.Time
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order) OrderCancelledEvent {
	return OrderCancelledEvent{OrderID: o.ID, OccurredAt: time.Now().UTC()}
}

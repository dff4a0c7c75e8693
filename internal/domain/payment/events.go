package payment

import "time"

// PaymentCapturedEvent is emitted when a payment settles, from either the
// verification or the webhook path.
type PaymentCapturedEvent struct {
	PaymentID  string
	OrderID    string
	OccurredAt time.Time
}

func (PaymentCapturedEvent) EventName() string { return "payment.captured" }

func NewPaymentCapturedEvent(p *Payment) PaymentCapturedEvent {
	return PaymentCapturedEvent{PaymentID: p.ID, OrderID: p.OrderID, OccurredAt: time.Now().UTC()}
}

// PaymentFailedEvent is emitted when a payment is rejected.
type PaymentFailedEvent struct {
	PaymentID  string
	OrderID    string
	Reason     string
	OccurredAt time.Time
}

func (PaymentFailedEvent) EventName() string { return "payment.failed" }

func NewPaymentFailedEvent(p *Payment) PaymentFailedEvent {
	return PaymentFailedEvent{PaymentID: p.ID, OrderID: p.OrderID, Reason: p.FailureReason, OccurredAt: time.Now().UTC()}
}

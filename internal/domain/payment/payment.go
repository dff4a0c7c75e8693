package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("payment: not found")
	ErrConflict          = errors.New("payment: conflict")
	ErrAlreadyExists     = errors.New("payment: payment already exists for this order")
	ErrOrderNotPayable   = errors.New("payment: order is not in a payable status")
	ErrSignatureMismatch = errors.New("payment: signature verification failed")
	ErrInvalidTransition = errors.New("payment: invalid status transition")
)

// GatewayError wraps a failure from the remote payment gateway.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAuthorized Status = "AUTHORIZED"
	StatusCaptured   Status = "CAPTURED"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusRefunded   Status = "REFUNDED"
)

// Settled reports whether the payment has reached a successful terminal state.
func (s Status) Settled() bool {
	return s == StatusCaptured || s == StatusSuccess
}

// Payment tracks one attempt to collect an order's total through the gateway.
// At most one non-FAILED payment exists per order.
type Payment struct {
	ID               string
	OrderID          string
	Amount           decimal.Decimal
	Currency         string
	Status           Status
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	FailureReason    string
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// New creates a PENDING payment bound to the remote intent reference returned
// by the gateway.
func New(id, orderID string, amount decimal.Decimal, currency, gatewayOrderID string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:             id,
		OrderID:        orderID,
		Amount:         amount,
		Currency:       currency,
		Status:         StatusPending,
		GatewayOrderID: gatewayOrderID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// MarkAuthorized records the gateway's authorization ahead of capture.
func (p *Payment) MarkAuthorized(gatewayPaymentID string) error {
	if p.Status == StatusAuthorized {
		return nil
	}
	if p.Status != StatusPending {
		return p.transitionErr(StatusAuthorized)
	}
	p.Status = StatusAuthorized
	p.GatewayPaymentID = gatewayPaymentID
	p.touch()
	return nil
}

// MarkCaptured settles the payment from the asynchronous webhook path.
// Replays against an already-settled payment are absorbed.
func (p *Payment) MarkCaptured(gatewayPaymentID string) error {
	if p.Status.Settled() {
		return nil
	}
	if p.Status != StatusPending && p.Status != StatusAuthorized {
		return p.transitionErr(StatusCaptured)
	}
	p.Status = StatusCaptured
	p.GatewayPaymentID = gatewayPaymentID
	p.FailureReason = ""
	p.touch()
	return nil
}

// MarkSuccess settles the payment from the synchronous verification path,
// recording the gateway reference and the verified signature.
func (p *Payment) MarkSuccess(gatewayPaymentID, signature string) error {
	if p.Status.Settled() {
		return nil
	}
	if p.Status != StatusPending && p.Status != StatusAuthorized {
		return p.transitionErr(StatusSuccess)
	}
	p.Status = StatusSuccess
	p.GatewayPaymentID = gatewayPaymentID
	p.Signature = signature
	p.FailureReason = ""
	p.touch()
	return nil
}

// MarkFailed records a rejection with its reason. Repeated failure reports are
// absorbed; a settled payment cannot fail afterwards.
func (p *Payment) MarkFailed(reason string) error {
	if p.Status == StatusFailed {
		return nil
	}
	if p.Status.Settled() || p.Status == StatusRefunded {
		return p.transitionErr(StatusFailed)
	}
	p.Status = StatusFailed
	p.FailureReason = reason
	p.touch()
	return nil
}

// MarkRefunded moves a settled payment to REFUNDED.
func (p *Payment) MarkRefunded() error {
	if p.Status == StatusRefunded {
		return nil
	}
	if !p.Status.Settled() {
		return p.transitionErr(StatusRefunded)
	}
	p.Status = StatusRefunded
	p.touch()
	return nil
}

func (p *Payment) transitionErr(to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

package order

type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusProcessing     Status = "PROCESSING"
	StatusShipped        Status = "SHIPPED"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusFailed         Status = "FAILED"
)

// validNext encodes the order lifecycle. PROCESSING onward is driven by
// fulfillment outside the payment flow; the guards still apply.
var validNext = map[Status]map[Status]bool{
	StatusCreated:        {StatusPendingPayment: true, StatusPaid: true, StatusCancelled: true, StatusFailed: true},
	StatusPendingPayment: {StatusPaid: true, StatusCancelled: true, StatusFailed: true},
	StatusPaid:           {StatusProcessing: true},
	StatusProcessing:     {StatusShipped: true},
	StatusShipped:        {StatusDelivered: true},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusFailed:         {StatusCancelled: true},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Cancellable reports whether a cancel request is accepted in this status.
func (s Status) Cancellable() bool {
	return validNext[s][StatusCancelled]
}

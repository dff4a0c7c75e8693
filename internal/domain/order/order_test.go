package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func makeItems(t *testing.T) []Item {
	t.Helper()
	first, err := NewItem("p1", "Keyboard", 2, decimal.NewFromInt(100))
	require.NoError(t, err)
	second, err := NewItem("p2", "Mouse", 1, decimal.NewFromInt(50))
	require.NoError(t, err)
	return []Item{first, second}
}

func TestNewComputesTotal(t *testing.T) {
	o, err := New("o1", "u1", "addr", makeItems(t))
	require.NoError(t, err)
	require.Equal(t, StatusCreated, o.Status)
	require.True(t, o.TotalAmount.Equal(decimal.NewFromInt(250)), "got %s", o.TotalAmount)
}

func TestNewRejectsEmptyItems(t *testing.T) {
	_, err := New("o1", "u1", "addr", nil)
	require.ErrorIs(t, err, ErrNoItems)
}

func TestNewItemRejectsZeroQuantity(t *testing.T) {
	_, err := NewItem("p1", "Keyboard", 0, decimal.NewFromInt(100))
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAttachGatewayOrder(t *testing.T) {
	o, err := New("o1", "u1", "addr", makeItems(t))
	require.NoError(t, err)

	require.NoError(t, o.AttachGatewayOrder("gw_1"))
	require.Equal(t, StatusPendingPayment, o.Status)
	require.Equal(t, "gw_1", o.GatewayOrderID)

	// second intent against an already pending order is rejected
	require.ErrorIs(t, o.AttachGatewayOrder("gw_2"), ErrInvalidTransition)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	o, err := New("o1", "u1", "addr", makeItems(t))
	require.NoError(t, err)
	require.NoError(t, o.AttachGatewayOrder("gw_1"))

	require.NoError(t, o.MarkPaid())
	require.Equal(t, StatusPaid, o.Status)
	require.NoError(t, o.MarkPaid())
	require.Equal(t, StatusPaid, o.Status)
}

func TestMarkFailedRecordsReason(t *testing.T) {
	o, err := New("o1", "u1", "addr", makeItems(t))
	require.NoError(t, err)
	require.NoError(t, o.AttachGatewayOrder("gw_1"))

	require.NoError(t, o.MarkFailed("card declined"))
	require.Equal(t, StatusFailed, o.Status)
	require.Equal(t, "card declined", o.FailureReason)

	// replayed failure is absorbed
	require.NoError(t, o.MarkFailed("card declined again"))
	require.Equal(t, "card declined", o.FailureReason)
}

func TestCancelRejectedAfterPayment(t *testing.T) {
	o, err := New("o1", "u1", "addr", makeItems(t))
	require.NoError(t, err)
	require.NoError(t, o.AttachGatewayOrder("gw_1"))
	require.NoError(t, o.MarkPaid())

	require.ErrorIs(t, o.Cancel(), ErrInvalidTransition)
	require.Equal(t, StatusPaid, o.Status)
}

func TestCancelFromFailed(t *testing.T) {
	o, err := New("o1", "u1", "addr", makeItems(t))
	require.NoError(t, err)
	require.NoError(t, o.MarkFailed("gateway down"))
	require.NoError(t, o.Cancel())
	require.Equal(t, StatusCancelled, o.Status)
}

func TestFulfillmentTransitions(t *testing.T) {
	require.True(t, CanTransition(StatusPaid, StatusProcessing))
	require.True(t, CanTransition(StatusProcessing, StatusShipped))
	require.True(t, CanTransition(StatusShipped, StatusDelivered))

	require.False(t, CanTransition(StatusPaid, StatusShipped))
	require.False(t, CanTransition(StatusDelivered, StatusCancelled))
	require.False(t, CanTransition(StatusCancelled, StatusCreated))
}

func TestCloneIsolatesItems(t *testing.T) {
	o, err := New("o1", "u1", "addr", makeItems(t))
	require.NoError(t, err)

	clone := o.Clone()
	clone.Items[0].Quantity = 99
	require.Equal(t, 2, o.Items[0].Quantity)
}

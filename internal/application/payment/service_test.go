package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appcart "github.com/Zhima-Mochi/shopcore/internal/application/cart"
	apporder "github.com/Zhima-Mochi/shopcore/internal/application/order"
	domcatalog "github.com/Zhima-Mochi/shopcore/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shopcore/internal/domain/order"
	domain "github.com/Zhima-Mochi/shopcore/internal/domain/payment"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/id"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/memory"
)

const testKeySecret = "test_key_secret"

type fakeGateway struct {
	calls       int
	lastAmount  int64
	lastReceipt string
	err         error
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountMinor int64, _ string, receipt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.calls++
	g.lastAmount = amountMinor
	g.lastReceipt = receipt
	return fmt.Sprintf("gw_order_%d", g.calls), nil
}

type fixture struct {
	service  *Service
	orders   *apporder.Service
	cart     *appcart.Service
	products *memory.ProductRepository
	gateway  *fakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := memory.NewProductRepository()
	cartSvc := appcart.NewService(memory.NewCartRepository(), products)
	orderSvc := apporder.NewService(memory.NewOrderRepository(), products, cartSvc, id.NewUUIDGenerator(), nil)
	gw := &fakeGateway{}
	svc := NewService(memory.NewPaymentRepository(), gw, orderSvc, id.NewUUIDGenerator(), nil, Config{
		Currency:  "INR",
		KeySecret: testKeySecret,
	})
	return &fixture{service: svc, orders: orderSvc, cart: cartSvc, products: products, gateway: gw}
}

// placeOrder seeds stock, fills the cart, and checks out one order totalling 250.
func (f *fixture) placeOrder(t *testing.T, userID string) *domorder.Order {
	t.Helper()
	ctx := context.Background()

	productID := "p_" + userID
	if _, err := f.products.Get(ctx, productID); errors.Is(err, domcatalog.ErrNotFound) {
		product, perr := domcatalog.New(productID, "Widget", "", "gadgets", decimal.NewFromInt(125), 100)
		require.NoError(t, perr)
		require.NoError(t, f.products.Insert(ctx, product))
	}

	_, err := f.cart.AddItem(ctx, userID, productID, 2)
	require.NoError(t, err)
	order, err := f.orders.Checkout(ctx, userID, "addr")
	require.NoError(t, err)
	return order
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	product, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func TestCreatePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	payment, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, payment.Status)
	require.Equal(t, "gw_order_1", payment.GatewayOrderID)
	require.True(t, payment.Amount.Equal(decimal.NewFromInt(250)))

	// amount is forwarded in minor units with the order id as receipt
	require.Equal(t, int64(25000), f.gateway.lastAmount)
	require.Equal(t, "order_"+order.ID, f.gateway.lastReceipt)

	// the order moved to PENDING_PAYMENT with the intent attached
	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusPendingPayment, stored.Status)
	require.Equal(t, "gw_order_1", stored.GatewayOrderID)
}

func TestCreatePaymentRejectsNonCreatedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	_, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.service.CreatePayment(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotPayable)
}

func TestCreatePaymentGatewayFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	f.gateway.err = errors.New("gateway down")
	_, err := f.service.CreatePayment(ctx, order.ID)

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)

	// the order stays payable for a retry
	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusCreated, stored.Status)
}

func TestCreatePaymentUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CreatePayment(context.Background(), "ghost")
	require.ErrorIs(t, err, domorder.ErrNotFound)
}

func TestVerifyPaymentSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	payment, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)

	sig := gateway.Sign(payment.GatewayOrderID+"|rzp_pay_1", testKeySecret)
	verified, err := f.service.VerifyPayment(ctx, payment.GatewayOrderID, "rzp_pay_1", sig)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, verified.Status)
	require.Equal(t, "rzp_pay_1", verified.GatewayPaymentID)

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusPaid, stored.Status)
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")
	productID := "p_u1"
	require.Equal(t, 98, f.stock(t, productID))

	payment, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)

	sig := gateway.Sign(payment.GatewayOrderID+"|rzp_pay_1", "wrong_secret")
	_, err = f.service.VerifyPayment(ctx, payment.GatewayOrderID, "rzp_pay_1", sig)
	require.ErrorIs(t, err, domain.ErrSignatureMismatch)

	// the failure cascades: payment FAILED, order FAILED, stock restored
	stored, err := f.service.Get(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, stored.Status)

	failedOrder, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusFailed, failedOrder.Status)
	require.Equal(t, 100, f.stock(t, productID))
}

func TestVerifyPaymentUnknownGatewayOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.VerifyPayment(context.Background(), "ghost", "rzp_pay_1", "sig")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWebhookCaptureSettles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	payment, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.HandleWebhookCapture(ctx, payment.GatewayOrderID, "rzp_pay_1"))

	stored, err := f.service.Get(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCaptured, stored.Status)

	paidOrder, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusPaid, paidOrder.Status)
}

func TestWebhookCaptureReplayIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	payment, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.HandleWebhookCapture(ctx, payment.GatewayOrderID, "rzp_pay_1"))
	require.NoError(t, f.service.HandleWebhookCapture(ctx, payment.GatewayOrderID, "rzp_pay_1"))

	stored, err := f.service.Get(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCaptured, stored.Status)
}

func TestWebhookCaptureAfterVerifyIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	payment, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)

	sig := gateway.Sign(payment.GatewayOrderID+"|rzp_pay_1", testKeySecret)
	_, err = f.service.VerifyPayment(ctx, payment.GatewayOrderID, "rzp_pay_1", sig)
	require.NoError(t, err)

	require.NoError(t, f.service.HandleWebhookCapture(ctx, payment.GatewayOrderID, "rzp_pay_1"))

	stored, err := f.service.Get(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, stored.Status)
}

func TestWebhookFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")
	productID := "p_u1"

	payment, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.HandleWebhookFailure(ctx, payment.GatewayOrderID, "insufficient funds"))
	// replay is absorbed
	require.NoError(t, f.service.HandleWebhookFailure(ctx, payment.GatewayOrderID, "insufficient funds"))

	stored, err := f.service.Get(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, stored.Status)
	require.Equal(t, "insufficient funds", stored.FailureReason)

	failedOrder, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusFailed, failedOrder.Status)
	require.Equal(t, 100, f.stock(t, productID))
}

func TestRetryAfterFailedPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	payment, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.service.HandleWebhookFailure(ctx, payment.GatewayOrderID, "declined"))

	// the failed order is terminal; a second payment attempt is rejected
	_, err = f.service.CreatePayment(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotPayable)
}

func TestGetByOrderID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	created, err := f.service.CreatePayment(ctx, order.ID)
	require.NoError(t, err)

	found, err := f.service.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = f.service.GetByOrderID(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

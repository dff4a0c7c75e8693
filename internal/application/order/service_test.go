package order

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appcart "github.com/Zhima-Mochi/shopcore/internal/application/cart"
	domcart "github.com/Zhima-Mochi/shopcore/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/shopcore/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shopcore/internal/domain/order"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/id"
	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/memory"
)

type fixture struct {
	service  *Service
	orders   *flakyOrderRepo
	products *memory.ProductRepository
	cart     *appcart.Service
}

// flakyOrderRepo lets a test fail the next insert to exercise compensation.
type flakyOrderRepo struct {
	domain.Repository
	failNextInsert bool
}

func (r *flakyOrderRepo) Insert(ctx context.Context, o *domain.Order) error {
	if r.failNextInsert {
		r.failNextInsert = false
		return errors.New("storage unavailable")
	}
	return r.Repository.Insert(ctx, o)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := memory.NewProductRepository()
	cartSvc := appcart.NewService(memory.NewCartRepository(), products)
	orders := &flakyOrderRepo{Repository: memory.NewOrderRepository()}
	svc := NewService(orders, products, cartSvc, id.NewUUIDGenerator(), nil)
	return &fixture{service: svc, orders: orders, products: products, cart: cartSvc}
}

func (f *fixture) seedProduct(t *testing.T, id string, price int64, stock int) {
	t.Helper()
	product, err := domcatalog.New(id, "Widget "+id, "", "gadgets", decimal.NewFromInt(price), stock)
	require.NoError(t, err)
	require.NoError(t, f.products.Insert(context.Background(), product))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	product, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func TestCheckoutCreatesOrderAndConsumesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)
	f.seedProduct(t, "p2", 50, 5)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, "u1", "p2", 3)
	require.NoError(t, err)

	order, err := f.service.Checkout(ctx, "u1", "1 Main St")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCreated, order.Status)
	require.Len(t, order.Items, 2)
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(350)), "got %s", order.TotalAmount)

	require.Equal(t, 8, f.stock(t, "p1"))
	require.Equal(t, 2, f.stock(t, "p2"))

	cart, err := f.cart.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, cart.Lines)
}

func TestCheckoutSnapshotsPriceAndName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)

	order, err := f.service.Checkout(ctx, "u1", "addr")
	require.NoError(t, err)

	// later catalog edits must not follow into the order
	newName := "Renamed"
	newPrice := decimal.NewFromInt(999)
	product, err := f.products.Get(ctx, "p1")
	require.NoError(t, err)
	product.Name = newName
	product.Price = newPrice
	require.NoError(t, f.products.Update(ctx, product))

	stored, err := f.service.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "Widget p1", stored.Items[0].Name)
	require.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(100)))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Checkout(context.Background(), "u1", "addr")
	require.ErrorIs(t, err, domcart.ErrEmpty)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 5)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 5)
	require.NoError(t, err)

	// another buyer consumes stock between add and checkout
	_, err = f.products.DeductStock(ctx, "p1", 3)
	require.NoError(t, err)

	_, err = f.service.Checkout(ctx, "u1", "addr")
	var stockErr *domcatalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	// nothing was consumed and the cart survives
	require.Equal(t, 2, f.stock(t, "p1"))
	cart, err := f.cart.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
}

func TestCheckoutCompensatesOnInsertFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)
	f.seedProduct(t, "p2", 50, 5)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 4)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, "u1", "p2", 2)
	require.NoError(t, err)

	f.orders.failNextInsert = true
	_, err = f.service.Checkout(ctx, "u1", "addr")
	require.Error(t, err)

	// deducted stock was restored for every line
	require.Equal(t, 10, f.stock(t, "p1"))
	require.Equal(t, 5, f.stock(t, "p2"))
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 4)
	require.NoError(t, err)
	order, err := f.service.Checkout(ctx, "u1", "addr")
	require.NoError(t, err)
	require.Equal(t, 6, f.stock(t, "p1"))

	cancelled, err := f.service.Cancel(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Equal(t, 10, f.stock(t, "p1"))
}

func TestCancelRejectedOncePaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	order, err := f.service.Checkout(ctx, "u1", "addr")
	require.NoError(t, err)

	require.NoError(t, f.service.AttachGatewayOrder(ctx, order.ID, "gw_1"))
	require.NoError(t, f.service.MarkPaid(ctx, order.ID))

	_, err = f.service.Cancel(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelAfterFailureDoesNotRestoreTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 4)
	require.NoError(t, err)
	order, err := f.service.Checkout(ctx, "u1", "addr")
	require.NoError(t, err)
	require.Equal(t, 6, f.stock(t, "p1"))

	require.NoError(t, f.service.MarkFailed(ctx, order.ID, "card declined"))
	require.Equal(t, 10, f.stock(t, "p1"))

	// cancelling the failed order must not restock again
	_, err = f.service.Cancel(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 10, f.stock(t, "p1"))
}

func TestMarkFailedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 4)
	require.NoError(t, err)
	order, err := f.service.Checkout(ctx, "u1", "addr")
	require.NoError(t, err)

	require.NoError(t, f.service.MarkFailed(ctx, order.ID, "card declined"))
	require.NoError(t, f.service.MarkFailed(ctx, order.ID, "card declined"))
	require.Equal(t, 10, f.stock(t, "p1"))

	stored, err := f.service.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, stored.Status)
	require.Equal(t, "card declined", stored.FailureReason)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)

	_, err := f.cart.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	order, err := f.service.Checkout(ctx, "u1", "addr")
	require.NoError(t, err)

	require.NoError(t, f.service.AttachGatewayOrder(ctx, order.ID, "gw_1"))
	require.NoError(t, f.service.MarkPaid(ctx, order.ID))
	require.NoError(t, f.service.MarkPaid(ctx, order.ID))

	stored, err := f.service.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaid, stored.Status)
}

func TestListByUserNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "p1", 100, 10)

	for i := 0; i < 3; i++ {
		_, err := f.cart.AddItem(ctx, "u1", "p1", 1)
		require.NoError(t, err)
		_, err = f.service.Checkout(ctx, "u1", "addr")
		require.NoError(t, err)
	}

	orders, err := f.service.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i := 1; i < len(orders); i++ {
		require.False(t, orders[i].CreatedAt.After(orders[i-1].CreatedAt))
	}
}

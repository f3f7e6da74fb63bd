package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prostore/storefront/internal/constants"
	inErrors "github.com/prostore/storefront/internal/errors"
	"github.com/prostore/storefront/internal/repository"
	"github.com/prostore/storefront/internal/session"
	"github.com/prostore/storefront/order/pkg/request"
	"github.com/prostore/storefront/payment/pkg/gateway"
)

func testContext() context.Context {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}).
		WithContext(context.Background())
}

func identityFor(user repository.User) session.CallerIdentity {
	return session.CallerIdentity{
		UserID:        user.ID,
		SessionCartID: uuid.New(),
		Authenticated: true,
	}
}

func TestPlaceOrder(t *testing.T) {
	c := testContext()
	pool, pgContainer, queries := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	orderService := NewOrderService(pool, queries, &fakeGateway{})

	t.Run("caller without a cart is redirected to the cart", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})

		result, err := orderService.PlaceOrder(c, identityFor(user))
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, constants.PathCart, result.RedirectPath)

		orders, err := queries.FindOrdersByUserId(c, user.ID)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("empty cart is redirected to the cart", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		owner := user.ID
		_, err := queries.InsertCart(c, repository.InsertCartParams{ID: uuid.New(), UserID: &owner})
		require.NoError(t, err)

		result, err := orderService.PlaceOrder(c, identityFor(user))
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, constants.PathCart, result.RedirectPath)
	})

	t.Run("missing shipping address is redirected to the address step", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 10)
		seedCart(t, c, queries, user.ID, product, 3)

		result, err := orderService.PlaceOrder(c, identityFor(user))
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, constants.PathShippingAddress, result.RedirectPath)

		orders, err := queries.FindOrdersByUserId(c, user.ID)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("missing payment method is redirected to the payment step", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true})
		product := seedProduct(t, c, queries, "25.00", 10)
		seedCart(t, c, queries, user.ID, product, 3)

		result, err := orderService.PlaceOrder(c, identityFor(user))
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, constants.PathPaymentMethod, result.RedirectPath)
	})

	t.Run("ready checkout creates the order and clears the cart", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 10)
		cart := seedCart(t, c, queries, user.ID, product, 3)

		result, err := orderService.PlaceOrder(c, identityFor(user))
		require.NoError(t, err)

		assert.True(t, result.Success)
		require.True(t, strings.HasPrefix(result.RedirectPath, constants.PathOrder+"/"))
		orderId, err := uuid.Parse(strings.TrimPrefix(result.RedirectPath, constants.PathOrder+"/"))
		require.NoError(t, err)

		order, err := queries.FindOrderById(c, orderId)
		require.NoError(t, err)
		assert.Equal(t, user.ID, order.UserID)
		assert.False(t, order.IsPaid)
		assert.Equal(t, "96.25", repository.DecimalFromNumeric(order.TotalPrice).StringFixed(2))

		items, err := queries.FindOrderItemsByOrderId(c, orderId)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, product.ID, items[0].ProductID)
		assert.EqualValues(t, 3, items[0].Quantity)

		cartItems, err := queries.FindCartItemsByCartId(c, cart.ID)
		require.NoError(t, err)
		assert.Empty(t, cartItems)

		// stock is reserved at settlement, not at order creation
		remaining, err := queries.FindProductById(c, product.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 10, remaining.Stock)
	})
}

func placeOrderWithIntent(
	t *testing.T,
	c context.Context,
	orderService *OrderService,
	queries *repository.Queries,
	user repository.User,
) (uuid.UUID, string) {
	t.Helper()
	result, err := orderService.PlaceOrder(c, identityFor(user))
	require.NoError(t, err)
	require.True(t, result.Success)
	orderId, err := uuid.Parse(strings.TrimPrefix(result.RedirectPath, constants.PathOrder+"/"))
	require.NoError(t, err)

	intent, err := orderService.CreatePaymentIntent(c, identityFor(user), orderId)
	require.NoError(t, err)
	require.NotEmpty(t, intent.PaymentId)
	return orderId, intent.PaymentId
}

func TestCreatePaymentIntent(t *testing.T) {
	c := testContext()
	pool, pgContainer, queries := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	fake := &fakeGateway{}
	orderService := NewOrderService(pool, queries, fake)

	t.Run("intent records the gateway payment id on the order", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 10)
		seedCart(t, c, queries, user.ID, product, 3)

		orderId, paymentId := placeOrderWithIntent(t, c, orderService, queries, user)

		order, err := queries.FindOrderById(c, orderId)
		require.NoError(t, err)
		require.NotNil(t, order.PaymentID)
		assert.Equal(t, paymentId, *order.PaymentID)
	})

	t.Run("intent is registered for the order total", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 10)
		seedCart(t, c, queries, user.ID, product, 3)

		var charged decimal.Decimal
		fake.createOrderFunc = func(_ context.Context, amount decimal.Decimal) (gateway.Order, error) {
			charged = amount
			return gateway.Order{ID: "PAY-TOTAL", Status: gateway.StatusCreated}, nil
		}
		defer func() { fake.createOrderFunc = nil }()

		placeOrderWithIntent(t, c, orderService, queries, user)
		assert.Equal(t, "96.25", charged.StringFixed(2))
	})

	t.Run("intent for another user's order is not found", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		stranger := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 10)
		seedCart(t, c, queries, user.ID, product, 3)

		orderId, _ := placeOrderWithIntent(t, c, orderService, queries, user)

		_, err := orderService.CreatePaymentIntent(c, identityFor(stranger), orderId)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)
	})
}

func TestCapturePayment(t *testing.T) {
	c := testContext()
	pool, pgContainer, queries := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	t.Run("settlement marks the order paid and decrements stock once", func(t *testing.T) {
		fake := &fakeGateway{}
		orderService := NewOrderService(pool, queries, fake)
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 5)
		seedCart(t, c, queries, user.ID, product, 3)
		orderId, paymentId := placeOrderWithIntent(t, c, orderService, queries, user)

		result, err := orderService.CapturePayment(c, identityFor(user), request.CapturePayment{
			OrderId:   orderId,
			PaymentId: paymentId,
		})
		require.NoError(t, err)
		assert.True(t, result.Success)

		order, err := queries.FindOrderById(c, orderId)
		require.NoError(t, err)
		assert.True(t, order.IsPaid)
		assert.True(t, order.PaidAt.Valid)
		assert.NotEmpty(t, order.PaymentResult)

		remaining, err := queries.FindProductById(c, product.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, remaining.Stock)

		// a retried capture settles nothing further
		result, err = orderService.CapturePayment(c, identityFor(user), request.CapturePayment{
			OrderId:   orderId,
			PaymentId: paymentId,
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, fake.captureCalls)

		remaining, err = queries.FindProductById(c, product.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, remaining.Stock)
	})

	t.Run("payment id mismatch fails verification", func(t *testing.T) {
		fake := &fakeGateway{}
		orderService := NewOrderService(pool, queries, fake)
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 5)
		seedCart(t, c, queries, user.ID, product, 3)
		orderId, _ := placeOrderWithIntent(t, c, orderService, queries, user)

		_, err := orderService.CapturePayment(c, identityFor(user), request.CapturePayment{
			OrderId:   orderId,
			PaymentId: "PAY-SOMEONE-ELSE",
		})
		assert.ErrorIs(t, err, inErrors.ErrPaymentMismatch)
		assert.Equal(t, 0, fake.captureCalls)
	})

	t.Run("incomplete gateway status rejects the payment", func(t *testing.T) {
		fake := &fakeGateway{}
		fake.capturePaymentFunc = func(_ context.Context, paymentId string) (gateway.Capture, error) {
			return gateway.Capture{ID: paymentId, Status: gateway.StatusApproved}, nil
		}
		orderService := NewOrderService(pool, queries, fake)
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 5)
		seedCart(t, c, queries, user.ID, product, 3)
		orderId, paymentId := placeOrderWithIntent(t, c, orderService, queries, user)

		_, err := orderService.CapturePayment(c, identityFor(user), request.CapturePayment{
			OrderId:   orderId,
			PaymentId: paymentId,
		})
		assert.ErrorIs(t, err, inErrors.ErrPaymentRejected)

		order, err := queries.FindOrderById(c, orderId)
		require.NoError(t, err)
		assert.False(t, order.IsPaid)

		remaining, err := queries.FindProductById(c, product.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 5, remaining.Stock)
	})

	t.Run("settlement without enough stock rolls back", func(t *testing.T) {
		fake := &fakeGateway{}
		orderService := NewOrderService(pool, queries, fake)
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 5)
		seedCart(t, c, queries, user.ID, product, 3)
		orderId, paymentId := placeOrderWithIntent(t, c, orderService, queries, user)

		// the remaining stock is sold elsewhere before this capture settles
		affected, err := queries.DecrementProductStock(c, repository.DecrementProductStockParams{
			ID:       product.ID,
			Quantity: 4,
		})
		require.NoError(t, err)
		require.EqualValues(t, 1, affected)

		_, err = orderService.CapturePayment(c, identityFor(user), request.CapturePayment{
			OrderId:   orderId,
			PaymentId: paymentId,
		})
		assert.ErrorIs(t, err, inErrors.ErrInsufficientStock)

		order, err := queries.FindOrderById(c, orderId)
		require.NoError(t, err)
		assert.False(t, order.IsPaid)

		remaining, err := queries.FindProductById(c, product.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, remaining.Stock)
	})
}

func TestFindOrders(t *testing.T) {
	c := testContext()
	pool, pgContainer, queries := setup(t)(c)
	defer teardown(t)(pool, pgContainer)

	orderService := NewOrderService(pool, queries, &fakeGateway{})

	t.Run("order snapshot is returned with its items and address", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 10)
		seedCart(t, c, queries, user.ID, product, 3)
		orderId, _ := placeOrderWithIntent(t, c, orderService, queries, user)

		order, err := orderService.FindOrderById(c, identityFor(user), orderId)
		require.NoError(t, err)

		assert.Equal(t, orderId, order.ID)
		assert.Equal(t, "PayPal", order.PaymentMethod)
		assert.Equal(t, "Springfield", order.ShippingAddress.City)
		assert.Equal(t, "96.25", order.TotalPrice)
		require.Len(t, order.OrderItems, 1)
		assert.Equal(t, "25.00", order.OrderItems[0].Price)
	})

	t.Run("another user's order stays hidden", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		stranger := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})
		product := seedProduct(t, c, queries, "25.00", 10)
		seedCart(t, c, queries, user.ID, product, 3)
		orderId, _ := placeOrderWithIntent(t, c, orderService, queries, user)

		_, err := orderService.FindOrderById(c, identityFor(stranger), orderId)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)

		orders, err := orderService.FindOrdersByUser(c, identityFor(stranger))
		require.NoError(t, err)
		assert.Empty(t, orders)

		orders, err = orderService.FindOrdersByUser(c, identityFor(user))
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, orderId, orders[0].ID)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		user := seedUser(t, c, queries, seedUserOptions{withAddress: true, withPaymentMethod: true})

		_, err := orderService.FindOrderById(c, identityFor(user), uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)
	})
}

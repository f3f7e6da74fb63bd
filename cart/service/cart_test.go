package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prostore/storefront/cart/pkg/request"
	inErrors "github.com/prostore/storefront/internal/errors"
	"github.com/prostore/storefront/internal/repository"
	"github.com/prostore/storefront/internal/session"
)

func testContext() context.Context {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}).
		WithContext(context.Background())
}

func seedProduct(
	t *testing.T,
	c context.Context,
	queries *repository.Queries,
	price string,
	stock int32,
) repository.Product {
	t.Helper()
	product, err := queries.InsertProduct(c, repository.InsertProductParams{
		ID:    uuid.New(),
		Name:  "Polo Classic Shirt",
		Slug:  "polo-classic-shirt-" + uuid.NewString()[:8],
		Image: "/images/polo-classic-shirt.jpg",
		Price: repository.NumericFromDecimal(decimal.RequireFromString(price)),
		Stock: stock,
	})
	require.NoError(t, err, "seeding product should not fail")
	return product
}

func addItemRequest(product repository.Product) request.AddCartItem {
	return request.AddCartItem{
		ProductId: product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		Image:     product.Image,
		Price:     repository.DecimalFromNumeric(product.Price).StringFixed(2),
	}
}

func TestAddItem(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, queries, cartService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	t.Run("first add creates a cart with a single line", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}
		product := seedProduct(t, c, queries, "25.00", 10)

		cart, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		require.Len(t, cart.Items, 1)
		assert.Equal(t, product.ID, cart.Items[0].ProductId)
		assert.EqualValues(t, 1, cart.Items[0].Quantity)
		assert.Equal(t, "25.00", cart.ItemsPrice)
		assert.Equal(t, "10.00", cart.ShippingPrice)
		assert.Equal(t, "3.75", cart.TaxPrice)
		assert.Equal(t, "38.75", cart.TotalPrice)
	})

	t.Run("adding the same product again increments the line", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}
		product := seedProduct(t, c, queries, "25.00", 10)

		_, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)
		cart, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		require.Len(t, cart.Items, 1)
		assert.EqualValues(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, "50.00", cart.ItemsPrice)
		assert.Equal(t, "10.00", cart.ShippingPrice)
		assert.Equal(t, "7.50", cart.TaxPrice)
		assert.Equal(t, "67.50", cart.TotalPrice)
	})

	t.Run("adding beyond available stock fails and keeps the cart unchanged", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}
		product := seedProduct(t, c, queries, "25.00", 1)

		_, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		_, err = cartService.AddItem(c, identity, addItemRequest(product))
		assert.ErrorIs(t, err, inErrors.ErrInsufficientStock)

		cart, err := cartService.GetCart(c, identity)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.EqualValues(t, 1, cart.Items[0].Quantity)
	})

	t.Run("adding an unknown product fails", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}

		_, err := cartService.AddItem(c, identity, request.AddCartItem{
			ProductId: uuid.New(),
			Name:      "Ghost",
			Slug:      "ghost",
			Price:     "1.00",
		})
		assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
	})
}

func TestRemoveItem(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, queries, cartService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	t.Run("removing from a multi quantity line decrements it", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}
		product := seedProduct(t, c, queries, "25.00", 10)
		_, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)
		_, err = cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		cart, err := cartService.RemoveItem(c, identity, product.ID)
		require.NoError(t, err)

		require.Len(t, cart.Items, 1)
		assert.EqualValues(t, 1, cart.Items[0].Quantity)
		assert.Equal(t, "25.00", cart.ItemsPrice)
	})

	t.Run("removing the last unit drops the line", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}
		product := seedProduct(t, c, queries, "25.00", 10)
		_, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		cart, err := cartService.RemoveItem(c, identity, product.ID)
		require.NoError(t, err)

		assert.Empty(t, cart.Items)
		assert.Equal(t, "0.00", cart.ItemsPrice)
	})

	t.Run("removing a product that is not in the cart fails", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}
		product := seedProduct(t, c, queries, "25.00", 10)
		_, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		_, err = cartService.RemoveItem(c, identity, uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrItemNotFound)
	})

	t.Run("removing from a caller without a cart fails", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}

		_, err := cartService.RemoveItem(c, identity, uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
	})
}

func TestGetCart(t *testing.T) {
	c := testContext()
	redisClient, pool, pgContainer, redisContainer, queries, cartService := setup(t)(c)
	defer teardown(t)(redisClient, pool, pgContainer, redisContainer)

	t.Run("caller without a cart gets not found", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}

		_, err := cartService.GetCart(c, identity)
		assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
	})

	t.Run("cart is served from cache after the first read", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}
		product := seedProduct(t, c, queries, "25.00", 10)
		added, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		first, err := cartService.GetCart(c, identity)
		require.NoError(t, err)
		assert.Equal(t, added.ID, first.ID)

		cached, err := cartService.GetCart(c, identity)
		require.NoError(t, err)
		assert.Equal(t, first.ID, cached.ID)
		assert.Equal(t, first.Items, cached.Items)
		assert.Equal(t, first.TotalPrice, cached.TotalPrice)
	})

	t.Run("mutation invalidates the cached cart", func(t *testing.T) {
		identity := session.CallerIdentity{SessionCartID: uuid.New()}
		product := seedProduct(t, c, queries, "25.00", 10)
		_, err := cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		_, err = cartService.GetCart(c, identity)
		require.NoError(t, err)

		_, err = cartService.AddItem(c, identity, addItemRequest(product))
		require.NoError(t, err)

		cart, err := cartService.GetCart(c, identity)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.EqualValues(t, 2, cart.Items[0].Quantity)
	})
}

package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/prostore/storefront/internal/money"
	"github.com/prostore/storefront/internal/repository"
	orderResponse "github.com/prostore/storefront/order/pkg/response"
	"github.com/prostore/storefront/payment/pkg/gateway"
)

type (
	setupFunc    func(context.Context) (*pgxpool.Pool, *postgres.PostgresContainer, *repository.Queries)
	teardownFunc func(*pgxpool.Pool, *postgres.PostgresContainer)
)

func setup(t *testing.T) setupFunc {
	return func(c context.Context) (*pgxpool.Pool, *postgres.PostgresContainer, *repository.Queries) {
		pgContainer, err := postgres.Run(
			c,
			"postgres:16.6-alpine3.21",
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_DB":       "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_PORT":     "5432",
				"POSTGRES_USER":     "postgres",
			}),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.WithDatabase("postgres"),
			postgres.BasicWaitStrategies(),
			postgres.WithInitScripts(
				filepath.Join("..", "..", "..", "migrations", "20250301090000_create_table_users.up.sql"),
				filepath.Join("..", "..", "..", "migrations", "20250301090100_create_table_products.up.sql"),
				filepath.Join("..", "..", "..", "migrations", "20250301090200_create_table_carts.up.sql"),
				filepath.Join("..", "..", "..", "migrations", "20250301090300_create_table_orders.up.sql"),
			),
		)
		if err != nil {
			t.Fatalf("failed running postgres container with error: %s", err)
		}

		pgConnStr, err := pgContainer.ConnectionString(c)
		if err != nil {
			t.Fatalf("failed getting postgres connection string with error: %s", err)
		}

		pgConfig, err := pgxpool.ParseConfig(pgConnStr)
		if err != nil {
			t.Fatalf("failed parsing pgconfig with error: %s", err)
		}

		pool, err := pgxpool.NewWithConfig(c, pgConfig)
		if err != nil {
			t.Fatalf("failed creating postgres pool with error: %s", err)
		}

		if err = pool.Ping(c); err != nil {
			t.Fatalf("failed ping postgres pool with error: %s", err)
		}

		return pool, pgContainer, repository.New(pool)
	}
}

func teardown(t *testing.T) teardownFunc {
	return func(pool *pgxpool.Pool, pgContainer *postgres.PostgresContainer) {
		pool.Close()
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}
}

// fakeGateway satisfies PaymentGateway without any network.
type fakeGateway struct {
	createOrderFunc    func(c context.Context, amount decimal.Decimal) (gateway.Order, error)
	capturePaymentFunc func(c context.Context, paymentId string) (gateway.Capture, error)
	captureCalls       int
}

func (f *fakeGateway) CreateOrder(
	c context.Context,
	amount decimal.Decimal,
) (gateway.Order, error) {
	if f.createOrderFunc == nil {
		return gateway.Order{ID: "PAY-" + uuid.NewString()[:8], Status: gateway.StatusCreated}, nil
	}
	return f.createOrderFunc(c, amount)
}

func (f *fakeGateway) CapturePayment(
	c context.Context,
	paymentId string,
) (gateway.Capture, error) {
	f.captureCalls++
	if f.capturePaymentFunc == nil {
		return gateway.Capture{
			ID:         paymentId,
			Status:     gateway.StatusCompleted,
			PayerEmail: "buyer@example.com",
			Amount:     "96.25",
		}, nil
	}
	return f.capturePaymentFunc(c, paymentId)
}

type seedUserOptions struct {
	withAddress       bool
	withPaymentMethod bool
}

func seedUser(
	t *testing.T,
	c context.Context,
	queries *repository.Queries,
	opts seedUserOptions,
) repository.User {
	t.Helper()
	user, err := queries.InsertUser(c, repository.InsertUserParams{
		ID:       uuid.New(),
		Name:     "Jane Buyer",
		Email:    uuid.NewString()[:8] + "@example.com",
		Password: "hashed-password",
	})
	require.NoError(t, err, "seeding user should not fail")

	if opts.withAddress {
		address, err := json.Marshal(orderResponse.Address{
			FullName:      "Jane Buyer",
			StreetAddress: "123 Main St",
			City:          "Springfield",
			PostalCode:    "12345",
			Country:       "USA",
		})
		require.NoError(t, err)
		err = queries.UpdateUserAddress(c, repository.UpdateUserAddressParams{
			ID:      user.ID,
			Address: address,
		})
		require.NoError(t, err)
	}
	if opts.withPaymentMethod {
		err = queries.UpdateUserPaymentMethod(c, repository.UpdateUserPaymentMethodParams{
			ID:            user.ID,
			PaymentMethod: "PayPal",
		})
		require.NoError(t, err)
	}

	user, err = queries.FindUserById(c, user.ID)
	require.NoError(t, err)
	return user
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

func seedCart(
	t *testing.T,
	c context.Context,
	queries *repository.Queries,
	userId uuid.UUID,
	product repository.Product,
	quantity int32,
) repository.Cart {
	t.Helper()
	owner := userId
	cart, err := queries.InsertCart(c, repository.InsertCartParams{
		ID:     uuid.New(),
		UserID: &owner,
	})
	require.NoError(t, err, "seeding cart should not fail")

	err = queries.InsertCartItem(c, repository.InsertCartItemParams{
		ID:        uuid.New(),
		CartID:    cart.ID,
		ProductID: product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		Image:     product.Image,
		Price:     product.Price,
		Quantity:  quantity,
	})
	require.NoError(t, err, "seeding cart item should not fail")

	totals := money.TotalsFromLines([]money.Line{
		{Price: repository.DecimalFromNumeric(product.Price), Quantity: quantity},
	})
	err = queries.UpdateCartTotals(c, repository.UpdateCartTotalsParams{
		ID:            cart.ID,
		ItemsPrice:    repository.NumericFromDecimal(totals.ItemsPrice),
		ShippingPrice: repository.NumericFromDecimal(totals.ShippingPrice),
		TaxPrice:      repository.NumericFromDecimal(totals.TaxPrice),
		TotalPrice:    repository.NumericFromDecimal(totals.TotalPrice),
	})
	require.NoError(t, err, "seeding cart totals should not fail")

	cart, err = queries.FindCartByUserId(c, userId)
	require.NoError(t, err)
	return cart
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prostore/storefront/cart/pkg/request"
	"github.com/prostore/storefront/cart/pkg/response"
	inErrors "github.com/prostore/storefront/internal/errors"
	"github.com/prostore/storefront/internal/log"
	"github.com/prostore/storefront/internal/money"
	"github.com/prostore/storefront/internal/otel"
	"github.com/prostore/storefront/internal/repository"
	"github.com/prostore/storefront/internal/session"
)

const (
	cacheKeyUserCart    = "carts:user:%s"
	cacheKeySessionCart = "carts:session:%s"
)

type CartService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	cache   *redis.Client
}

func NewCartService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	cache *redis.Client,
) *CartService {
	return &CartService{pool: pool, queries: queries, cache: cache}
}

func cacheKey(identity session.CallerIdentity) string {
	if identity.Authenticated {
		return fmt.Sprintf(cacheKeyUserCart, identity.UserID.String())
	}
	return fmt.Sprintf(cacheKeySessionCart, identity.SessionCartID.String())
}

func (s *CartService) findCart(
	c context.Context,
	queries *repository.Queries,
	identity session.CallerIdentity,
) (repository.Cart, error) {
	if identity.Authenticated {
		cart, err := queries.FindCartByUserId(c, identity.UserID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return repository.Cart{}, err
		}
	}
	cart, err := queries.FindCartBySessionId(c, identity.SessionCartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Cart{}, inErrors.ErrCartNotFound
		}
		return repository.Cart{}, err
	}
	return cart, nil
}

func (s *CartService) AddItem(
	c context.Context,
	identity session.CallerIdentity,
	param request.AddCartItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyProductID, param.ProductId.String()).
		Str(log.KeySessionCartID, identity.SessionCartID.String()).
		Logger()

	price, err := decimal.NewFromString(param.Price)
	if err != nil {
		err = fmt.Errorf("failed parsing price=%s with error=%w", param.Price, inErrors.ErrValidation)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msg("finding product")
	product, err := s.queries.FindProductById(c, param.ProductId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrProductNotFound
		}
		err = fmt.Errorf("failed finding productId=%s with error=%w", param.ProductId.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger = logger.With().Int32(log.KeyProductStock, product.Stock).Logger()
	logger.Info().Msg("found product")

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("initialized transaction")
	defer func() {
		err := tx.Rollback(c)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	queries := s.queries.WithTx(tx)

	logger = logger.With().Str(log.KeyProcess, "resolving cart").Logger()
	logger.Info().Msg("resolving cart")
	cart, err := s.findCart(c, queries, identity)
	if err != nil && !errors.Is(err, inErrors.ErrCartNotFound) {
		err = fmt.Errorf("failed resolving cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	if errors.Is(err, inErrors.ErrCartNotFound) {
		logger = logger.With().Str(log.KeyProcess, "creating cart").Logger()
		logger.Info().Msg("cart not found, creating cart")
		arg := repository.InsertCartParams{ID: uuid.New()}
		if identity.Authenticated {
			userId := identity.UserID
			arg.UserID = &userId
		} else {
			sessionId := identity.SessionCartID
			arg.SessionID = &sessionId
		}
		cart, err = queries.InsertCart(c, arg)
		if err != nil {
			err = fmt.Errorf("failed creating cart with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
		logger.Info().Msg("created cart")
	} else {
		// lock the cart row so concurrent adds for the same cart serialize
		cart, err = queries.FindCartByIdForUpdate(c, cart.ID)
		if err != nil {
			err = fmt.Errorf("failed locking cartId=%s with error=%w", cart.ID.String(), err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Info().Msg("resolved cart")

	logger = logger.With().Str(log.KeyProcess, "finding cart items").Logger()
	logger.Info().Msg("finding cart items")
	items, err := queries.FindCartItemsByCartId(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger = logger.With().Int(log.KeyCartItems, len(items)).Logger()
	logger.Info().Msg("found cart items")

	logger = logger.With().Str(log.KeyProcess, "upserting cart item").Logger()
	existing := -1
	for i, item := range items {
		if item.ProductID == param.ProductId {
			existing = i
			break
		}
	}
	if existing >= 0 {
		if product.Stock < items[existing].Quantity+1 {
			err = fmt.Errorf(
				"failed adding productId=%s quantity=%d with error=%w",
				param.ProductId.String(),
				items[existing].Quantity+1,
				inErrors.ErrInsufficientStock,
			)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
		items[existing].Quantity++
		logger.Info().
			Int32(log.KeyQuantity, items[existing].Quantity).
			Msg("incrementing existing cart item")
		err = queries.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
			ID:       items[existing].ID,
			Quantity: items[existing].Quantity,
		})
		if err != nil {
			err = fmt.Errorf("failed incrementing cart item with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
		logger.Info().Msg("incremented existing cart item")
	} else {
		if product.Stock < 1 {
			err = fmt.Errorf(
				"failed adding productId=%s with error=%w",
				param.ProductId.String(),
				inErrors.ErrInsufficientStock,
			)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
		item := repository.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: param.ProductId,
			Name:      param.Name,
			Slug:      param.Slug,
			Image:     param.Image,
			Price:     repository.NumericFromDecimal(price),
			Quantity:  1,
		}
		logger.Info().Msg("appending cart item")
		err = queries.InsertCartItem(c, repository.InsertCartItemParams{
			ID:        item.ID,
			CartID:    item.CartID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
		if err != nil {
			err = fmt.Errorf("failed appending cart item with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
		items = append(items, item)
		logger.Info().Msg("appended cart item")
	}

	cart, err = s.saveTotals(c, queries, cart, items)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "invalidating cart cache").Logger()
	logger.Info().Msg("invalidating cart cache")
	err = s.cache.Del(c, cacheKey(identity)).Err()
	if err != nil {
		err = fmt.Errorf("failed invalidating cart cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("invalidated cart cache")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	err = tx.Commit(c)
	if err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("committed transaction")

	return cart.Response(items), nil
}

func (s *CartService) RemoveItem(
	c context.Context,
	identity session.CallerIdentity,
	productId uuid.UUID,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyProductID, productId.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("initialized transaction")
	defer func() {
		err := tx.Rollback(c)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	queries := s.queries.WithTx(tx)

	logger = logger.With().Str(log.KeyProcess, "resolving cart").Logger()
	logger.Info().Msg("resolving cart")
	cart, err := s.findCart(c, queries, identity)
	if err != nil {
		err = fmt.Errorf("failed resolving cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	cart, err = queries.FindCartByIdForUpdate(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed locking cartId=%s with error=%w", cart.ID.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Info().Msg("resolved cart")

	logger = logger.With().Str(log.KeyProcess, "finding cart items").Logger()
	logger.Info().Msg("finding cart items")
	items, err := queries.FindCartItemsByCartId(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("found cart items")

	existing := -1
	for i, item := range items {
		if item.ProductID == productId {
			existing = i
			break
		}
	}
	if existing < 0 {
		err = fmt.Errorf(
			"failed removing productId=%s with error=%w",
			productId.String(),
			inErrors.ErrItemNotFound,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "removing cart item").Logger()
	if items[existing].Quantity == 1 {
		logger.Info().Msg("removing cart item line")
		err = queries.DeleteCartItem(c, items[existing].ID)
		if err != nil {
			err = fmt.Errorf("failed removing cart item with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
		items = append(items[:existing], items[existing+1:]...)
		logger.Info().Msg("removed cart item line")
	} else {
		items[existing].Quantity--
		logger.Info().
			Int32(log.KeyQuantity, items[existing].Quantity).
			Msg("decrementing cart item")
		err = queries.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
			ID:       items[existing].ID,
			Quantity: items[existing].Quantity,
		})
		if err != nil {
			err = fmt.Errorf("failed decrementing cart item with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
		logger.Info().Msg("decremented cart item")
	}

	cart, err = s.saveTotals(c, queries, cart, items)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "invalidating cart cache").Logger()
	logger.Info().Msg("invalidating cart cache")
	err = s.cache.Del(c, cacheKey(identity)).Err()
	if err != nil {
		err = fmt.Errorf("failed invalidating cart cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("invalidated cart cache")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	err = tx.Commit(c)
	if err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("committed transaction")

	return cart.Response(items), nil
}

func (s *CartService) GetCart(
	c context.Context,
	identity session.CallerIdentity,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService GetCart")
	defer span.End()

	key := cacheKey(identity)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService GetCart").
		Str(log.KeyCacheKey, key).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart in cache").Logger()
	logger.Info().Msg("finding cart in cache")
	cached, err := s.cache.Get(c, key).Result()
	if err == nil {
		cart := response.Cart{}
		err = json.Unmarshal([]byte(cached), &cart)
		if err == nil {
			logger.Info().Msg("found cart in cache")
			return cart, nil
		}
		logger.Warn().Err(err).Msg("failed unmarshaling cached cart, falling back to db")
	}

	logger = logger.With().Str(log.KeyProcess, "finding cart in db").Logger()
	logger.Info().Msg("finding cart in db")
	cart, err := s.findCart(c, s.queries, identity)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	items, err := s.queries.FindCartItemsByCartId(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	cartResponse := cart.Response(items)
	logger.Info().Msg("found cart in db")

	logger = logger.With().Str(log.KeyProcess, "inserting cart to cache").Logger()
	logger.Info().Msg("inserting cart to cache")
	cacheJson, err := json.Marshal(cartResponse)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart for cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	err = s.cache.Set(c, key, cacheJson, time.Hour).Err()
	if err != nil {
		err = fmt.Errorf("failed inserting cart to cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("inserted cart to cache")

	return cartResponse, nil
}

func (s *CartService) saveTotals(
	c context.Context,
	queries *repository.Queries,
	cart repository.Cart,
	items []repository.CartItem,
) (repository.Cart, error) {
	lines := make([]money.Line, len(items))
	for i, item := range items {
		lines[i] = money.Line{
			Price:    repository.DecimalFromNumeric(item.Price),
			Quantity: item.Quantity,
		}
	}
	totals := money.TotalsFromLines(lines)

	cart.ItemsPrice = repository.NumericFromDecimal(totals.ItemsPrice)
	cart.ShippingPrice = repository.NumericFromDecimal(totals.ShippingPrice)
	cart.TaxPrice = repository.NumericFromDecimal(totals.TaxPrice)
	cart.TotalPrice = repository.NumericFromDecimal(totals.TotalPrice)

	err := queries.UpdateCartTotals(c, repository.UpdateCartTotalsParams{
		ID:            cart.ID,
		ItemsPrice:    cart.ItemsPrice,
		ShippingPrice: cart.ShippingPrice,
		TaxPrice:      cart.TaxPrice,
		TotalPrice:    cart.TotalPrice,
	})
	if err != nil {
		return repository.Cart{}, fmt.Errorf("failed updating cart totals with error=%w", err)
	}
	return cart, nil
}

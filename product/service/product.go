package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	inErrors "github.com/prostore/storefront/internal/errors"
	"github.com/prostore/storefront/internal/log"
	"github.com/prostore/storefront/internal/otel"
	"github.com/prostore/storefront/internal/repository"
	"github.com/prostore/storefront/product/pkg/request"
	"github.com/prostore/storefront/product/pkg/response"
)

const cacheKeyProductSlug = "products:slug:%s"

type ProductService struct {
	queries *repository.Queries
	cache   *redis.Client
}

func NewProductService(queries *repository.Queries, cache *redis.Client) *ProductService {
	return &ProductService{queries: queries, cache: cache}
}

func (s *ProductService) FindProducts(
	c context.Context,
	param request.FindProducts,
) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProducts").
		Str(log.KeyProcess, "finding products").
		Logger()

	limit := param.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	logger.Info().Msg("finding products")
	products, err := s.queries.FindProducts(c, repository.FindProductsParams{
		Limit:  limit,
		Offset: param.Offset,
	})
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msgf("found %d products", len(products))

	responses := make([]response.Product, len(products))
	for i, product := range products {
		responses[i] = product.Response()
	}
	return responses, nil
}

func (s *ProductService) FindProductBySlug(
	c context.Context,
	slug string,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProductBySlug")
	defer span.End()

	key := fmt.Sprintf(cacheKeyProductSlug, slug)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProductBySlug").
		Str(log.KeyProductSlug, slug).
		Str(log.KeyCacheKey, key).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product in cache").Logger()
	logger.Info().Msg("finding product in cache")
	cached, err := s.cache.Get(c, key).Result()
	if err == nil {
		product := response.Product{}
		err = json.Unmarshal([]byte(cached), &product)
		if err == nil {
			logger.Info().Msg("found product in cache")
			return product, nil
		}
		logger.Warn().Err(err).Msg("failed unmarshaling cached product, falling back to db")
	}

	logger = logger.With().Str(log.KeyProcess, "finding product in db").Logger()
	logger.Info().Msg("finding product in db")
	product, err := s.queries.FindProductBySlug(c, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrProductNotFound
		}
		err = fmt.Errorf("failed finding product slug=%s with error=%w", slug, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	productResponse := product.Response()
	logger.Info().Msg("found product in db")

	logger = logger.With().Str(log.KeyProcess, "inserting product to cache").Logger()
	cacheJson, err := json.Marshal(productResponse)
	if err != nil {
		err = fmt.Errorf("failed marshaling product for cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	err = s.cache.Set(c, key, cacheJson, time.Hour).Err()
	if err != nil {
		err = fmt.Errorf("failed inserting product to cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("inserted product to cache")

	return productResponse, nil
}

func (s *ProductService) InsertProduct(
	c context.Context,
	param request.InsertProduct,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService InsertProduct").
		Str(log.KeyProductSlug, param.Slug).
		Str(log.KeyProcess, "inserting product").
		Logger()

	price, err := decimal.NewFromString(param.Price)
	if err != nil {
		err = fmt.Errorf("failed parsing price=%s with error=%w", param.Price, inErrors.ErrValidation)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}

	logger.Info().Msg("inserting product")
	product, err := s.queries.InsertProduct(c, repository.InsertProductParams{
		ID:    uuid.New(),
		Name:  param.Name,
		Slug:  param.Slug,
		Image: param.Image,
		Price: repository.NumericFromDecimal(price),
		Stock: param.Stock,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("inserted product")

	err = s.cache.Del(c, fmt.Sprintf(cacheKeyProductSlug, product.Slug)).Err()
	if err != nil {
		logger.Warn().Err(err).Msg("failed invalidating product cache")
	}

	return product.Response(), nil
}

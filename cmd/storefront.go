package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	cartController "github.com/prostore/storefront/cart/controller"
	cartService "github.com/prostore/storefront/cart/service"
	"github.com/prostore/storefront/internal/config"
	"github.com/prostore/storefront/internal/constants"
	"github.com/prostore/storefront/internal/infra"
	"github.com/prostore/storefront/internal/log"
	"github.com/prostore/storefront/internal/middleware"
	inOtel "github.com/prostore/storefront/internal/otel"
	"github.com/prostore/storefront/internal/repository"
	orderController "github.com/prostore/storefront/order/controller"
	orderService "github.com/prostore/storefront/order/service"
	"github.com/prostore/storefront/payment/pkg/gateway"
	productController "github.com/prostore/storefront/product/controller"
	productService "github.com/prostore/storefront/product/service"
	userController "github.com/prostore/storefront/user/controller"
	userService "github.com/prostore/storefront/user/service"
)

func RunStorefrontApp(c context.Context) {
	cfg := config.InitConfig(c, constants.AppStorefront)

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "main RunStorefrontApp").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := inOtel.InitOtelSdk(c, constants.AppStorefront, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		c = logger.WithContext(c)
		err = inOtel.ShutdownOtel(c, shutdownFuncs)
		if err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	c = logger.WithContext(c)
	pool := infra.NewDatabaseClient(c, cfg.Database)
	defer func() {
		logger.Info().Msg("closing database")
		pool.Close()
		logger.Info().Msg("closed database")
	}()
	queries := repository.New(pool)
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer func() {
		logger.Info().Msg("closing cache")
		err = cache.Close()
		if err != nil {
			err = fmt.Errorf("failed closing cache with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("closed cache")
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "initializing services").Logger()
	logger.Info().Msg("initializing services")
	paypal := gateway.NewPaypalClient(cfg.Paypal)
	carts := cartService.NewCartService(pool, queries, cache)
	orders := orderService.NewOrderService(pool, queries, paypal)
	products := productService.NewProductService(queries, cache)
	users := userService.NewUserService(queries, cfg.Application)
	logger.Info().Msg("initialized services")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.AppStorefront),
		middleware.Logging,
		middleware.RecoverPanic,
		middleware.Session(cfg.Application),
	)
	router.Handle("/metrics", promhttp.Handler())

	cartController.AttachCartController(router, carts)
	productController.AttachProductController(router, products)
	userController.AttachUserController(router, users)

	protected := router.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)
	orderController.AttachOrderController(protected, orders)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	server := http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext: func(net.Listener) context.Context {
			lg := logger.With().
				Reset().
				Timestamp().
				Caller().
				Stack().
				Str(log.KeyAppName, constants.AppStorefront).
				Logger()
			return lg.WithContext(c)
		},
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	defer func() {
		logger = logger.With().Str(log.KeyProcess, "shutting down server").Logger()
		logger.Info().Msg("shutting down server")
		err = server.Shutdown(c)
		if err != nil {
			err = fmt.Errorf("failed shutting down server with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("shutdown server")
	}()
	logger.Info().Msg("initialized server")

	go func() {
		logger = logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("encounter error=%w while running server", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown server")
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutdown server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
}

package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/prostore/storefront/internal/errors"
	inHttp "github.com/prostore/storefront/internal/http"
	"github.com/prostore/storefront/internal/log"
	"github.com/prostore/storefront/internal/otel"
	"github.com/prostore/storefront/internal/session"
	"github.com/prostore/storefront/internal/validate"
	"github.com/prostore/storefront/order/service"
	"github.com/prostore/storefront/order/pkg/request"
)

type OrderController struct {
	service *service.OrderService
}

func AttachOrderController(mux *mux.Router, service *service.OrderService) {
	controller := OrderController{service: service}

	router := mux.PathPrefix("/orders").Subrouter()
	router.HandleFunc("", controller.PlaceOrder).Methods(http.MethodPost)
	router.HandleFunc("", controller.FindOrders).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}", controller.FindOrderById).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}/payment-intent", controller.CreatePaymentIntent).
		Methods(http.MethodPost)
	router.HandleFunc("/{orderId}/capture", controller.CapturePayment).Methods(http.MethodPost)
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrAlreadyPaid),
		errors.Is(err, inErrors.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, inErrors.ErrPaymentMismatch),
		errors.Is(err, inErrors.ErrPaymentRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inErrors.ErrGatewayAuthFailed),
		errors.Is(err, inErrors.ErrGatewayUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, inErrors.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func orderIdFromPath(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["orderId"])
}

func (t OrderController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController PlaceOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController PlaceOrder").
		Logger()

	identity, err := session.FromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting caller identity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "placing order").
		Str(log.KeyUserID, identity.UserID.String()).
		Logger()
	logger.Info().Msg("placing order")
	c = logger.WithContext(c)
	result, err := t.service.PlaceOrder(c, identity)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Bool("success", result.Success).Msg("order workflow finished")

	status := "success"
	if !result.Success {
		status = "failed"
	}
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     status,
		"statusCode": http.StatusOK,
		"message":    result.Message,
		"data": map[string]interface{}{
			"result": result,
		},
	})
}

func (t OrderController) FindOrders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrders").
		Logger()

	identity, err := session.FromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting caller identity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding orders").Logger()
	logger.Info().Msg("finding orders")
	c = logger.WithContext(c)
	orders, err := t.service.FindOrdersByUser(c, identity)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("found orders")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "orders found",
		"data": map[string]interface{}{
			"orders": orders,
		},
	})
}

func (t OrderController) FindOrderById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrderById").
		Str(log.KeyProcess, "validating orderId").
		Logger()

	logger.Info().Msg("validating orderId")
	orderId, err := orderIdFromPath(r)
	if err != nil {
		err = fmt.Errorf("failed validating orderId with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderId.String()).Logger()
	logger.Info().Msg("validated orderId")

	identity, err := session.FromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting caller identity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	c = logger.WithContext(c)
	order, err := t.service.FindOrderById(c, identity, orderId)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("found order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("orderId=%s found", orderId.String()),
		"data": map[string]interface{}{
			"order": order,
		},
	})
}

func (t OrderController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CreatePaymentIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController CreatePaymentIntent").
		Str(log.KeyProcess, "validating orderId").
		Logger()

	logger.Info().Msg("validating orderId")
	orderId, err := orderIdFromPath(r)
	if err != nil {
		err = fmt.Errorf("failed validating orderId with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderId.String()).Logger()
	logger.Info().Msg("validated orderId")

	identity, err := session.FromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting caller identity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "creating payment intent").Logger()
	logger.Info().Msg("creating payment intent")
	c = logger.WithContext(c)
	intent, err := t.service.CreatePaymentIntent(c, identity, orderId)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("created payment intent")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "payment intent created",
		"data": map[string]interface{}{
			"paymentIntent": intent,
		},
	})
}

func (t OrderController) CapturePayment(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CapturePayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController CapturePayment").
		Str(log.KeyProcess, "validating orderId").
		Logger()

	logger.Info().Msg("validating orderId")
	orderId, err := orderIdFromPath(r)
	if err != nil {
		err = fmt.Errorf("failed validating orderId with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderId.String()).Logger()
	logger.Info().Msg("validated orderId")

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.CapturePayment{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	reqBody.OrderId = orderId
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	if err := validate.New().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("validated request body")

	identity, err := session.FromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting caller identity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}

	logger = logger.With().
		Str(log.KeyProcess, "capturing payment").
		Str(log.KeyPaymentID, reqBody.PaymentId).
		Logger()
	logger.Info().Msg("capturing payment")
	c = logger.WithContext(c)
	result, err := t.service.CapturePayment(c, identity, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("captured payment")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    result.Message,
		"data": map[string]interface{}{
			"result": result,
		},
	})
}

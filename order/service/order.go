package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prostore/storefront/internal/constants"
	inErrors "github.com/prostore/storefront/internal/errors"
	"github.com/prostore/storefront/internal/log"
	"github.com/prostore/storefront/internal/otel"
	"github.com/prostore/storefront/internal/repository"
	"github.com/prostore/storefront/internal/session"
	"github.com/prostore/storefront/order/pkg/request"
	"github.com/prostore/storefront/order/pkg/response"
	"github.com/prostore/storefront/payment/pkg/gateway"
)

// PaymentGateway is the slice of the gateway client the order workflow needs.
type PaymentGateway interface {
	CreateOrder(c context.Context, amount decimal.Decimal) (gateway.Order, error)
	CapturePayment(c context.Context, paymentId string) (gateway.Capture, error)
}

type OrderService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	gateway PaymentGateway
}

func NewOrderService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	gateway PaymentGateway,
) *OrderService {
	return &OrderService{pool: pool, queries: queries, gateway: gateway}
}

// PlaceOrder turns the caller's cart into an order. Checkout preconditions
// that are not met do not produce an error; they produce a failed Result whose
// redirect path points at the step of the checkout flow that fixes them.
func (s *OrderService) PlaceOrder(
	c context.Context,
	identity session.CallerIdentity,
) (response.Result, error) {
	c, span := otel.Tracer.Start(c, "OrderService PlaceOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService PlaceOrder").
		Str(log.KeyUserID, identity.UserID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user")
	user, err := s.queries.FindUserById(c, identity.UserID)
	if err != nil {
		err = fmt.Errorf("failed finding userId=%s with error=%w", identity.UserID.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	logger.Info().Msg("found user")

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Info().Msg("finding cart")
	cart, err := s.queries.FindCartByUserId(c, identity.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Info().Msg("cart not found, redirecting to cart")
			return response.Result{
				Success:      false,
				Message:      inErrors.ErrEmptyCart.Error(),
				RedirectPath: constants.PathCart,
			}, nil
		}
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	items, err := s.queries.FindCartItemsByCartId(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	if len(items) == 0 {
		logger.Info().Msg("cart is empty, redirecting to cart")
		return response.Result{
			Success:      false,
			Message:      inErrors.ErrEmptyCart.Error(),
			RedirectPath: constants.PathCart,
		}, nil
	}
	logger = logger.With().
		Str(log.KeyCartID, cart.ID.String()).
		Int(log.KeyCartItems, len(items)).
		Logger()
	logger.Info().Msg("found cart")

	logger = logger.With().Str(log.KeyProcess, "checking checkout preconditions").Logger()
	if len(user.Address) == 0 {
		logger.Info().Msg("shipping address missing, redirecting to shipping address")
		return response.Result{
			Success:      false,
			Message:      inErrors.ErrMissingAddress.Error(),
			RedirectPath: constants.PathShippingAddress,
		}, nil
	}
	if user.PaymentMethod == nil || *user.PaymentMethod == "" {
		logger.Info().Msg("payment method missing, redirecting to payment method")
		return response.Result{
			Success:      false,
			Message:      inErrors.ErrMissingPayMethod.Error(),
			RedirectPath: constants.PathPaymentMethod,
		}, nil
	}
	logger.Info().Msg("checkout preconditions met")

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
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

	logger = logger.With().Str(log.KeyProcess, "inserting order").Logger()
	logger.Info().Msg("inserting order")
	order, err := queries.InsertOrder(c, repository.InsertOrderParams{
		ID:              uuid.New(),
		UserID:          identity.UserID,
		ItemsPrice:      cart.ItemsPrice,
		ShippingPrice:   cart.ShippingPrice,
		TaxPrice:        cart.TaxPrice,
		TotalPrice:      cart.TotalPrice,
		ShippingAddress: user.Address,
		PaymentMethod:   *user.PaymentMethod,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("inserted order")

	logger = logger.With().Str(log.KeyProcess, "inserting order items").Logger()
	logger.Info().Msg("inserting order items")
	orderItems := make([]repository.InsertOrderItemsParams, len(items))
	for i, item := range items {
		orderItems[i] = repository.InsertOrderItemsParams{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}
	inserted, err := queries.InsertOrderItems(c, orderItems)
	if err != nil {
		err = fmt.Errorf("failed inserting order items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	logger = logger.With().Int64(log.KeyOrderItems, inserted).Logger()
	logger.Info().Msg("inserted order items")

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Info().Msg("clearing cart")
	err = queries.DeleteCartItemsByCartId(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	zero := repository.NumericFromDecimal(decimal.Zero)
	err = queries.UpdateCartTotals(c, repository.UpdateCartTotalsParams{
		ID:            cart.ID,
		ItemsPrice:    zero,
		ShippingPrice: zero,
		TaxPrice:      zero,
		TotalPrice:    zero,
	})
	if err != nil {
		err = fmt.Errorf("failed resetting cart totals with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	logger.Info().Msg("cleared cart")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	err = tx.Commit(c)
	if err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	logger.Info().Msg("committed transaction")

	return response.Result{
		Success:      true,
		Message:      "order placed successfully",
		RedirectPath: fmt.Sprintf("%s/%s", constants.PathOrder, order.ID.String()),
	}, nil
}

// CreatePaymentIntent registers the order total with the payment gateway and
// records the returned payment id on the order.
func (s *OrderService) CreatePaymentIntent(
	c context.Context,
	identity session.CallerIdentity,
	orderId uuid.UUID,
) (response.PaymentIntent, error) {
	c, span := otel.Tracer.Start(c, "OrderService CreatePaymentIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CreatePaymentIntent").
		Str(log.KeyOrderID, orderId.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	order, err := s.findOwnedOrder(c, identity, orderId)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	if order.IsPaid {
		err = fmt.Errorf("failed creating payment intent for orderId=%s with error=%w", orderId.String(), inErrors.ErrAlreadyPaid)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	logger.Info().Msg("found order")

	logger = logger.With().Str(log.KeyProcess, "creating gateway order").Logger()
	logger.Info().Msg("creating gateway order")
	c = logger.WithContext(c)
	gatewayOrder, err := s.gateway.CreateOrder(c, repository.DecimalFromNumeric(order.TotalPrice))
	if err != nil {
		err = fmt.Errorf("failed creating gateway order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	logger = logger.With().Str(log.KeyPaymentID, gatewayOrder.ID).Logger()
	logger.Info().Msg("created gateway order")

	logger = logger.With().Str(log.KeyProcess, "recording payment id").Logger()
	logger.Info().Msg("recording payment id")
	err = s.queries.SetOrderPaymentId(c, repository.SetOrderPaymentIdParams{
		ID:        order.ID,
		PaymentID: gatewayOrder.ID,
	})
	if err != nil {
		err = fmt.Errorf("failed recording payment id with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	logger.Info().Msg("recorded payment id")

	return response.PaymentIntent{OrderId: order.ID, PaymentId: gatewayOrder.ID}, nil
}

// CapturePayment settles a payment with the gateway and, in a single
// transaction, decrements product stock and flags the order paid. Capturing an
// order that is already paid is a no-op reported as success so a retried
// capture cannot double-settle.
func (s *OrderService) CapturePayment(
	c context.Context,
	identity session.CallerIdentity,
	param request.CapturePayment,
) (response.Result, error) {
	c, span := otel.Tracer.Start(c, "OrderService CapturePayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CapturePayment").
		Str(log.KeyOrderID, param.OrderId.String()).
		Str(log.KeyPaymentID, param.PaymentId).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	order, err := s.findOwnedOrder(c, identity, param.OrderId)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	if order.IsPaid {
		logger.Info().Msg("order is already paid, skipping capture")
		return response.Result{Success: true, Message: inErrors.ErrAlreadyPaid.Error()}, nil
	}
	if order.PaymentID == nil || *order.PaymentID != param.PaymentId {
		err = fmt.Errorf(
			"failed verifying paymentId=%s for orderId=%s with error=%w",
			param.PaymentId,
			param.OrderId.String(),
			inErrors.ErrPaymentMismatch,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	logger.Info().Msg("found order")

	logger = logger.With().Str(log.KeyProcess, "capturing payment").Logger()
	logger.Info().Msg("capturing payment")
	c = logger.WithContext(c)
	capture, err := s.gateway.CapturePayment(c, param.PaymentId)
	if err != nil {
		err = fmt.Errorf("failed capturing payment with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	if capture.ID != param.PaymentId {
		err = fmt.Errorf(
			"gateway returned paymentId=%s for requested paymentId=%s with error=%w",
			capture.ID,
			param.PaymentId,
			inErrors.ErrPaymentMismatch,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	if !capture.Status.Completed() {
		err = fmt.Errorf(
			"gateway reported status=%s with error=%w",
			capture.Status,
			inErrors.ErrPaymentRejected,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	logger = logger.With().Str(log.KeyPaymentStatus, string(capture.Status)).Logger()
	logger.Info().Msg("captured payment")

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
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

	logger = logger.With().Str(log.KeyProcess, "locking order").Logger()
	logger.Info().Msg("locking order")
	order, err = queries.FindOrderByIdForUpdate(c, order.ID)
	if err != nil {
		err = fmt.Errorf("failed locking orderId=%s with error=%w", order.ID.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	if order.IsPaid {
		logger.Info().Msg("order was paid concurrently, skipping settlement")
		return response.Result{Success: true, Message: inErrors.ErrAlreadyPaid.Error()}, nil
	}
	logger.Info().Msg("locked order")

	logger = logger.With().Str(log.KeyProcess, "decrementing stock").Logger()
	logger.Info().Msg("decrementing stock")
	items, err := queries.FindOrderItemsByOrderId(c, order.ID)
	if err != nil {
		err = fmt.Errorf("failed finding order items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	for _, item := range items {
		affected, err := queries.DecrementProductStock(c, repository.DecrementProductStockParams{
			ID:       item.ProductID,
			Quantity: item.Quantity,
		})
		if err != nil {
			err = fmt.Errorf("failed decrementing stock for productId=%s with error=%w", item.ProductID.String(), err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Result{}, err
		}
		if affected == 0 {
			err = fmt.Errorf(
				"failed decrementing stock for productId=%s quantity=%d with error=%w",
				item.ProductID.String(),
				item.Quantity,
				inErrors.ErrInsufficientStock,
			)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Result{}, err
		}
	}
	logger.Info().Msg("decremented stock")

	logger = logger.With().Str(log.KeyProcess, "marking order paid").Logger()
	logger.Info().Msg("marking order paid")
	paymentResult, err := json.Marshal(response.PaymentResult{
		TransactionId: capture.ID,
		PayerEmail:    capture.PayerEmail,
		Status:        string(capture.Status),
		AmountPaid:    capture.Amount,
	})
	if err != nil {
		err = fmt.Errorf("failed marshaling payment result with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	affected, err := queries.MarkOrderPaid(c, repository.MarkOrderPaidParams{
		ID:            order.ID,
		PaidAt:        pgtype.Timestamptz{Time: time.Now(), Valid: true},
		PaymentResult: paymentResult,
	})
	if err != nil {
		err = fmt.Errorf("failed marking order paid with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	if affected == 0 {
		logger.Info().Msg("order was paid concurrently, skipping settlement")
		return response.Result{Success: true, Message: inErrors.ErrAlreadyPaid.Error()}, nil
	}
	logger.Info().Msg("marked order paid")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	err = tx.Commit(c)
	if err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Result{}, err
	}
	logger.Info().Msg("committed transaction")

	return response.Result{
		Success:      true,
		Message:      "your order has been paid",
		RedirectPath: fmt.Sprintf("%s/%s", constants.PathOrder, order.ID.String()),
	}, nil
}

func (s *OrderService) FindOrderById(
	c context.Context,
	identity session.CallerIdentity,
	orderId uuid.UUID,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderById").
		Str(log.KeyOrderID, orderId.String()).
		Str(log.KeyProcess, "finding order").
		Logger()

	logger.Info().Msg("finding order")
	order, err := s.findOwnedOrder(c, identity, orderId)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	items, err := s.queries.FindOrderItemsByOrderId(c, order.ID)
	if err != nil {
		err = fmt.Errorf("failed finding order items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("found order")

	orderResponse, err := order.Response(items)
	if err != nil {
		err = fmt.Errorf("failed mapping order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	return orderResponse, nil
}

func (s *OrderService) FindOrdersByUser(
	c context.Context,
	identity session.CallerIdentity,
) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrdersByUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrdersByUser").
		Str(log.KeyUserID, identity.UserID.String()).
		Str(log.KeyProcess, "finding orders").
		Logger()

	logger.Info().Msg("finding orders")
	orders, err := s.queries.FindOrdersByUserId(c, identity.UserID)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	responses := make([]response.Order, len(orders))
	for i, order := range orders {
		items, err := s.queries.FindOrderItemsByOrderId(c, order.ID)
		if err != nil {
			err = fmt.Errorf("failed finding order items with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		responses[i], err = order.Response(items)
		if err != nil {
			err = fmt.Errorf("failed mapping order with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
	}
	logger.Info().Msgf("found %d orders", len(responses))
	return responses, nil
}

// findOwnedOrder hides orders that belong to another user behind the same not
// found error as orders that do not exist.
func (s *OrderService) findOwnedOrder(
	c context.Context,
	identity session.CallerIdentity,
	orderId uuid.UUID,
) (repository.Order, error) {
	order, err := s.queries.FindOrderById(c, orderId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = inErrors.ErrOrderNotFound
		}
		return repository.Order{}, fmt.Errorf(
			"failed finding orderId=%s with error=%w",
			orderId.String(),
			err,
		)
	}
	if order.UserID != identity.UserID {
		return repository.Order{}, fmt.Errorf(
			"failed finding orderId=%s with error=%w",
			orderId.String(),
			inErrors.ErrOrderNotFound,
		)
	}
	return order, nil
}

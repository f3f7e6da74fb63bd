package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyAuth    = errors.New("missing authorization")
	ErrEmptySubject = errors.New("missing subject")
	ErrTokenInvalid = errors.New("invalid token")

	ErrValidation = errors.New("validation failed")

	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientStock  = errors.New("not enough stock")
	ErrCartNotFound       = errors.New("no cart found")
	ErrItemNotFound       = errors.New("item not found in cart")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrMissingAddress     = errors.New("shipping address is required")
	ErrMissingPayMethod   = errors.New("payment method is required")
	ErrOrderNotFound      = errors.New("order not found")
	ErrAlreadyPaid        = errors.New("order is already paid")
	ErrPaymentMismatch    = errors.New("payment verification failed")
	ErrPaymentRejected    = errors.New("payment was not completed")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayAuthFailed  = errors.New("payment gateway rejected credentials")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

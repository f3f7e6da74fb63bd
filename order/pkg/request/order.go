package request

import (
	"github.com/google/uuid"
)

type FindOrderById struct {
	OrderId uuid.UUID `validate:"required" json:"orderId"`
	UserId  uuid.UUID `validate:"required" json:"userId"`
}

type CapturePayment struct {
	OrderId   uuid.UUID `validate:"required" json:"orderId"`
	PaymentId string    `validate:"required" json:"paymentId"`
}

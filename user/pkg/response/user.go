package response

import (
	"time"

	"github.com/google/uuid"

	orderResponse "github.com/prostore/storefront/order/pkg/response"
)

type User struct {
	ID            uuid.UUID              `json:"id"`
	Name          string                 `json:"name"`
	Email         string                 `json:"email"`
	Address       *orderResponse.Address `json:"address,omitempty"`
	PaymentMethod string                 `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

type Login struct {
	Token string `json:"token"`
}

package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

type Register struct {
	Name     string `validate:"required"       json:"name"`
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required,min=6" json:"password"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", r.Email).Str("name", r.Name)
}

func (r Register) MarshalJSON() ([]byte, error) {
	r.Password = "***"
	type R Register
	return json.Marshal(R(r))
}

type Login struct {
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required"       json:"password"`
}

func (l Login) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", l.Email).Str("password", "***")
}

func (l Login) MarshalJSON() ([]byte, error) {
	l.Password = "***"
	type L Login
	return json.Marshal(L(l))
}

type ShippingAddress struct {
	FullName      string `validate:"required,min=3" json:"fullName"`
	StreetAddress string `validate:"required,min=3" json:"streetAddress"`
	City          string `validate:"required,min=2" json:"city"`
	PostalCode    string `validate:"required,min=2" json:"postalCode"`
	Country       string `validate:"required,min=2" json:"country"`
}

type PaymentMethod struct {
	PaymentMethod string `validate:"required,oneof=PayPal Stripe CashOnDelivery" json:"paymentMethod"`
}

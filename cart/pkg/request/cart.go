package request

import (
	"github.com/google/uuid"
)

type AddCartItem struct {
	ProductId uuid.UUID `validate:"required"       json:"productId"`
	Name      string    `validate:"required"       json:"name"`
	Slug      string    `validate:"required"       json:"slug"`
	Image     string    `                          json:"image"`
	Price     string    `validate:"required,price" json:"price"`
}

type RemoveCartItem struct {
	ProductId uuid.UUID `validate:"required" json:"productId"`
}

package response

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ProductId uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	Price     string    `json:"price"`
	Quantity  int32     `json:"quantity"`
}

type Cart struct {
	ID            uuid.UUID  `json:"id"`
	UserId        *uuid.UUID `json:"userId,omitempty"`
	SessionCartId *uuid.UUID `json:"sessionCartId,omitempty"`
	Items         []CartItem `json:"items"`
	ItemsPrice    string     `json:"itemsPrice"`
	ShippingPrice string     `json:"shippingPrice"`
	TaxPrice      string     `json:"taxPrice"`
	TotalPrice    string     `json:"totalPrice"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

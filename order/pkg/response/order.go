package response

import (
	"time"

	"github.com/google/uuid"
)

// Result is the contract the checkout UI consumes to decide navigation after
// a workflow call.
type Result struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RedirectPath string `json:"redirectPath,omitempty"`
}

type Address struct {
	FullName      string `json:"fullName"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
}

type PaymentResult struct {
	TransactionId string `json:"transactionId"`
	PayerEmail    string `json:"payerEmail"`
	Status        string `json:"status"`
	AmountPaid    string `json:"amountPaid"`
}

type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderId   uuid.UUID `json:"orderId"`
	ProductId uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	Price     string    `json:"price"`
	Quantity  int32     `json:"quantity"`
}

type Order struct {
	ID              uuid.UUID      `json:"id"`
	UserId          uuid.UUID      `json:"userId"`
	OrderItems      []OrderItem    `json:"orderItems"`
	ItemsPrice      string         `json:"itemsPrice"`
	ShippingPrice   string         `json:"shippingPrice"`
	TaxPrice        string         `json:"taxPrice"`
	TotalPrice      string         `json:"totalPrice"`
	ShippingAddress Address        `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	PaymentId       string         `json:"paymentId,omitempty"`
	IsPaid          bool           `json:"isPaid"`
	PaidAt          *time.Time     `json:"paidAt,omitempty"`
	PaymentResult   *PaymentResult `json:"paymentResult,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

type PaymentIntent struct {
	OrderId   uuid.UUID `json:"orderId"`
	PaymentId string    `json:"paymentId"`
}

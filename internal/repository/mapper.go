package repository

import (
	"encoding/json"
	"time"

	cartResponse "github.com/prostore/storefront/cart/pkg/response"
	orderResponse "github.com/prostore/storefront/order/pkg/response"
	productResponse "github.com/prostore/storefront/product/pkg/response"
	userResponse "github.com/prostore/storefront/user/pkg/response"
)

func (p Product) Response() productResponse.Product {
	return productResponse.Product{
		ID:        p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Image:     p.Image,
		Price:     DecimalFromNumeric(p.Price).StringFixed(2),
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt.Time,
		UpdatedAt: p.UpdatedAt.Time,
	}
}

func (c Cart) Response(items []CartItem) cartResponse.Cart {
	cartItems := make([]cartResponse.CartItem, len(items))
	for i, item := range items {
		cartItems[i] = cartResponse.CartItem{
			ProductId: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Image:     item.Image,
			Price:     DecimalFromNumeric(item.Price).StringFixed(2),
			Quantity:  item.Quantity,
		}
	}
	return cartResponse.Cart{
		ID:            c.ID,
		UserId:        c.UserID,
		SessionCartId: c.SessionID,
		Items:         cartItems,
		ItemsPrice:    DecimalFromNumeric(c.ItemsPrice).StringFixed(2),
		ShippingPrice: DecimalFromNumeric(c.ShippingPrice).StringFixed(2),
		TaxPrice:      DecimalFromNumeric(c.TaxPrice).StringFixed(2),
		TotalPrice:    DecimalFromNumeric(c.TotalPrice).StringFixed(2),
		CreatedAt:     c.CreatedAt.Time,
		UpdatedAt:     c.UpdatedAt.Time,
	}
}

func (o Order) Response(items []OrderItem) (orderResponse.Order, error) {
	address := orderResponse.Address{}
	err := json.Unmarshal(o.ShippingAddress, &address)
	if err != nil {
		return orderResponse.Order{}, err
	}

	var paymentResult *orderResponse.PaymentResult
	if len(o.PaymentResult) > 0 {
		paymentResult = &orderResponse.PaymentResult{}
		err = json.Unmarshal(o.PaymentResult, paymentResult)
		if err != nil {
			return orderResponse.Order{}, err
		}
	}

	orderItems := make([]orderResponse.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = orderResponse.OrderItem{
			ID:        item.ID,
			OrderId:   item.OrderID,
			ProductId: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Image:     item.Image,
			Price:     DecimalFromNumeric(item.Price).StringFixed(2),
			Quantity:  item.Quantity,
		}
	}

	paymentId := ""
	if o.PaymentID != nil {
		paymentId = *o.PaymentID
	}
	var paidAt *time.Time
	if o.PaidAt.Valid {
		t := o.PaidAt.Time
		paidAt = &t
	}

	return orderResponse.Order{
		ID:              o.ID,
		UserId:          o.UserID,
		OrderItems:      orderItems,
		ItemsPrice:      DecimalFromNumeric(o.ItemsPrice).StringFixed(2),
		ShippingPrice:   DecimalFromNumeric(o.ShippingPrice).StringFixed(2),
		TaxPrice:        DecimalFromNumeric(o.TaxPrice).StringFixed(2),
		TotalPrice:      DecimalFromNumeric(o.TotalPrice).StringFixed(2),
		ShippingAddress: address,
		PaymentMethod:   o.PaymentMethod,
		PaymentId:       paymentId,
		IsPaid:          o.IsPaid,
		PaidAt:          paidAt,
		PaymentResult:   paymentResult,
		CreatedAt:       o.CreatedAt.Time,
	}, nil
}

func (u User) Response() (userResponse.User, error) {
	var address *orderResponse.Address
	if len(u.Address) > 0 {
		address = &orderResponse.Address{}
		err := json.Unmarshal(u.Address, address)
		if err != nil {
			return userResponse.User{}, err
		}
	}
	paymentMethod := ""
	if u.PaymentMethod != nil {
		paymentMethod = *u.PaymentMethod
	}
	return userResponse.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Address:       address,
		PaymentMethod: paymentMethod,
		CreatedAt:     u.CreatedAt.Time,
	}, nil
}

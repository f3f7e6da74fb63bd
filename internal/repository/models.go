package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID            uuid.UUID
	Name          string
	Email         string
	Password      string
	Address       []byte
	PaymentMethod *string
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type Product struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	Image     string
	Price     pgtype.Numeric
	Stock     int32
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Cart struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	SessionID     *uuid.UUID
	ItemsPrice    pgtype.Numeric
	ShippingPrice pgtype.Numeric
	TaxPrice      pgtype.Numeric
	TotalPrice    pgtype.Numeric
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Name      string
	Slug      string
	Image     string
	Price     pgtype.Numeric
	Quantity  int32
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ItemsPrice      pgtype.Numeric
	ShippingPrice   pgtype.Numeric
	TaxPrice        pgtype.Numeric
	TotalPrice      pgtype.Numeric
	ShippingAddress []byte
	PaymentMethod   string
	PaymentID       *string
	IsPaid          bool
	PaidAt          pgtype.Timestamptz
	PaymentResult   []byte
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Slug      string
	Image     string
	Price     pgtype.Numeric
	Quantity  int32
	CreatedAt pgtype.Timestamptz
}

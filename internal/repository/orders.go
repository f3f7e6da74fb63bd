package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, items_price, shipping_price, tax_price, total_price, shipping_address, payment_method, payment_id, is_paid, paid_at, payment_result, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (Order, error) {
	var order Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.ItemsPrice,
		&order.ShippingPrice,
		&order.TaxPrice,
		&order.TotalPrice,
		&order.ShippingAddress,
		&order.PaymentMethod,
		&order.PaymentID,
		&order.IsPaid,
		&order.PaidAt,
		&order.PaymentResult,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	return order, err
}

const insertOrder = `
INSERT INTO orders (id, user_id, items_price, shipping_price, tax_price, total_price, shipping_address, payment_method)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderColumns

type InsertOrderParams struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ItemsPrice      pgtype.Numeric
	ShippingPrice   pgtype.Numeric
	TaxPrice        pgtype.Numeric
	TotalPrice      pgtype.Numeric
	ShippingAddress []byte
	PaymentMethod   string
}

func (q *Queries) InsertOrder(c context.Context, arg InsertOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(
		c,
		insertOrder,
		arg.ID,
		arg.UserID,
		arg.ItemsPrice,
		arg.ShippingPrice,
		arg.TaxPrice,
		arg.TotalPrice,
		arg.ShippingAddress,
		arg.PaymentMethod,
	))
}

type InsertOrderItemsParams struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Slug      string
	Image     string
	Price     pgtype.Numeric
	Quantity  int32
}

func (q *Queries) InsertOrderItems(
	c context.Context,
	arg []InsertOrderItemsParams,
) (int64, error) {
	return q.db.CopyFrom(
		c,
		pgx.Identifier{"order_items"},
		[]string{"id", "order_id", "product_id", "name", "slug", "image", "price", "quantity"},
		pgx.CopyFromSlice(len(arg), func(i int) ([]interface{}, error) {
			return []interface{}{
				arg[i].ID,
				arg[i].OrderID,
				arg[i].ProductID,
				arg[i].Name,
				arg[i].Slug,
				arg[i].Image,
				arg[i].Price,
				arg[i].Quantity,
			}, nil
		}),
	)
}

const findOrderById = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) FindOrderById(c context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(c, findOrderById, id))
}

// findOrderByIdForUpdate locks the order row so the already-paid check doubles
// as the mutual exclusion between concurrent capture calls.
const findOrderByIdForUpdate = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR UPDATE
`

func (q *Queries) FindOrderByIdForUpdate(c context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(c, findOrderByIdForUpdate, id))
}

const findOrdersByUserId = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) FindOrdersByUserId(c context.Context, userId uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(c, findOrdersByUserId, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

const findOrderItemsByOrderId = `
SELECT id, order_id, product_id, name, slug, image, price, quantity, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) FindOrderItemsByOrderId(c context.Context, orderId uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(c, findOrderItemsByOrderId, orderId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Slug,
			&item.Image,
			&item.Price,
			&item.Quantity,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const setOrderPaymentId = `
UPDATE orders
SET payment_id = $2, updated_at = now()
WHERE id = $1
`

type SetOrderPaymentIdParams struct {
	ID        uuid.UUID
	PaymentID string
}

func (q *Queries) SetOrderPaymentId(c context.Context, arg SetOrderPaymentIdParams) error {
	_, err := q.db.Exec(c, setOrderPaymentId, arg.ID, arg.PaymentID)
	return err
}

const markOrderPaid = `
UPDATE orders
SET is_paid = true,
    paid_at = $2,
    payment_result = $3,
    updated_at = now()
WHERE id = $1 AND is_paid = false
`

type MarkOrderPaidParams struct {
	ID            uuid.UUID
	PaidAt        pgtype.Timestamptz
	PaymentResult []byte
}

func (q *Queries) MarkOrderPaid(c context.Context, arg MarkOrderPaidParams) (int64, error) {
	tag, err := q.db.Exec(c, markOrderPaid, arg.ID, arg.PaidAt, arg.PaymentResult)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, user_id, session_id, items_price, shipping_price, tax_price, total_price, created_at, updated_at`

func scanCart(row interface{ Scan(dest ...interface{}) error }) (Cart, error) {
	var cart Cart
	err := row.Scan(
		&cart.ID,
		&cart.UserID,
		&cart.SessionID,
		&cart.ItemsPrice,
		&cart.ShippingPrice,
		&cart.TaxPrice,
		&cart.TotalPrice,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	return cart, err
}

const insertCart = `
INSERT INTO carts (id, user_id, session_id)
VALUES ($1, $2, $3)
RETURNING ` + cartColumns

type InsertCartParams struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	SessionID *uuid.UUID
}

func (q *Queries) InsertCart(c context.Context, arg InsertCartParams) (Cart, error) {
	return scanCart(q.db.QueryRow(c, insertCart, arg.ID, arg.UserID, arg.SessionID))
}

const findCartByUserId = `
SELECT ` + cartColumns + `
FROM carts
WHERE user_id = $1
`

func (q *Queries) FindCartByUserId(c context.Context, userId uuid.UUID) (Cart, error) {
	return scanCart(q.db.QueryRow(c, findCartByUserId, userId))
}

const findCartBySessionId = `
SELECT ` + cartColumns + `
FROM carts
WHERE session_id = $1
`

func (q *Queries) FindCartBySessionId(c context.Context, sessionId uuid.UUID) (Cart, error) {
	return scanCart(q.db.QueryRow(c, findCartBySessionId, sessionId))
}

// findCartByIdForUpdate serializes concurrent mutations of the same cart.
const findCartByIdForUpdate = `
SELECT ` + cartColumns + `
FROM carts
WHERE id = $1
FOR UPDATE
`

func (q *Queries) FindCartByIdForUpdate(c context.Context, id uuid.UUID) (Cart, error) {
	return scanCart(q.db.QueryRow(c, findCartByIdForUpdate, id))
}

const updateCartTotals = `
UPDATE carts
SET items_price = $2,
    shipping_price = $3,
    tax_price = $4,
    total_price = $5,
    updated_at = now()
WHERE id = $1
`

type UpdateCartTotalsParams struct {
	ID            uuid.UUID
	ItemsPrice    pgtype.Numeric
	ShippingPrice pgtype.Numeric
	TaxPrice      pgtype.Numeric
	TotalPrice    pgtype.Numeric
}

func (q *Queries) UpdateCartTotals(c context.Context, arg UpdateCartTotalsParams) error {
	_, err := q.db.Exec(
		c,
		updateCartTotals,
		arg.ID,
		arg.ItemsPrice,
		arg.ShippingPrice,
		arg.TaxPrice,
		arg.TotalPrice,
	)
	return err
}

const adoptSessionCart = `
UPDATE carts
SET user_id = $2, session_id = NULL, updated_at = now()
WHERE session_id = $1
`

type AdoptSessionCartParams struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

// AdoptSessionCart re-owns an anonymous session cart to a signed-in user.
func (q *Queries) AdoptSessionCart(c context.Context, arg AdoptSessionCartParams) (int64, error) {
	tag, err := q.db.Exec(c, adoptSessionCart, arg.SessionID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const findCartItemsByCartId = `
SELECT id, cart_id, product_id, name, slug, image, price, quantity, created_at, updated_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at
`

func (q *Queries) FindCartItemsByCartId(c context.Context, cartId uuid.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(c, findCartItemsByCartId, cartId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CartItem{}
	for rows.Next() {
		var item CartItem
		err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Name,
			&item.Slug,
			&item.Image,
			&item.Price,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const insertCartItem = `
INSERT INTO cart_items (id, cart_id, product_id, name, slug, image, price, quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertCartItemParams struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Name      string
	Slug      string
	Image     string
	Price     pgtype.Numeric
	Quantity  int32
}

func (q *Queries) InsertCartItem(c context.Context, arg InsertCartItemParams) error {
	_, err := q.db.Exec(
		c,
		insertCartItem,
		arg.ID,
		arg.CartID,
		arg.ProductID,
		arg.Name,
		arg.Slug,
		arg.Image,
		arg.Price,
		arg.Quantity,
	)
	return err
}

const updateCartItemQuantity = `
UPDATE cart_items
SET quantity = $2, updated_at = now()
WHERE id = $1
`

type UpdateCartItemQuantityParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) UpdateCartItemQuantity(
	c context.Context,
	arg UpdateCartItemQuantityParams,
) error {
	_, err := q.db.Exec(c, updateCartItemQuantity, arg.ID, arg.Quantity)
	return err
}

const deleteCartItem = `
DELETE FROM cart_items
WHERE id = $1
`

func (q *Queries) DeleteCartItem(c context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(c, deleteCartItem, id)
	return err
}

const deleteCartItemsByCartId = `
DELETE FROM cart_items
WHERE cart_id = $1
`

func (q *Queries) DeleteCartItemsByCartId(c context.Context, cartId uuid.UUID) error {
	_, err := q.db.Exec(c, deleteCartItemsByCartId, cartId)
	return err
}

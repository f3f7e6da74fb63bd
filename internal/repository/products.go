package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const findProductById = `
SELECT id, name, slug, image, price, stock, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) FindProductById(c context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(c, findProductById, id)
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Image,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

const findProductBySlug = `
SELECT id, name, slug, image, price, stock, created_at, updated_at
FROM products
WHERE slug = $1
`

func (q *Queries) FindProductBySlug(c context.Context, slug string) (Product, error) {
	row := q.db.QueryRow(c, findProductBySlug, slug)
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Image,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

const findProducts = `
SELECT id, name, slug, image, price, stock, created_at, updated_at
FROM products
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type FindProductsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) FindProducts(c context.Context, arg FindProductsParams) ([]Product, error) {
	rows, err := q.db.Query(c, findProducts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		var p Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Slug,
			&p.Image,
			&p.Price,
			&p.Stock,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const insertProduct = `
INSERT INTO products (id, name, slug, image, price, stock)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, slug, image, price, stock, created_at, updated_at
`

type InsertProductParams struct {
	ID    uuid.UUID
	Name  string
	Slug  string
	Image string
	Price pgtype.Numeric
	Stock int32
}

func (q *Queries) InsertProduct(c context.Context, arg InsertProductParams) (Product, error) {
	row := q.db.QueryRow(c, insertProduct, arg.ID, arg.Name, arg.Slug, arg.Image, arg.Price, arg.Stock)
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Image,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// decrementProductStock subtracts at the storage layer so concurrent
// settlements for the same product cannot race below zero.
const decrementProductStock = `
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
`

type DecrementProductStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) DecrementProductStock(
	c context.Context,
	arg DecrementProductStockParams,
) (int64, error) {
	tag, err := q.db.Exec(c, decrementProductStock, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

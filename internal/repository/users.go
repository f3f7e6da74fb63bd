package repository

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, name, email, password, address, payment_method, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...interface{}) error }) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Address,
		&user.PaymentMethod,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

const insertUser = `
INSERT INTO users (id, name, email, password)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

type InsertUserParams struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Password string
}

func (q *Queries) InsertUser(c context.Context, arg InsertUserParams) (User, error) {
	return scanUser(q.db.QueryRow(c, insertUser, arg.ID, arg.Name, arg.Email, arg.Password))
}

const findUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1
`

func (q *Queries) FindUserByEmail(c context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(c, findUserByEmail, email))
}

const findUserById = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (q *Queries) FindUserById(c context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(c, findUserById, id))
}

const updateUserAddress = `
UPDATE users
SET address = $2, updated_at = now()
WHERE id = $1
`

type UpdateUserAddressParams struct {
	ID      uuid.UUID
	Address []byte
}

func (q *Queries) UpdateUserAddress(c context.Context, arg UpdateUserAddressParams) error {
	_, err := q.db.Exec(c, updateUserAddress, arg.ID, arg.Address)
	return err
}

const updateUserPaymentMethod = `
UPDATE users
SET payment_method = $2, updated_at = now()
WHERE id = $1
`

type UpdateUserPaymentMethodParams struct {
	ID            uuid.UUID
	PaymentMethod string
}

func (q *Queries) UpdateUserPaymentMethod(
	c context.Context,
	arg UpdateUserPaymentMethodParams,
) error {
	_, err := q.db.Exec(c, updateUserPaymentMethod, arg.ID, arg.PaymentMethod)
	return err
}

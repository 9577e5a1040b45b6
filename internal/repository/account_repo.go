package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
)

// AccountRepository holds operator and customer credentials. Passwords are
// hashed with bcrypt before they reach a row.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(database *sql.DB) *AccountRepository {
	return &AccountRepository{DB: database}
}

func (r *AccountRepository) CreateOperator(name, email, password string) (*db.Operator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	var op db.Operator
	op.Name, op.Email = name, email
	err = r.DB.QueryRow(
		`INSERT INTO operators (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`,
		name, email, hash,
	).Scan(&op.ID, &op.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating operator: %w", err)
	}
	return &op, nil
}

func (r *AccountRepository) OperatorByEmail(email string) (*db.Operator, error) {
	var op db.Operator
	err := r.DB.QueryRow(
		`SELECT id, name, email, password_hash, created_at FROM operators WHERE email = $1`,
		email,
	).Scan(&op.ID, &op.Name, &op.Email, &op.PasswordHash, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying operator: %w", err)
	}
	return &op, nil
}

func (r *AccountRepository) CreateCustomer(name, email, password, phone string) (*db.Customer, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	var c db.Customer
	c.Name, c.Email, c.Phone = name, email, phone
	err = r.DB.QueryRow(
		`INSERT INTO customers (name, email, password_hash, phone) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		name, email, hash, phone,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating customer: %w", err)
	}
	return &c, nil
}

func (r *AccountRepository) CustomerByEmail(email string) (*db.Customer, error) {
	var c db.Customer
	err := r.DB.QueryRow(
		`SELECT id, name, email, password_hash, phone, created_at FROM customers WHERE email = $1`,
		email,
	).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying customer: %w", err)
	}
	return &c, nil
}

func (r *AccountRepository) Operator(id int) (*db.Operator, error) {
	var op db.Operator
	err := r.DB.QueryRow(
		`SELECT id, name, email, password_hash, created_at FROM operators WHERE id = $1`,
		id,
	).Scan(&op.ID, &op.Name, &op.Email, &op.PasswordHash, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrOperatorNotFound
		}
		return nil, fmt.Errorf("error querying operator %d: %w", id, err)
	}
	return &op, nil
}

func (r *AccountRepository) Customer(id int) (*db.Customer, error) {
	var c db.Customer
	err := r.DB.QueryRow(
		`SELECT id, name, email, password_hash, phone, created_at FROM customers WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("error querying customer %d: %w", id, err)
	}
	return &c, nil
}

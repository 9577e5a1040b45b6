package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
)

type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(database *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: database}
}

func (r *PaymentRepository) Create(p *db.Payment) error {
	query := `
		INSERT INTO payments (reservation_id, reference, amount_cents, status, stripe_session_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at`
	err := r.DB.QueryRow(query, p.ReservationID, p.Reference, p.AmountCents, p.Status, p.StripeSessionID).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) Get(id int) (*db.Payment, error) {
	return r.get(`SELECT id, reservation_id, reference, amount_cents, status,
		COALESCE(stripe_session_id, ''), created_at, paid_at FROM payments WHERE id = $1`, id)
}

func (r *PaymentRepository) GetByReservation(reservationID int) (*db.Payment, error) {
	return r.get(`SELECT id, reservation_id, reference, amount_cents, status,
		COALESCE(stripe_session_id, ''), created_at, paid_at FROM payments WHERE reservation_id = $1`, reservationID)
}

func (r *PaymentRepository) get(query string, arg interface{}) (*db.Payment, error) {
	var p db.Payment
	err := r.DB.QueryRow(query, arg).Scan(
		&p.ID, &p.ReservationID, &p.Reference, &p.AmountCents, &p.Status,
		&p.StripeSessionID, &p.CreatedAt, &p.PaidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("error querying payment: %w", err)
	}
	return &p, nil
}

// MarkPaid flips a pending payment to paid. Paying twice is rejected the same
// way a second completion is.
func (r *PaymentRepository) MarkPaid(id int) error {
	result, err := r.DB.Exec(
		`UPDATE payments SET status = 'paid', paid_at = NOW() WHERE id = $1 AND status = 'pending'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("error marking payment %d paid: %w", id, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		if _, err := r.Get(id); err != nil {
			return err
		}
		return apperrors.ErrInvalidTransition
	}
	return nil
}

func (r *PaymentRepository) MarkRefunded(id int) error {
	result, err := r.DB.Exec(
		`UPDATE payments SET status = 'refunded' WHERE id = $1 AND status = 'paid'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("error marking payment %d refunded: %w", id, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		if _, err := r.Get(id); err != nil {
			return err
		}
		return apperrors.ErrInvalidTransition
	}
	return nil
}

func (r *PaymentRepository) SetStripeSession(id int, sessionID string) error {
	_, err := r.DB.Exec(`UPDATE payments SET stripe_session_id = $2 WHERE id = $1`, id, sessionID)
	if err != nil {
		return fmt.Errorf("error storing stripe session for payment %d: %w", id, err)
	}
	return nil
}

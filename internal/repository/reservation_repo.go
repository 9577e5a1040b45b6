package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
)

const uniqueViolation = "23505"

type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(database *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: database}
}

const reservationColumns = `id, code, customer_id, vehicle_id, spot_id, entry_time,
	expected_exit, exit_time, amount_cents, status, COALESCE(operator_note, ''), created_at, updated_at`

func scanReservation(scan func(dest ...interface{}) error) (*db.Reservation, error) {
	var res db.Reservation
	err := scan(
		&res.ID, &res.Code, &res.CustomerID, &res.VehicleID, &res.SpotID, &res.EntryTime,
		&res.ExpectedExit, &res.ExitTime, &res.AmountCents, &res.Status, &res.OperatorNote,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Create persists a new active record. The partial unique index on
// (spot_id) WHERE status = 'active' turns a lost race into a typed error.
func (r *ReservationRepository) Create(res *db.Reservation) error {
	query := `
		INSERT INTO reservations
		(code, customer_id, vehicle_id, spot_id, entry_time, expected_exit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(query,
		res.Code,
		res.CustomerID,
		res.VehicleID,
		res.SpotID,
		res.EntryTime,
		res.ExpectedExit,
		res.Status,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.ErrDuplicateActiveReservation
		}
		return fmt.Errorf("error creating reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetReservation(id int) (*db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(r.DB.QueryRow(query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, fmt.Errorf("error querying reservation %d: %w", id, err)
	}
	return res, nil
}

func (r *ReservationRepository) GetByCode(code string) (*db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE code = $1`
	res, err := scanReservation(r.DB.QueryRow(query, code).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, fmt.Errorf("error querying reservation %s: %w", code, err)
	}
	return res, nil
}

// Update persists the mutable fields of a record. The WHERE clause only
// accepts the two forward transitions out of active; anything else is an
// InvalidTransition, never a silent overwrite.
func (r *ReservationRepository) Update(res *db.Reservation) error {
	return r.update(r.DB, res)
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (r *ReservationRepository) update(ex execer, res *db.Reservation) error {
	result, err := ex.Exec(`
		UPDATE reservations
		SET status = $2, exit_time = $3, amount_cents = $4, operator_note = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $1
		  AND status = 'active'
		  AND $2 IN ('completed', 'cancelled')`,
		res.ID, res.Status, res.ExitTime, res.AmountCents, res.OperatorNote,
	)
	if err != nil {
		return fmt.Errorf("error updating reservation %d: %w", res.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetReservation(res.ID); err != nil {
			return err
		}
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// Finalize writes the terminal record state and releases the spot inside one
// transaction. A failure of either statement rolls back both and surfaces as
// a retryable TransactionFailed, except for the typed transition errors.
func (r *ReservationRepository) Finalize(res *db.Reservation) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning finalize transaction: %w", apperrors.ErrTransactionFailed)
	}
	defer tx.Rollback()

	if err := r.update(tx, res); err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) || errors.Is(err, apperrors.ErrReservationNotFound) {
			return err
		}
		log.Printf("Finalize: reservation update failed for %d: %v", res.ID, err)
		return apperrors.ErrTransactionFailed
	}

	if _, err := tx.Exec(
		`UPDATE parking_spots SET status = 'available', updated_at = NOW() WHERE id = $1`,
		res.SpotID,
	); err != nil {
		log.Printf("Finalize: spot release failed for %d: %v", res.SpotID, err)
		return apperrors.ErrTransactionFailed
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Finalize: commit failed for reservation %d: %v", res.ID, err)
		return apperrors.ErrTransactionFailed
	}
	return nil
}

func (r *ReservationRepository) FindActiveBySpot(spotID int) (*db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE spot_id = $1 AND status = 'active'`
	res, err := scanReservation(r.DB.QueryRow(query, spotID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, fmt.Errorf("error querying active reservation for spot %d: %w", spotID, err)
	}
	return res, nil
}

func (r *ReservationRepository) FindByVehiclePlate(plate string) ([]db.Reservation, error) {
	query := `
		SELECT r.id, r.code, r.customer_id, r.vehicle_id, r.spot_id, r.entry_time,
			r.expected_exit, r.exit_time, r.amount_cents, r.status, COALESCE(r.operator_note, ''),
			r.created_at, r.updated_at
		FROM reservations r
		JOIN vehicles v ON v.id = r.vehicle_id
		WHERE UPPER(v.plate) = UPPER($1)
		ORDER BY r.entry_time DESC`
	rows, err := r.DB.Query(query, plate)
	if err != nil {
		return nil, fmt.Errorf("error searching reservations by plate: %w", err)
	}
	defer rows.Close()

	var reservations []db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning reservation row: %w", err)
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

// FindOverdueActive returns active reservations whose expected exit has
// passed, for the reminder sweep. Reservations without an expected exit are
// never reported.
func (r *ReservationRepository) FindOverdueActive() ([]db.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'active' AND expected_exit IS NOT NULL AND expected_exit < NOW()
		ORDER BY expected_exit`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying overdue reservations: %w", err)
	}
	defer rows.Close()

	var reservations []db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning overdue reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

// Stats aggregates reservation counts per status and total completed revenue.
func (r *ReservationRepository) Stats() (map[db.ReservationStatus]int, int64, error) {
	rows, err := r.DB.Query(`
		SELECT status, COUNT(*), COALESCE(SUM(amount_cents), 0)
		FROM reservations GROUP BY status`)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying reservation stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[db.ReservationStatus]int)
	var revenue int64
	for rows.Next() {
		var status db.ReservationStatus
		var n int
		var sum int64
		if err := rows.Scan(&status, &n, &sum); err != nil {
			return nil, 0, fmt.Errorf("error scanning stats row: %w", err)
		}
		counts[status] = n
		if status == db.ReservationCompleted {
			revenue = sum
		}
	}
	return counts, revenue, rows.Err()
}

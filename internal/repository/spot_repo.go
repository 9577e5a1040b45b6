package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
)

type SpotRepository struct {
	DB *sql.DB
}

func NewSpotRepository(database *sql.DB) *SpotRepository {
	return &SpotRepository{DB: database}
}

const spotColumns = `id, number, category, hourly_rate_cents, status, created_at, updated_at`

func scanSpot(row *sql.Row) (*db.ParkingSpot, error) {
	var s db.ParkingSpot
	err := row.Scan(&s.ID, &s.Number, &s.Category, &s.HourlyRateCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrSpotNotFound
		}
		return nil, fmt.Errorf("error scanning parking spot: %w", err)
	}
	return &s, nil
}

func (r *SpotRepository) Get(spotID int) (*db.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE id = $1`
	return scanSpot(r.DB.QueryRow(query, spotID))
}

// MarkOccupied is the conditional update that serializes concurrent creates
// on the same spot: only one caller flips available to occupied.
func (r *SpotRepository) MarkOccupied(spotID int) error {
	result, err := r.DB.Exec(
		`UPDATE parking_spots SET status = 'occupied', updated_at = NOW() WHERE id = $1 AND status = 'available'`,
		spotID,
	)
	if err != nil {
		return fmt.Errorf("error marking spot %d occupied: %w", spotID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := r.Get(spotID); err != nil {
			return err
		}
		return apperrors.ErrSpotUnavailable
	}
	return nil
}

func (r *SpotRepository) MarkAvailable(spotID int) error {
	result, err := r.DB.Exec(
		`UPDATE parking_spots SET status = 'available', updated_at = NOW() WHERE id = $1`,
		spotID,
	)
	if err != nil {
		return fmt.Errorf("error marking spot %d available: %w", spotID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSpotNotFound
	}
	return nil
}

func (r *SpotRepository) Create(spot *db.ParkingSpot) error {
	if spot.Status == "" {
		spot.Status = db.SpotAvailable
	}
	query := `
		INSERT INTO parking_spots (number, category, hourly_rate_cents, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.DB.QueryRow(query, spot.Number, spot.Category, spot.HourlyRateCents, spot.Status).
		Scan(&spot.ID, &spot.CreatedAt, &spot.UpdatedAt)
}

func (r *SpotRepository) List() ([]db.ParkingSpot, error) {
	return r.list(`SELECT ` + spotColumns + ` FROM parking_spots ORDER BY number`)
}

func (r *SpotRepository) ListAvailable() ([]db.ParkingSpot, error) {
	return r.list(`SELECT ` + spotColumns + ` FROM parking_spots WHERE status = 'available' ORDER BY number`)
}

func (r *SpotRepository) list(query string) ([]db.ParkingSpot, error) {
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error listing parking spots: %w", err)
	}
	defer rows.Close()

	var spots []db.ParkingSpot
	for rows.Next() {
		var s db.ParkingSpot
		if err := rows.Scan(&s.ID, &s.Number, &s.Category, &s.HourlyRateCents, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning parking spot row: %w", err)
		}
		spots = append(spots, s)
	}
	return spots, rows.Err()
}

// UpdateRate changes a spot's hourly rate. Occupancy is never touched here;
// status belongs to the reservation lifecycle.
func (r *SpotRepository) UpdateRate(spotID int, hourlyRateCents int64) error {
	result, err := r.DB.Exec(
		`UPDATE parking_spots SET hourly_rate_cents = $2, updated_at = NOW() WHERE id = $1`,
		spotID, hourlyRateCents,
	)
	if err != nil {
		return fmt.Errorf("error updating spot %d rate: %w", spotID, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.ErrSpotNotFound
	}
	return nil
}

// Delete removes a spot unless an active reservation still references it.
func (r *SpotRepository) Delete(spotID int) error {
	result, err := r.DB.Exec(`
		DELETE FROM parking_spots
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM reservations WHERE spot_id = $1 AND status = 'active')`,
		spotID,
	)
	if err != nil {
		return fmt.Errorf("error deleting spot %d: %w", spotID, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		if _, err := r.Get(spotID); err != nil {
			return err
		}
		return apperrors.ErrSpotUnavailable
	}
	return nil
}

func (r *SpotRepository) CountByStatus() (map[db.SpotStatus]int, error) {
	rows, err := r.DB.Query(`SELECT status, COUNT(*) FROM parking_spots GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("error counting spots by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[db.SpotStatus]int)
	for rows.Next() {
		var status db.SpotStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning spot count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

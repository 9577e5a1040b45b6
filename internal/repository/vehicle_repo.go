package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

func (r *VehicleRepository) Create(v *db.Vehicle) error {
	query := `
		INSERT INTO vehicles (customer_id, plate, model, color, year, active)
		VALUES ($1, UPPER($2), $3, $4, $5, TRUE)
		RETURNING id, active, created_at`
	err := r.DB.QueryRow(query, v.CustomerID, v.Plate, v.Model, v.Color, v.Year).
		Scan(&v.ID, &v.Active, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) Vehicle(id int) (*db.Vehicle, error) {
	var v db.Vehicle
	err := r.DB.QueryRow(
		`SELECT id, customer_id, plate, model, color, year, active, created_at FROM vehicles WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.CustomerID, &v.Plate, &v.Model, &v.Color, &v.Year, &v.Active, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("error querying vehicle %d: %w", id, err)
	}
	return &v, nil
}

func (r *VehicleRepository) ListByCustomer(customerID int) ([]db.Vehicle, error) {
	rows, err := r.DB.Query(
		`SELECT id, customer_id, plate, model, color, year, active, created_at
		 FROM vehicles WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("error listing vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		var v db.Vehicle
		if err := rows.Scan(&v.ID, &v.CustomerID, &v.Plate, &v.Model, &v.Color, &v.Year, &v.Active, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning vehicle row: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// Deactivate soft-deletes a vehicle so past reservations keep their reference.
func (r *VehicleRepository) Deactivate(id int) error {
	result, err := r.DB.Exec(`UPDATE vehicles SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deactivating vehicle %d: %w", id, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.ErrVehicleNotFound
	}
	return nil
}

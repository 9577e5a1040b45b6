package repository

import "parkfacil/internal/db"

// SpotRegistry tracks parking-spot identity and occupancy. Every transition
// is written through immediately so concurrent readers observe it.
type SpotRegistry interface {
	Get(spotID int) (*db.ParkingSpot, error)
	// MarkOccupied flips an available spot to occupied. This compare-and-set
	// is the single point that prevents double-booking.
	MarkOccupied(spotID int) error
	// MarkAvailable releases a spot unconditionally.
	MarkAvailable(spotID int) error
}

// ReservationStore owns the durable reservation state.
type ReservationStore interface {
	Create(res *db.Reservation) error
	GetReservation(id int) (*db.Reservation, error)
	GetByCode(code string) (*db.Reservation, error)
	// Update persists status, exit time, amount and operator note. Only the
	// two forward transitions out of active are accepted.
	Update(res *db.Reservation) error
	FindActiveBySpot(spotID int) (*db.Reservation, error)
	// FindByVehiclePlate returns records most recent entry first.
	FindByVehiclePlate(plate string) ([]db.Reservation, error)
	// Finalize applies Update and releases the spot in one atomic unit.
	// Either both happen or neither does.
	Finalize(res *db.Reservation) error
}

// IdentityDirectory resolves customer and vehicle references for the engine.
type IdentityDirectory interface {
	Customer(id int) (*db.Customer, error)
	Vehicle(id int) (*db.Vehicle, error)
}

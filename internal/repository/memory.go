package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
)

// MemoryStore is an in-process implementation of SpotRegistry,
// ReservationStore and IdentityDirectory with the same transition and
// atomicity guarantees as the Postgres repositories. One mutex covers every
// operation, so Finalize is atomic by construction.
type MemoryStore struct {
	mu sync.Mutex

	spots        map[int]*db.ParkingSpot
	reservations map[int]*db.Reservation
	customers    map[int]*db.Customer
	vehicles     map[int]*db.Vehicle

	nextSpotID        int
	nextReservationID int

	// FailCreate forces the next reservation Create to fail, for exercising
	// the engine's compensating release.
	FailCreate error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		spots:        make(map[int]*db.ParkingSpot),
		reservations: make(map[int]*db.Reservation),
		customers:    make(map[int]*db.Customer),
		vehicles:     make(map[int]*db.Vehicle),
	}
}

func (m *MemoryStore) AddSpot(spot db.ParkingSpot) *db.ParkingSpot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSpotID++
	spot.ID = m.nextSpotID
	if spot.Status == "" {
		spot.Status = db.SpotAvailable
	}
	if spot.Category == "" {
		spot.Category = db.CategoryRegular
	}
	now := time.Now().UTC()
	spot.CreatedAt, spot.UpdatedAt = now, now
	m.spots[spot.ID] = &spot
	out := spot
	return &out
}

func (m *MemoryStore) AddCustomer(c db.Customer) *db.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = len(m.customers) + 1
	}
	m.customers[c.ID] = &c
	out := c
	return &out
}

func (m *MemoryStore) AddVehicle(v db.Vehicle) *db.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == 0 {
		v.ID = len(m.vehicles) + 1
	}
	m.vehicles[v.ID] = &v
	out := v
	return &out
}

func (m *MemoryStore) Get(spotID int) (*db.ParkingSpot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	spot, ok := m.spots[spotID]
	if !ok {
		return nil, apperrors.ErrSpotNotFound
	}
	out := *spot
	return &out, nil
}

func (m *MemoryStore) MarkOccupied(spotID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	spot, ok := m.spots[spotID]
	if !ok {
		return apperrors.ErrSpotNotFound
	}
	if spot.Status != db.SpotAvailable {
		return apperrors.ErrSpotUnavailable
	}
	spot.Status = db.SpotOccupied
	spot.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) MarkAvailable(spotID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	spot, ok := m.spots[spotID]
	if !ok {
		return apperrors.ErrSpotNotFound
	}
	spot.Status = db.SpotAvailable
	spot.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) Create(res *db.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		err := m.FailCreate
		m.FailCreate = nil
		return err
	}
	for _, existing := range m.reservations {
		if existing.SpotID == res.SpotID && existing.Status == db.ReservationActive {
			return apperrors.ErrDuplicateActiveReservation
		}
	}
	m.nextReservationID++
	res.ID = m.nextReservationID
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	stored := *res
	m.reservations[res.ID] = &stored
	return nil
}

func (m *MemoryStore) GetReservation(id int) (*db.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

func (m *MemoryStore) getLocked(id int) (*db.Reservation, error) {
	res, ok := m.reservations[id]
	if !ok {
		return nil, apperrors.ErrReservationNotFound
	}
	out := *res
	return &out, nil
}

func (m *MemoryStore) GetByCode(code string) (*db.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, res := range m.reservations {
		if res.Code == code {
			out := *res
			return &out, nil
		}
	}
	return nil, apperrors.ErrReservationNotFound
}

func (m *MemoryStore) Update(res *db.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(res)
}

func (m *MemoryStore) updateLocked(res *db.Reservation) error {
	stored, ok := m.reservations[res.ID]
	if !ok {
		return apperrors.ErrReservationNotFound
	}
	if stored.Status != db.ReservationActive ||
		(res.Status != db.ReservationCompleted && res.Status != db.ReservationCancelled) {
		return apperrors.ErrInvalidTransition
	}
	stored.Status = res.Status
	stored.ExitTime = res.ExitTime
	stored.AmountCents = res.AmountCents
	stored.OperatorNote = res.OperatorNote
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) Finalize(res *db.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateLocked(res); err != nil {
		return err
	}
	spot, ok := m.spots[res.SpotID]
	if !ok {
		return apperrors.ErrTransactionFailed
	}
	spot.Status = db.SpotAvailable
	spot.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) FindActiveBySpot(spotID int) (*db.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, res := range m.reservations {
		if res.SpotID == spotID && res.Status == db.ReservationActive {
			out := *res
			return &out, nil
		}
	}
	return nil, apperrors.ErrReservationNotFound
}

func (m *MemoryStore) FindByVehiclePlate(plate string) ([]db.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []db.Reservation
	for _, res := range m.reservations {
		vehicle, ok := m.vehicles[res.VehicleID]
		if ok && strings.EqualFold(vehicle.Plate, plate) {
			matches = append(matches, *res)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EntryTime.After(matches[j].EntryTime)
	})
	return matches, nil
}

func (m *MemoryStore) Customer(id int) (*db.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, apperrors.ErrCustomerNotFound
	}
	out := *c
	return &out, nil
}

func (m *MemoryStore) Vehicle(id int) (*db.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, apperrors.ErrVehicleNotFound
	}
	out := *v
	return &out, nil
}

// ActiveCountForSpot reports how many active reservations reference a spot.
// Test helper for the one-active-per-spot invariant.
func (m *MemoryStore) ActiveCountForSpot(spotID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, res := range m.reservations {
		if res.SpotID == spotID && res.Status == db.ReservationActive {
			n++
		}
	}
	return n
}

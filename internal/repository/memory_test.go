package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
)

func activeReservation(store *MemoryStore, spotID int) *db.Reservation {
	res := &db.Reservation{
		Code:       "TEST0001",
		CustomerID: 1,
		VehicleID:  1,
		SpotID:     spotID,
		EntryTime:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		Status:     db.ReservationActive,
	}
	if err := store.Create(res); err != nil {
		panic(err)
	}
	return res
}

func TestMemoryStore_MarkOccupiedIsCompareAndSet(t *testing.T) {
	store := NewMemoryStore()
	spot := store.AddSpot(db.ParkingSpot{Number: "A-01"})

	require.NoError(t, store.MarkOccupied(spot.ID))
	assert.ErrorIs(t, store.MarkOccupied(spot.ID), apperrors.ErrSpotUnavailable)
	assert.ErrorIs(t, store.MarkOccupied(999), apperrors.ErrSpotNotFound)

	require.NoError(t, store.MarkAvailable(spot.ID))
	require.NoError(t, store.MarkOccupied(spot.ID))
}

func TestMemoryStore_CreateEnforcesOneActivePerSpot(t *testing.T) {
	store := NewMemoryStore()
	spot := store.AddSpot(db.ParkingSpot{Number: "A-01"})

	activeReservation(store, spot.ID)

	dup := &db.Reservation{Code: "TEST0002", SpotID: spot.ID, Status: db.ReservationActive}
	assert.ErrorIs(t, store.Create(dup), apperrors.ErrDuplicateActiveReservation)
}

func TestMemoryStore_UpdateGuardsTransitions(t *testing.T) {
	store := NewMemoryStore()
	spot := store.AddSpot(db.ParkingSpot{Number: "A-01"})
	res := activeReservation(store, spot.ID)

	// Forward transition is accepted once.
	res.Status = db.ReservationCompleted
	exit := res.EntryTime.Add(time.Hour)
	amount := int64(500)
	res.ExitTime, res.AmountCents = &exit, &amount
	require.NoError(t, store.Update(res))

	// Out of a terminal state nothing moves.
	res.Status = db.ReservationCancelled
	assert.ErrorIs(t, store.Update(res), apperrors.ErrInvalidTransition)

	missing := &db.Reservation{ID: 999, Status: db.ReservationCancelled}
	assert.ErrorIs(t, store.Update(missing), apperrors.ErrReservationNotFound)
}

func TestMemoryStore_FinalizeReleasesSpotAtomically(t *testing.T) {
	store := NewMemoryStore()
	spot := store.AddSpot(db.ParkingSpot{Number: "A-01"})
	require.NoError(t, store.MarkOccupied(spot.ID))
	res := activeReservation(store, spot.ID)

	res.Status = db.ReservationCancelled
	require.NoError(t, store.Finalize(res))

	updated, err := store.Get(spot.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SpotAvailable, updated.Status)

	stored, err := store.GetReservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ReservationCancelled, stored.Status)
}

func TestMemoryStore_FindActiveBySpot(t *testing.T) {
	store := NewMemoryStore()
	spot := store.AddSpot(db.ParkingSpot{Number: "A-01"})

	_, err := store.FindActiveBySpot(spot.ID)
	assert.ErrorIs(t, err, apperrors.ErrReservationNotFound)

	res := activeReservation(store, spot.ID)
	found, err := store.FindActiveBySpot(spot.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, found.ID)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	spot := store.AddSpot(db.ParkingSpot{Number: "A-01"})

	got, err := store.Get(spot.ID)
	require.NoError(t, err)
	got.Status = db.SpotOccupied

	again, err := store.Get(spot.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SpotAvailable, again.Status)
}

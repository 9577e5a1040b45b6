package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
	"parkfacil/internal/repository"
)

var t0 = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*ReservationService, *repository.MemoryStore, *db.ParkingSpot) {
	t.Helper()
	store := repository.NewMemoryStore()
	spot := store.AddSpot(db.ParkingSpot{Number: "A-01", HourlyRateCents: 500})
	store.AddCustomer(db.Customer{ID: 1, Name: "Ana", Email: "ana@example.com"})
	store.AddVehicle(db.Vehicle{ID: 1, CustomerID: 1, Plate: "ABC1D23"})

	svc := NewReservationService(store, store)
	svc.Identity = store
	return svc, store, spot
}

func TestCreateReservation_OccupiesSpot(t *testing.T) {
	svc, store, spot := newTestService(t)

	res, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)
	assert.Equal(t, db.ReservationActive, res.Status)
	assert.Nil(t, res.ExitTime)
	assert.Nil(t, res.AmountCents)
	assert.NotEmpty(t, res.Code)

	updated, err := store.Get(spot.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SpotOccupied, updated.Status)
}

func TestCreateReservation_SpotNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateReservation(1, 1, 999, t0, nil)
	assert.ErrorIs(t, err, apperrors.ErrSpotNotFound)
}

func TestCreateReservation_UnknownReferences(t *testing.T) {
	svc, _, spot := newTestService(t)

	_, err := svc.CreateReservation(42, 1, spot.ID, t0, nil)
	assert.ErrorIs(t, err, apperrors.ErrCustomerNotFound)

	_, err = svc.CreateReservation(1, 42, spot.ID, t0, nil)
	assert.ErrorIs(t, err, apperrors.ErrVehicleNotFound)
}

func TestCreateReservation_OccupiedSpotRejected(t *testing.T) {
	svc, store, spot := newTestService(t)

	first, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)

	_, err = svc.CreateReservation(1, 1, spot.ID, t0.Add(time.Minute), nil)
	assert.ErrorIs(t, err, apperrors.ErrSpotUnavailable)

	// The existing reservation is untouched.
	existing, err := store.GetReservation(first.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ReservationActive, existing.Status)
	assert.Equal(t, 1, store.ActiveCountForSpot(spot.ID))
}

func TestCreateReservation_CompensatesOnStoreFailure(t *testing.T) {
	svc, store, spot := newTestService(t)

	store.FailCreate = apperrors.ErrDuplicateActiveReservation
	_, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateActiveReservation)

	// The spot flip was reversed; no orphaned occupied spot.
	updated, err := store.Get(spot.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SpotAvailable, updated.Status)
}

func TestCreateReservation_ExpectedExitBeforeEntry(t *testing.T) {
	svc, _, spot := newTestService(t)

	expected := t0.Add(-time.Hour)
	_, err := svc.CreateReservation(1, 1, spot.ID, t0, &expected)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)
}

func TestCompleteReservation_EndToEnd(t *testing.T) {
	svc, store, spot := newTestService(t)

	res, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)

	completed, err := svc.CompleteReservation(res.ID, t0.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, db.ReservationCompleted, completed.Status)
	require.NotNil(t, completed.AmountCents)
	assert.Equal(t, int64(700), *completed.AmountCents)
	require.NotNil(t, completed.ExitTime)
	assert.Equal(t, t0.Add(90*time.Minute), *completed.ExitTime)

	updated, err := store.Get(spot.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SpotAvailable, updated.Status)
}

func TestCompleteReservation_UsesSpotRate(t *testing.T) {
	svc, store, _ := newTestService(t)
	vip := store.AddSpot(db.ParkingSpot{Number: "V-01", Category: db.CategoryVIP, HourlyRateCents: 1200})

	res, err := svc.CreateReservation(1, 1, vip.ID, t0, nil)
	require.NoError(t, err)

	completed, err := svc.CompleteReservation(res.ID, t0.Add(61*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1300), *completed.AmountCents)
}

func TestCompleteReservation_NotIdempotent(t *testing.T) {
	svc, _, spot := newTestService(t)

	res, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)

	_, err = svc.CompleteReservation(res.ID, t0.Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.CompleteReservation(res.ID, t0.Add(2*time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestCompleteReservation_InvalidInterval(t *testing.T) {
	svc, store, spot := newTestService(t)

	res, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)

	_, err = svc.CompleteReservation(res.ID, t0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)

	// Still active, spot still occupied.
	current, err := store.GetReservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ReservationActive, current.Status)
	updated, _ := store.Get(spot.ID)
	assert.Equal(t, db.SpotOccupied, updated.Status)
}

func TestCompleteReservation_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CompleteReservation(999, t0.Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrReservationNotFound)
}

func TestCancelReservation_ReleasesSpotWithoutBilling(t *testing.T) {
	svc, store, spot := newTestService(t)

	res, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)

	cancelled, err := svc.CancelReservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ReservationCancelled, cancelled.Status)
	assert.Nil(t, cancelled.AmountCents)
	assert.Nil(t, cancelled.ExitTime)

	updated, err := store.Get(spot.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SpotAvailable, updated.Status)
}

func TestCancelReservation_AfterCompleteRejected(t *testing.T) {
	svc, store, spot := newTestService(t)

	res, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)
	_, err = svc.CompleteReservation(res.ID, t0.Add(time.Hour))
	require.NoError(t, err)

	// A new reservation takes the freed spot.
	second, err := svc.CreateReservation(1, 1, spot.ID, t0.Add(2*time.Hour), nil)
	require.NoError(t, err)

	_, err = svc.CancelReservation(res.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	// The failed cancel left the spot's occupancy alone.
	updated, _ := store.Get(spot.ID)
	assert.Equal(t, db.SpotOccupied, updated.Status)
	current, _ := store.GetReservation(second.ID)
	assert.Equal(t, db.ReservationActive, current.Status)
}

func TestOperatorFinalize_AttachesNote(t *testing.T) {
	svc, _, spot := newTestService(t)

	res, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)

	finalized, err := svc.OperatorFinalize(res.ID, t0.Add(75*time.Minute), "customer lost ticket")
	require.NoError(t, err)
	assert.Equal(t, db.ReservationCompleted, finalized.Status)
	assert.Equal(t, "customer lost ticket", finalized.OperatorNote)
	// Billing identical to a plain completion.
	assert.Equal(t, int64(600), *finalized.AmountCents)
}

func TestActiveBySpotAndSearch(t *testing.T) {
	svc, store, spot := newTestService(t)
	second := store.AddSpot(db.ParkingSpot{Number: "A-02", HourlyRateCents: 500})

	first, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)
	_, err = svc.CompleteReservation(first.ID, t0.Add(time.Hour))
	require.NoError(t, err)

	latest, err := svc.CreateReservation(1, 1, second.ID, t0.Add(3*time.Hour), nil)
	require.NoError(t, err)

	active, err := svc.ActiveBySpot(second.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, active.ID)

	_, err = svc.ActiveBySpot(spot.ID)
	assert.ErrorIs(t, err, apperrors.ErrReservationNotFound)

	// Search is case-insensitive and most recent entry first.
	results, err := svc.SearchByPlate("abc1d23")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, latest.ID, results[0].ID)
	assert.Equal(t, first.ID, results[1].ID)
}

func TestConcurrentCreate_OneWinner(t *testing.T) {
	svc, store, spot := newTestService(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateReservation(1, 1, spot.ID, t0, nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		if !errors.Is(err, apperrors.ErrSpotUnavailable) && !errors.Is(err, apperrors.ErrDuplicateActiveReservation) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, store.ActiveCountForSpot(spot.ID))

	updated, _ := store.Get(spot.ID)
	assert.Equal(t, db.SpotOccupied, updated.Status)
}

func TestQuote_DoesNotTouchState(t *testing.T) {
	svc, store, spot := newTestService(t)

	amount, err := svc.Quote(spot.ID, t0, t0.Add(59*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(500), amount)

	updated, _ := store.Get(spot.ID)
	assert.Equal(t, db.SpotAvailable, updated.Status)
}

func TestRetryFinalize_RetriesOnlyTransactionFailures(t *testing.T) {
	svc, _, spot := newTestService(t)

	res, err := svc.CreateReservation(1, 1, spot.ID, t0, nil)
	require.NoError(t, err)
	_, err = svc.CompleteReservation(res.ID, t0.Add(time.Hour))
	require.NoError(t, err)

	// InvalidTransition is not retryable and comes back on the first try.
	_, err = svc.RetryFinalize(res.ID, t0.Add(2*time.Hour), "", 3)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"parkfacil/internal/db"
	apperrors "parkfacil/internal/errors"
	"parkfacil/internal/pricing"
	"parkfacil/internal/repository"
)

// Notifier receives lifecycle events for a reservation. Delivery is best
// effort and never blocks or fails the operation itself.
type Notifier interface {
	ReservationCreated(res *db.Reservation)
	ReservationCompleted(res *db.Reservation)
	ReservationCancelled(res *db.Reservation)
}

// ReservationService orchestrates the reservation lifecycle. It holds no
// state of its own; every operation works on records fetched from the spot
// registry and the reservation store.
type ReservationService struct {
	Spots    repository.SpotRegistry
	Store    repository.ReservationStore
	Rates    pricing.RateSchedule
	Identity repository.IdentityDirectory // optional, nil skips reference checks
	Notifier Notifier                     // optional, nil disables notifications
}

func NewReservationService(spots repository.SpotRegistry, store repository.ReservationStore) *ReservationService {
	return &ReservationService{
		Spots: spots,
		Store: store,
		Rates: pricing.Default(),
	}
}

// CreateReservation books an available spot for a customer's vehicle starting
// at entryTime. The spot flip to occupied is the contention point; if the
// store create still loses a race, the flip is reversed before the error
// propagates so no spot stays occupied without a reservation.
func (s *ReservationService) CreateReservation(customerID, vehicleID, spotID int, entryTime time.Time, expectedExit *time.Time) (*db.Reservation, error) {
	if _, err := s.Spots.Get(spotID); err != nil {
		return nil, err
	}
	if s.Identity != nil {
		if _, err := s.Identity.Customer(customerID); err != nil {
			return nil, err
		}
		if _, err := s.Identity.Vehicle(vehicleID); err != nil {
			return nil, err
		}
	}
	if expectedExit != nil && !expectedExit.After(entryTime) {
		return nil, fmt.Errorf("expected exit must be after entry: %w", apperrors.ErrInvalidInterval)
	}

	if err := s.Spots.MarkOccupied(spotID); err != nil {
		return nil, err
	}

	res := &db.Reservation{
		Code:         fmt.Sprintf("%08X", time.Now().UnixNano()%100000000),
		CustomerID:   customerID,
		VehicleID:    vehicleID,
		SpotID:       spotID,
		EntryTime:    entryTime,
		ExpectedExit: expectedExit,
		Status:       db.ReservationActive,
	}
	if err := s.Store.Create(res); err != nil {
		// Compensating action: release the spot we just took.
		if relErr := s.Spots.MarkAvailable(spotID); relErr != nil {
			log.Printf("Could not release spot %d after failed create: %v", spotID, relErr)
		}
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.ReservationCreated(res)
	}
	return res, nil
}

// CompleteReservation records the exit, bills the stay and releases the spot.
// Completion is not idempotent: a second call reports InvalidTransition.
func (s *ReservationService) CompleteReservation(reservationID int, exitTime time.Time) (*db.Reservation, error) {
	return s.finalize(reservationID, exitTime, "")
}

// OperatorFinalize completes a reservation on the operator's behalf and
// attaches their note. Billing is identical to CompleteReservation.
func (s *ReservationService) OperatorFinalize(reservationID int, exitTime time.Time, note string) (*db.Reservation, error) {
	return s.finalize(reservationID, exitTime, note)
}

func (s *ReservationService) finalize(reservationID int, exitTime time.Time, note string) (*db.Reservation, error) {
	res, err := s.Store.GetReservation(reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != db.ReservationActive {
		return nil, fmt.Errorf("reservation %s is %s: %w", res.Code, res.Status, apperrors.ErrInvalidTransition)
	}

	spot, err := s.Spots.Get(res.SpotID)
	if err != nil {
		return nil, err
	}
	amount, err := s.Rates.WithHourlyRate(spot.HourlyRateCents).ComputeFee(res.EntryTime, exitTime)
	if err != nil {
		return nil, err
	}

	res.Status = db.ReservationCompleted
	res.ExitTime = &exitTime
	res.AmountCents = &amount
	if note != "" {
		res.OperatorNote = note
	}
	if err := s.Store.Finalize(res); err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.ReservationCompleted(res)
	}
	return res, nil
}

// CancelReservation voids an active reservation before completion. No fee is
// charged; exit time and amount stay unset, distinguishing a cancellation
// from a zero-fee completion.
func (s *ReservationService) CancelReservation(reservationID int) (*db.Reservation, error) {
	res, err := s.Store.GetReservation(reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != db.ReservationActive {
		return nil, fmt.Errorf("reservation %s is %s: %w", res.Code, res.Status, apperrors.ErrInvalidTransition)
	}

	res.Status = db.ReservationCancelled
	res.ExitTime = nil
	res.AmountCents = nil
	if err := s.Store.Finalize(res); err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.ReservationCancelled(res)
	}
	return res, nil
}

func (s *ReservationService) GetReservation(reservationID int) (*db.Reservation, error) {
	return s.Store.GetReservation(reservationID)
}

func (s *ReservationService) GetReservationByCode(code string) (*db.Reservation, error) {
	return s.Store.GetByCode(code)
}

func (s *ReservationService) ActiveBySpot(spotID int) (*db.Reservation, error) {
	return s.Store.FindActiveBySpot(spotID)
}

func (s *ReservationService) SearchByPlate(plate string) ([]db.Reservation, error) {
	if plate == "" {
		return nil, apperrors.NewHTTPError(400, "plate is required")
	}
	return s.Store.FindByVehiclePlate(plate)
}

// Quote previews the fee for a stay on a spot without touching any state.
func (s *ReservationService) Quote(spotID int, entryTime, exitTime time.Time) (int64, error) {
	spot, err := s.Spots.Get(spotID)
	if err != nil {
		return 0, err
	}
	return s.Rates.WithHourlyRate(spot.HourlyRateCents).ComputeFee(entryTime, exitTime)
}

// RetryFinalize re-runs a finalize that failed with TransactionFailed. Any
// other error is returned untouched; callers must not blind-retry those.
func (s *ReservationService) RetryFinalize(reservationID int, exitTime time.Time, note string, attempts int) (*db.Reservation, error) {
	var res *db.Reservation
	var err error
	for i := 0; i < attempts; i++ {
		res, err = s.finalize(reservationID, exitTime, note)
		if err == nil || !errors.Is(err, apperrors.ErrTransactionFailed) {
			return res, err
		}
	}
	return nil, err
}

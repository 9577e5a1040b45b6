package service

import (
	"parkfacil/internal/db"
	"parkfacil/internal/pricing"
	"parkfacil/internal/repository"
)

// OperatorService covers the operator-facing management surface: spot
// administration and facility statistics.
type OperatorService struct {
	spotRepo        *repository.SpotRepository
	reservationRepo *repository.ReservationRepository
}

func NewOperatorService(spotRepo *repository.SpotRepository, reservationRepo *repository.ReservationRepository) *OperatorService {
	return &OperatorService{spotRepo: spotRepo, reservationRepo: reservationRepo}
}

func (s *OperatorService) CreateSpot(number string, category db.SpotCategory, hourlyRateCents int64) (*db.ParkingSpot, error) {
	if category == "" {
		category = db.CategoryRegular
	}
	if hourlyRateCents <= 0 {
		hourlyRateCents = pricing.DefaultHourlyRateCents
	}
	spot := &db.ParkingSpot{
		Number:          number,
		Category:        category,
		HourlyRateCents: hourlyRateCents,
		Status:          db.SpotAvailable,
	}
	if err := s.spotRepo.Create(spot); err != nil {
		return nil, err
	}
	return spot, nil
}

func (s *OperatorService) ListSpots() ([]db.ParkingSpot, error) {
	return s.spotRepo.List()
}

func (s *OperatorService) ListAvailableSpots() ([]db.ParkingSpot, error) {
	return s.spotRepo.ListAvailable()
}

func (s *OperatorService) UpdateSpotRate(spotID int, hourlyRateCents int64) error {
	return s.spotRepo.UpdateRate(spotID, hourlyRateCents)
}

func (s *OperatorService) DeleteSpot(spotID int) error {
	return s.spotRepo.Delete(spotID)
}

type Stats struct {
	Spots        map[db.SpotStatus]int        `json:"spots"`
	Reservations map[db.ReservationStatus]int `json:"reservations"`
	RevenueCents int64                        `json:"revenue_cents"`
	Revenue      string                       `json:"revenue"`
}

func (s *OperatorService) Stats() (*Stats, error) {
	spotCounts, err := s.spotRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	reservationCounts, revenue, err := s.reservationRepo.Stats()
	if err != nil {
		return nil, err
	}
	return &Stats{
		Spots:        spotCounts,
		Reservations: reservationCounts,
		RevenueCents: revenue,
		Revenue:      pricing.FormatCents(revenue),
	}, nil
}
